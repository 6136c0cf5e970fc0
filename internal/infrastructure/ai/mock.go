package ai

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/doeshing/ergo/internal/domain"
	"github.com/doeshing/ergo/internal/ports"
)

var _ ports.CommandGenerator = MockGenerator{}

// MockGenerator produces deterministic commands from name patterns without
// any network access.
type MockGenerator struct{}

// Generate implements ports.CommandGenerator.
func (MockGenerator) Generate(_ context.Context, name string, _ []string) (domain.GenerationResult, error) {
	return mockCommand(name), nil
}

// GenerateFromDescription implements ports.CommandGenerator.
func (MockGenerator) GenerateFromDescription(_ context.Context, description string) (domain.GenerationResult, error) {
	result := mockCommand(SuggestName(description))
	result.Command.Description = description
	return result, nil
}

// Regenerate implements ports.CommandGenerator. The suggested name is
// deliberately different from the requested one.
func (MockGenerator) Regenerate(_ context.Context, req domain.FeedbackRequest) (domain.GenerationResult, error) {
	result := mockCommand(req.CommandName)
	result.Command.Name = req.CommandName + "-v2"
	reason := strings.TrimSpace(req.Feedback)
	if reason == "" {
		reason = "previous run failed"
	}
	result.Command.Description = fmt.Sprintf("%s (regenerated: %s)", result.Command.Description, reason)
	return result, nil
}

// SuggestName turns a description into a short hyphenated command name.
func SuggestName(description string) string {
	words := strings.FieldsFunc(strings.ToLower(description), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) > 3 {
		words = words[:3]
	}
	if len(words) == 0 {
		return "generated-command"
	}
	return strings.Join(words, "-")
}

func mockCommand(name string) domain.GenerationResult {
	var (
		description string
		script      string
		perms       []domain.PermissionRequest
	)
	switch {
	case strings.HasPrefix(name, "git-"):
		action := strings.TrimPrefix(name, "git-")
		description = "Custom git command for " + action
		script = fmt.Sprintf("const proc = new Deno.Command('git', { args: ['%s', ...Deno.args] }); await proc.output();", action)
		perms = []domain.PermissionRequest{{Permission: "--allow-run=git", Reason: "Runs git " + action}}
	case name == "hello":
		description = "Greet the user"
		script = "console.log(`Hello from ergo! Arguments: ${Deno.args.join(' ')}`);"
	case name == "timestamp":
		description = "Show current timestamp"
		script = "const now = new Date(); console.log(now.toISOString().replace('T', '_').replace(/:/g, '-').split('.')[0]);"
	case name == "uuid":
		description = "Generate a UUID"
		script = "console.log(crypto.randomUUID());"
	case name == "weather":
		description = "Get current weather"
		script = `const response = await fetch('https://wttr.in/?format=%l:+%c+%t');
const weather = await response.text();
console.log(` + "`Weather: ${weather.trim()}`" + `);`
		perms = []domain.PermissionRequest{{Permission: "--allow-net=wttr.in", Reason: "Fetches the forecast from wttr.in"}}
	case name == "project-info":
		description = "Show project information"
		script = `try {
  const cwd = Deno.cwd();
  console.log(` + "`Project: ${cwd.split('/').pop() || 'unknown'}`" + `);
  try {
    const out = await new Deno.Command('git', { args: ['branch', '--show-current'] }).output();
    const branch = new TextDecoder().decode(out.stdout).trim();
    console.log(` + "`Git branch: ${branch || 'not a git repo'}`" + `);
  } catch {
    console.log('Git branch: not a git repo');
  }
  let files = 0;
  for await (const entry of Deno.readDir('.')) {
    if (entry.isFile) files++;
  }
  console.log(` + "`Files: ${files}`" + `);
} catch (error) {
  console.error('Error:', error.message);
}`
		perms = []domain.PermissionRequest{
			{Permission: "--allow-read", Reason: "Counts files in the current directory"},
			{Permission: "--allow-run=git", Reason: "Reads the current git branch"},
		}
	default:
		description = "Generated command for " + name
		script = fmt.Sprintf("console.log('This is a generated command: %s');", name)
	}
	if perms == nil {
		perms = []domain.PermissionRequest{}
	}
	return domain.GenerationResult{
		Command: domain.CommandRecord{
			Name:        name,
			Description: description,
			Permissions: perms,
		},
		ScriptContent: script,
	}
}
