package ai

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/doeshing/ergo/internal/domain"
)

const responseContract = `RESPOND WITH EXACTLY THIS FORMAT (with your values):
{
  "name": "{{.Name}}",
  "description": "Brief description",
  "script": "console.log('working code here');",
  "permissions": [{"permission": "--allow-net=example.com", "reason": "Why the script needs it"}]
}

RULES:
- Create real, working functionality, no placeholder code
- The script runs under Deno as TypeScript; arguments are available as Deno.args
- Use MINIMAL permissions, an empty list is preferred
- Valid permissions: --allow-read, --allow-write, --allow-net, --allow-env, --allow-run, optionally scoped like --allow-net=host
- Every permission needs a one-sentence reason the user can judge
- Include try/catch for error handling
- CRITICAL: RESPOND ONLY WITH THE JSON OBJECT ABOVE, NO OTHER TEXT`

var generateTemplate = template.Must(template.New("generate").Parse(
	`CRITICAL: Your response must be EXACTLY a JSON object. No explanations, no code blocks, no other text.

Generate a Deno/TypeScript command named '{{.Name}}'{{if .Args}} that will be called with arguments {{.Args}}{{end}}.

` + responseContract))

var describeTemplate = template.Must(template.New("describe").Parse(
	`CRITICAL: Your response must be EXACTLY a JSON object. No explanations, no code blocks, no other text.

The user described what they want in plain language:
"{{.Description}}"

Pick a short, lowercase, hyphenated command name for it and generate a Deno/TypeScript command that does it.

` + responseContract))

var feedbackTemplate = template.Must(template.New("feedback").Parse(
	`CRITICAL: Your response must be EXACTLY a JSON object. No explanations, no code blocks, no other text.

The command '{{.Name}}' did not do what the user wanted. Rewrite it.

Previous script:
---
{{.PreviousScript}}
---
{{if .PreviousStderr}}
Error output from the last run:
---
{{.PreviousStderr}}
---
{{end}}{{if .Feedback}}
User feedback: {{.Feedback}}
{{else}}
No feedback was given; fix the problem shown by the error output.
{{end}}
Keep the name '{{.Name}}'.

` + responseContract))

type templateData struct {
	Name           string
	Args           string
	Description    string
	PreviousScript string
	PreviousStderr string
	Feedback       string
}

func executeTemplate(tmpl *template.Template, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func quoteArgs(args []string) string {
	if len(args) == 0 {
		return ""
	}
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = `"` + strings.ReplaceAll(arg, `"`, `\"`) + `"`
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// renderGeneratePrompt builds the instruction for a named command.
func renderGeneratePrompt(name string, args []string) (string, error) {
	return executeTemplate(generateTemplate, templateData{Name: name, Args: quoteArgs(args)})
}

// renderDescribePrompt builds the instruction for a natural-language request.
func renderDescribePrompt(description string) (string, error) {
	return executeTemplate(describeTemplate, templateData{Name: "suggested-name", Description: description})
}

// renderFeedbackPrompt builds the instruction for a regeneration.
func renderFeedbackPrompt(req domain.FeedbackRequest) (string, error) {
	return executeTemplate(feedbackTemplate, templateData{
		Name:           req.CommandName,
		PreviousScript: req.PreviousScript,
		PreviousStderr: strings.TrimSpace(req.PreviousStderr),
		Feedback:       strings.TrimSpace(req.Feedback),
	})
}
