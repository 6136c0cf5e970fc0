// Package router resolves an intent to a system command, a cached command or
// a freshly generated one, and drives the corrective feedback loop.
package router

import (
	"context"
	"fmt"

	"github.com/doeshing/ergo/internal/domain"
	"github.com/doeshing/ergo/internal/ports"
)

// ConsentGate returns the decision governing a run.
type ConsentGate interface {
	CheckAndRequest(name string, record domain.CommandRecord) (domain.PermissionDecision, error)
}

// NoIntentMessage is shown when no positional arguments were given.
const NoIntentMessage = "No intent provided. Use 'ergo --help' for usage information."

// NoContextMessage is shown when --nope has nothing to regenerate.
const NoContextMessage = "No previous command execution found. Run a command first, then use --nope."

// Service is the intent router.
type Service struct {
	Locator   ports.CommandLocator
	Store     ports.CommandRepository
	Generator ports.CommandGenerator
	Gate      ConsentGate
	Executor  ports.Executor
	Contexts  ports.ExecutionContextStore
	Presenter ports.Presenter
	Logger    ports.Logger
}

// Process routes the positional arguments of one invocation.
func (s *Service) Process(ctx context.Context, tokens []string) error {
	intent, ok := domain.ClassifyIntent(tokens)
	if !ok {
		s.Presenter.Info(NoIntentMessage)
		return nil
	}
	if intent.Kind == domain.IntentConversational {
		return s.processConversational(ctx, intent.Description)
	}

	name, args := intent.Name, intent.Args
	if path, err := s.Locator.LookPath(name); err == nil {
		s.Logger.Info("system command", map[string]interface{}{"name": name, "path": path})
		return s.Executor.ExecuteSystem(ctx, name, args)
	}

	record, found, err := s.Store.Get(name)
	if err != nil {
		return err
	}
	if found {
		s.Logger.Info("cache hit", map[string]interface{}{"name": name})
		return s.executeWithPermissions(ctx, name, record, args)
	}

	s.Presenter.Narrate(fmt.Sprintf("Command '%s' not found, generating with AI...", name))
	s.Logger.Info("generating command", map[string]interface{}{"name": name, "args": args})
	generated, err := s.Generator.Generate(ctx, name, args)
	if err != nil {
		return err
	}
	stored, err := s.Store.Store(name, generated.Command, generated.ScriptContent)
	if err != nil {
		return err
	}
	return s.executeWithPermissions(ctx, name, stored, args)
}

func (s *Service) processConversational(ctx context.Context, description string) error {
	s.Presenter.Narrate(fmt.Sprintf("Understanding your request: %s", description))
	s.Logger.Info("conversational intent", map[string]interface{}{"description": description})

	generated, err := s.Generator.GenerateFromDescription(ctx, description)
	if err != nil {
		return err
	}
	name := generated.Command.Name
	s.Presenter.Narrate(fmt.Sprintf("Generated command: %s (%s)", name, generated.Command.Description))

	stored, err := s.Store.Store(name, generated.Command, generated.ScriptContent)
	if err != nil {
		return err
	}
	return s.executeWithPermissions(ctx, name, stored, nil)
}

// ProcessFeedback regenerates the last executed command. An empty feedback
// asks the generator to work from the previous error output alone.
func (s *Service) ProcessFeedback(ctx context.Context, feedback string) error {
	last, err := s.Contexts.Load()
	if err != nil {
		return err
	}
	if last == nil || last.CommandName == "" {
		s.Presenter.Info(NoContextMessage)
		return nil
	}

	name := last.CommandName
	s.Presenter.Narrate(fmt.Sprintf("Regenerating command '%s'...", name))
	switch {
	case feedback != "":
		s.Presenter.Narrate("Feedback: " + feedback)
	case last.Stderr != nil:
		s.Presenter.Narrate("Using stderr from last execution as context")
	}
	s.Logger.Info("regenerating command", map[string]interface{}{"name": name, "feedback": feedback})

	generated, err := s.Generator.Regenerate(ctx, domain.FeedbackRequest{
		CommandName:    name,
		PreviousScript: last.ScriptContent,
		PreviousStderr: last.StderrText(),
		Feedback:       feedback,
	})
	if err != nil {
		return err
	}

	record := generated.Command
	if record.Name != name {
		s.Logger.Debug("generator renamed command, keeping original", map[string]interface{}{
			"original":  name,
			"suggested": record.Name,
		})
	}
	record.Name = name
	stored, err := s.Store.Store(name, record, generated.ScriptContent)
	if err != nil {
		return err
	}
	s.Presenter.Narrate(fmt.Sprintf("Command regenerated: %s", stored.Description))
	return s.executeWithPermissions(ctx, name, stored, nil)
}

func (s *Service) executeWithPermissions(ctx context.Context, name string, record domain.CommandRecord, args []string) error {
	decision, err := s.Gate.CheckAndRequest(name, record)
	if err != nil {
		return err
	}
	if !decision.Consent.Granted() {
		s.Presenter.Denied(name)
		return nil
	}

	s.Presenter.Running(name, record.Permissions)
	if err := s.Store.UpdateUsage(name); err != nil {
		return err
	}
	result, err := s.Executor.ExecuteGeneratedWithContext(ctx, name, record, args)
	if err != nil {
		return err
	}
	if !result.Success {
		s.Logger.Warn("generated command failed", map[string]interface{}{"name": name, "exit_code": result.ExitCode})
		s.Presenter.Narrate(fmt.Sprintf("'%s' exited with status %d; run 'ergo --nope' to regenerate it", name, result.ExitCode))
	}
	return nil
}
