// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// The application core (router, permission gate, doctor) depends only on these
// abstractions. Every environment concern the tool touches, from the working
// directory walk to the clock and child processes, sits behind one of them so
// tests can drive the core deterministically.
package ports

import (
	"context"
	"time"

	"github.com/doeshing/ergo/internal/domain"
)

// TierResolver produces the ordered cache tiers, nearest first.
type TierResolver interface {
	// Tiers returns candidate cache directories; they need not exist.
	Tiers() ([]string, error)
	// WriteDir returns the first tier, creating it when missing.
	WriteDir() (string, error)
}

// Clock is the time source for created_at, last_used and decided_at.
type Clock interface {
	Now() time.Time
}

// CommandLocator finds executables on the search path.
type CommandLocator interface {
	LookPath(program string) (string, error)
}

// ProcessRunner spawns child processes. A non-zero exit code is reported in
// the output, not as an error; errors mean the process could not run at all.
type ProcessRunner interface {
	CommandLocator
	Run(ctx context.Context, program string, args []string) (domain.ProcessOutput, error)
}

// ScriptProvider fetches the script body that belongs to a stored command.
type ScriptProvider interface {
	GetScript(record domain.CommandRecord) (string, error)
}

// CommandRepository is the command store seen from the application core.
type CommandRepository interface {
	ScriptProvider
	Get(name string) (domain.CommandRecord, bool, error)
	Store(name string, record domain.CommandRecord, script string) (domain.CommandRecord, error)
	UpdateUsage(name string) error
	NeedsConsent(name string) bool
	GetPermissionDecision(name string) (domain.PermissionDecision, bool)
	SetPermissionDecision(name string, decision domain.PermissionDecision) error
	Remove(name string) (bool, error)
	Clear() error
	List() []domain.CommandListing
	Stats() (domain.CacheStats, error)
}

// ExecutionContextStore persists the singleton last-execution record.
type ExecutionContextStore interface {
	// Load returns nil without error when no record exists.
	Load() (*domain.ExecutionContextRecord, error)
	Save(domain.ExecutionContextRecord) error
}

// CommandGenerator synthesizes commands through the generation service.
type CommandGenerator interface {
	Generate(ctx context.Context, name string, args []string) (domain.GenerationResult, error)
	GenerateFromDescription(ctx context.Context, description string) (domain.GenerationResult, error)
	Regenerate(ctx context.Context, req domain.FeedbackRequest) (domain.GenerationResult, error)
}

// Executor runs system commands and sandboxed generated commands.
type Executor interface {
	ExecuteSystem(ctx context.Context, name string, args []string) error
	ExecuteGeneratedWithContext(ctx context.Context, name string, record domain.CommandRecord, args []string) (domain.ExecutionResult, error)
}

// Presenter renders user-facing status lines. Narrate output is only shown
// in verbose mode.
type Presenter interface {
	Info(msg string)
	Narrate(msg string)
	Running(name string, permissions []domain.PermissionRequest)
	Denied(name string)
}

// ConsentPrompter asks the user to decide on a command's permissions.
type ConsentPrompter interface {
	RequestConsent(record domain.CommandRecord) (domain.Consent, error)
}

// HistoryRepository persists generated-command runs.
type HistoryRepository interface {
	Save(domain.HistoryRecord) error
	Recent(limit int) ([]domain.HistoryRecord, error)
	Close() error
}

// ConfigProvider loads and updates the persisted configuration.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
	SetAPIKey(key string) error
	Path() string
	Exists() bool
}

// Logger provides structured logging abstraction for the application layer.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
