package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoHomeDirectory means no cache tier could be resolved at all.
	ErrNoHomeDirectory = errors.New("could not determine cache directory: no home directory found")
	// ErrScriptNotFound means no tier holds the script file of a record.
	ErrScriptNotFound = errors.New("script file not found")
	// ErrSandboxUnavailable means the sandbox runtime binary is not installed.
	ErrSandboxUnavailable = errors.New("sandbox runtime is not installed")
	// ErrMissingAPIKey means no credential is configured for the generation service.
	ErrMissingAPIKey = errors.New("no Anthropic API key found")
	// ErrNoCommand is returned when a system execution is requested without a program.
	ErrNoCommand = errors.New("no command provided")
)

// GenerationError is a schema or extraction failure. Raw holds the service
// response verbatim for diagnosis.
type GenerationError struct {
	Reason string
	Raw    string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("failed to parse generation response: %s\nraw response: %s", e.Reason, e.Raw)
}

// ServiceError is a non-success response from the generation service.
type ServiceError struct {
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("generation service returned HTTP %d: %s", e.StatusCode, e.Body)
}

// ExitError reports a system command that exited non-zero.
type ExitError struct {
	Command string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Command, e.Code)
}
