// Package executor runs system commands and sandboxed generated scripts.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/doeshing/ergo/internal/domain"
	"github.com/doeshing/ergo/internal/ports"
)

var _ ports.Executor = (*Executor)(nil)

// Options configures the sandbox invocation and output sinks.
type Options struct {
	SandboxBinary string
	RunSubcommand string
	// TempDir holds the per-run script copies; empty means os.TempDir().
	TempDir string
	Stdout  io.Writer
	Stderr  io.Writer
}

// Executor is the sandbox executor.
type Executor struct {
	runner   ports.ProcessRunner
	scripts  ports.ScriptProvider
	contexts ports.ExecutionContextStore
	history  ports.HistoryRepository
	clock    ports.Clock
	logger   ports.Logger
	opts     Options
}

// New builds an executor. history may be nil.
func New(runner ports.ProcessRunner, scripts ports.ScriptProvider, contexts ports.ExecutionContextStore,
	history ports.HistoryRepository, clk ports.Clock, logger ports.Logger, opts Options) *Executor {
	if opts.SandboxBinary == "" {
		opts.SandboxBinary = domain.DefaultSandboxBinary
	}
	if opts.RunSubcommand == "" {
		opts.RunSubcommand = domain.DefaultSandboxSubcommand
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return &Executor{
		runner:   runner,
		scripts:  scripts,
		contexts: contexts,
		history:  history,
		clock:    clk,
		logger:   logger,
		opts:     opts,
	}
}

// ExecuteSystem runs an executable from PATH directly and forwards its output.
// A non-zero exit is returned as *domain.ExitError.
func (e *Executor) ExecuteSystem(ctx context.Context, name string, args []string) error {
	if name == "" {
		return domain.ErrNoCommand
	}
	e.logger.Debug("executing system command", map[string]interface{}{"command": name, "args": args})
	out, err := e.runner.Run(ctx, name, args)
	if err != nil {
		return fmt.Errorf("run %s: %w", name, err)
	}
	e.forward(out)
	if out.ExitCode != 0 {
		return &domain.ExitError{Command: name, Code: out.ExitCode}
	}
	return nil
}

// ExecuteGenerated runs a stored command in the sandbox and forwards its
// output. A non-zero exit is returned as *domain.ExitError next to the result.
func (e *Executor) ExecuteGenerated(ctx context.Context, record domain.CommandRecord, args []string) (domain.ExecutionResult, error) {
	script, err := e.scripts.GetScript(record)
	if err != nil {
		return domain.ExecutionResult{}, err
	}
	result, err := e.runSandboxed(ctx, record, script, args)
	if err != nil {
		return result, err
	}
	e.forwardResult(result)
	if !result.Success {
		return result, &domain.ExitError{Command: record.Name, Code: result.ExitCode}
	}
	return result, nil
}

// ExecuteGeneratedWithContext runs a stored command and records the run as
// the last execution under name. A failing script is reported through the
// result only; errors mean the run could not happen or could not be recorded.
func (e *Executor) ExecuteGeneratedWithContext(ctx context.Context, name string, record domain.CommandRecord, args []string) (domain.ExecutionResult, error) {
	script, err := e.scripts.GetScript(record)
	if err != nil {
		return domain.ExecutionResult{}, err
	}
	result, err := e.runSandboxed(ctx, record, script, args)
	if err != nil {
		return result, err
	}
	e.forwardResult(result)

	contextRecord := domain.ExecutionContextRecord{
		CommandName:   name,
		ScriptContent: script,
		Success:       result.Success,
	}
	if result.Stderr != "" {
		stderr := result.Stderr
		contextRecord.Stderr = &stderr
	}
	if err := e.contexts.Save(contextRecord); err != nil {
		return result, err
	}
	e.appendHistory(name, args, result)
	return result, nil
}

func (e *Executor) runSandboxed(ctx context.Context, record domain.CommandRecord, script string, args []string) (domain.ExecutionResult, error) {
	if _, err := e.runner.LookPath(e.opts.SandboxBinary); err != nil {
		return domain.ExecutionResult{}, e.sandboxUnavailable(err)
	}

	path := filepath.Join(e.opts.TempDir, domain.TempScriptPrefix+uuid.NewString()+domain.ScriptExtension)
	if err := os.WriteFile(path, []byte(script), domain.SecureFilePermissions); err != nil {
		return domain.ExecutionResult{}, fmt.Errorf("write temporary script: %w", err)
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			e.logger.Warn("failed to remove temporary script", map[string]interface{}{"path": path, "error": err.Error()})
		}
	}()

	argv := SandboxArgs(e.opts.RunSubcommand, record.PermissionFlags(), path, args)
	e.logger.Debug("executing sandboxed script", map[string]interface{}{
		"command": record.Name,
		"runtime": e.opts.SandboxBinary,
		"argv":    argv,
	})

	start := e.clock.Now()
	out, err := e.runner.Run(ctx, e.opts.SandboxBinary, argv)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return domain.ExecutionResult{}, e.sandboxUnavailable(err)
		}
		return domain.ExecutionResult{}, fmt.Errorf("run sandbox: %w", err)
	}
	return domain.ExecutionResult{
		Success:    out.ExitCode == 0,
		Stdout:     string(out.Stdout),
		Stderr:     string(out.Stderr),
		ExitCode:   out.ExitCode,
		DurationMS: e.clock.Now().Sub(start).Milliseconds(),
	}, nil
}

// SandboxArgs builds the runtime argument list: subcommand, each permission
// verbatim, the script path, then the user arguments.
func SandboxArgs(subcommand string, permissions []string, scriptPath string, args []string) []string {
	argv := make([]string, 0, 2+len(permissions)+len(args))
	argv = append(argv, subcommand)
	argv = append(argv, permissions...)
	argv = append(argv, scriptPath)
	argv = append(argv, args...)
	return argv
}

func (e *Executor) sandboxUnavailable(cause error) error {
	e.logger.Error("sandbox runtime missing", cause, map[string]interface{}{"runtime": e.opts.SandboxBinary})
	return fmt.Errorf("%w: %q was not found on PATH; install Deno from https://deno.land to run generated commands",
		domain.ErrSandboxUnavailable, e.opts.SandboxBinary)
}

func (e *Executor) forward(out domain.ProcessOutput) {
	if len(out.Stdout) > 0 {
		e.opts.Stdout.Write(out.Stdout)
	}
	if len(out.Stderr) > 0 {
		e.opts.Stderr.Write(out.Stderr)
	}
}

func (e *Executor) forwardResult(result domain.ExecutionResult) {
	if result.Stdout != "" {
		io.WriteString(e.opts.Stdout, result.Stdout)
	}
	if result.Stderr != "" {
		io.WriteString(e.opts.Stderr, result.Stderr)
	}
}

func (e *Executor) appendHistory(name string, args []string, result domain.ExecutionResult) {
	if e.history == nil {
		return
	}
	err := e.history.Save(domain.HistoryRecord{
		Timestamp:   e.clock.Now(),
		CommandName: name,
		Args:        args,
		Success:     result.Success,
		ExitCode:    result.ExitCode,
		DurationMS:  result.DurationMS,
		StderrBytes: len(result.Stderr),
	})
	if err != nil {
		e.logger.Warn("failed to record history", map[string]interface{}{"command": name, "error": err.Error()})
	}
}
