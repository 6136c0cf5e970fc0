package executor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"

	"github.com/doeshing/ergo/internal/domain"
	"github.com/doeshing/ergo/internal/ports"
)

var _ ports.ProcessRunner = (*OSRunner)(nil)

// OSRunner spawns real processes and captures their output.
type OSRunner struct {
	Stdin io.Reader
}

// NewOSRunner passes stdin through to every child.
func NewOSRunner(stdin io.Reader) *OSRunner {
	return &OSRunner{Stdin: stdin}
}

// Run implements ports.ProcessRunner.
func (r *OSRunner) Run(ctx context.Context, program string, args []string) (domain.ProcessOutput, error) {
	c := exec.CommandContext(ctx, program, args...)
	var stdout, stderr bytes.Buffer
	c.Stdin = r.Stdin
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	out := domain.ProcessOutput{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	if err != nil {
		return out, err
	}
	return out, nil
}

// LookPath implements ports.ProcessRunner.
func (r *OSRunner) LookPath(program string) (string, error) {
	return exec.LookPath(program)
}
