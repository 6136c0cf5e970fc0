package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/doeshing/ergo/internal/domain"
	"github.com/doeshing/ergo/internal/ports"
)

// Renderer prints status lines around generated-command runs.
type Renderer struct {
	out     io.Writer
	verbose bool
}

// NewRenderer builds a presenter writing to out (stdout when nil).
func NewRenderer(out io.Writer, verbose bool) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	return &Renderer{out: out, verbose: verbose}
}

// Info always prints msg.
func (r *Renderer) Info(msg string) {
	fmt.Fprintln(r.out, msg)
}

// Narrate prints msg in verbose mode only.
func (r *Renderer) Narrate(msg string) {
	if !r.verbose {
		return
	}
	fmt.Fprintln(r.out, color.New(color.FgCyan).Sprint(msg))
}

// Running announces a generated command and the capabilities it runs with.
func (r *Renderer) Running(name string, permissions []domain.PermissionRequest) {
	if len(permissions) == 0 {
		if r.verbose {
			fmt.Fprintf(r.out, "Running '%s' %s\n", name, color.HiBlackString("(no special permissions needed)"))
		}
		return
	}
	fmt.Fprintf(r.out, "Running '%s' with permissions:\n", color.New(color.FgGreen).Sprint(name))
	for _, perm := range permissions {
		fmt.Fprintf(r.out, "  %s\n", perm.Permission)
	}
}

// Denied reports that consent was refused.
func (r *Renderer) Denied(name string) {
	fmt.Fprintln(r.out, color.RedString("Permission denied for command '%s'", name))
	fmt.Fprintln(r.out, "The command will not be executed.")
}

var _ ports.Presenter = (*Renderer)(nil)
