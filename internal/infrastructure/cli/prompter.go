package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/doeshing/ergo/internal/domain"
	"github.com/doeshing/ergo/internal/ports"
)

const bannerWidth = 60

// Prompter implements ConsentPrompter using stdin/stdout. It shares stdin
// with the sandboxed script, so it never reads past the answer line.
type Prompter struct {
	in  io.Reader
	out io.Writer
}

// NewPrompter constructs a prompter referencing stdio.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Prompter{
		in:  in,
		out: out,
	}
}

// RequestConsent shows the command's permissions and loops until the user
// picks one of the three options.
func (p *Prompter) RequestConsent(record domain.CommandRecord) (domain.Consent, error) {
	rule := strings.Repeat("=", bannerWidth)
	fmt.Fprintf(p.out, "\n%s\n", rule)
	fmt.Fprintln(p.out, color.New(color.Bold).Sprint("PERMISSION REQUEST"))
	fmt.Fprintln(p.out, rule)
	fmt.Fprintf(p.out, "Command: %s\n", record.Name)
	fmt.Fprintf(p.out, "Description: %s\n", record.Description)
	fmt.Fprintln(p.out, "\nRequested permissions:")
	for i, perm := range record.Permissions {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, color.New(color.FgYellow).Sprint(perm.Permission))
		fmt.Fprintf(p.out, "     Why: %s\n", perm.Reason)
	}
	fmt.Fprintln(p.out, "\nOptions:")
	fmt.Fprintln(p.out, "  1. Accept Once    - Run this time only, ask again next time")
	fmt.Fprintln(p.out, "  2. Accept Forever - Always run with these permissions")
	fmt.Fprintln(p.out, "  3. Deny           - Don't run this command")
	fmt.Fprintln(p.out, rule)

	for {
		fmt.Fprint(p.out, "\nChoose an option (1/2/3): ")
		line, err := readLine(p.in)
		if err != nil && (err != io.EOF || line == "") {
			return "", fmt.Errorf("read consent: %w", err)
		}
		switch strings.TrimSpace(line) {
		case "1":
			return domain.ConsentAcceptOnce, nil
		case "2":
			return domain.ConsentAcceptForever, nil
		case "3":
			return domain.ConsentDenied, nil
		}
		if err == io.EOF {
			return "", fmt.Errorf("read consent: %w", err)
		}
		fmt.Fprintln(p.out, color.RedString("Invalid choice. Please enter 1, 2, or 3."))
	}
}

// readLine reads up to and including the next newline one byte at a time.
func readLine(r io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			sb.WriteByte(buf[0])
			if buf[0] == '\n' {
				return sb.String(), nil
			}
		}
		if err != nil {
			return sb.String(), err
		}
	}
}

var _ ports.ConsentPrompter = (*Prompter)(nil)
