package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/doeshing/ergo/internal/domain"
)

// Diagnoser runs the environment checks.
type Diagnoser interface {
	Run(ctx context.Context) (domain.HealthReport, error)
}

// RunDoctor runs environment diagnostics and prints the report.
func RunDoctor(ctx context.Context, out io.Writer, doctor Diagnoser) error {
	if doctor == nil {
		return errors.New(ErrDoctorServiceUnavailable)
	}

	report, err := doctor.Run(ctx)

	// Display report even if there were errors
	displayDoctorReport(out, report)

	if err != nil {
		return fmt.Errorf("diagnostics completed with errors: %w", err)
	}
	if report.HasFailures() {
		return errors.New("diagnostics found failing checks")
	}
	return nil
}

// displayDoctorReport displays the health check report
func displayDoctorReport(out io.Writer, report domain.HealthReport) {
	for _, check := range report.Checks {
		fmt.Fprintf(out, "[%s] %s - %s\n",
			statusColor(check.Status)(strings.ToUpper(string(check.Status))),
			check.Name,
			check.Details)
	}
}

func statusColor(status domain.HealthStatus) func(string, ...interface{}) string {
	switch status {
	case domain.HealthOK:
		return color.GreenString
	case domain.HealthWarn:
		return color.YellowString
	default:
		return color.RedString
	}
}
