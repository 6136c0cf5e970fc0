package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/doeshing/ergo/internal/domain"
	"github.com/doeshing/ergo/internal/infrastructure/cli/helpers"
	"github.com/doeshing/ergo/internal/ports"
)

const topCommandsShown = 5

// ShowHistory prints the most recent generated-command runs, newest first,
// followed by a short summary.
func ShowHistory(out io.Writer, repo ports.HistoryRepository, limit int) error {
	if repo == nil {
		return errors.New(ErrHistoryStoreUnavailable)
	}
	if limit <= 0 {
		limit = domain.DefaultHistoryLimit
	}

	records, err := repo.Recent(limit)
	if err != nil {
		return fmt.Errorf("failed to retrieve history records: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}

	for _, rec := range records {
		status := color.GreenString("ok")
		if !rec.Success {
			status = color.RedString("exit %d", rec.ExitCode)
		}
		fmt.Fprintf(out, "%s | %s | %s | %dms | stderr %s\n",
			rec.Timestamp.Format(TimestampFormat),
			rec.CommandName,
			status,
			rec.DurationMS,
			humanize.Bytes(uint64(rec.StderrBytes)))
	}

	summary := helpers.SummarizeHistory(records)
	fmt.Fprintf(out, "\nRuns: %d\nSuccess rate: %.1f%%\n",
		summary.Runs,
		helpers.CalculateSuccessRate(summary.Successful, summary.Runs))
	fmt.Fprintln(out, "Top commands:")
	for _, stat := range helpers.CalculateTopCommands(summary.Frequencies, topCommandsShown) {
		fmt.Fprintf(out, "  %s (%d)\n", stat.Command, stat.Count)
	}
	return nil
}
