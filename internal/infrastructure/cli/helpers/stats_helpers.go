package helpers

import (
	"sort"

	"github.com/doeshing/ergo/internal/domain"
)

// CommandStatistic represents usage statistics for a command
type CommandStatistic struct {
	Command string
	Count   int
}

// HistorySummary aggregates a slice of history records.
type HistorySummary struct {
	Runs        int
	Successful  int
	Frequencies map[string]int
}

// SummarizeHistory counts runs, successes and runs per command.
func SummarizeHistory(records []domain.HistoryRecord) HistorySummary {
	summary := HistorySummary{Frequencies: make(map[string]int)}
	for _, rec := range records {
		summary.Runs++
		if rec.Success {
			summary.Successful++
		}
		summary.Frequencies[rec.CommandName]++
	}
	return summary
}

// CalculateTopCommands returns the top N most frequently used commands
// If limit is 0 or negative, returns all commands
func CalculateTopCommands(commandFrequency map[string]int, limit int) []CommandStatistic {
	stats := make([]CommandStatistic, 0, len(commandFrequency))
	for cmd, count := range commandFrequency {
		stats = append(stats, CommandStatistic{Command: cmd, Count: count})
	}
	// count descending, then name ascending
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count == stats[j].Count {
			return stats[i].Command < stats[j].Command
		}
		return stats[i].Count > stats[j].Count
	})

	if limit > 0 && len(stats) > limit {
		return stats[:limit]
	}
	return stats
}

// CalculateSuccessRate calculates the success rate as a percentage
func CalculateSuccessRate(successfulCount int, executedCount int) float64 {
	if executedCount == 0 {
		return 0.0
	}
	return float64(successfulCount) / float64(executedCount) * 100.0
}
