package domain

import "time"

// HistoryRecord is one generated-command run in the append-only history log.
type HistoryRecord struct {
	Timestamp   time.Time `json:"timestamp"`
	CommandName string    `json:"command_name"`
	Args        []string  `json:"args"`
	Success     bool      `json:"success"`
	ExitCode    int       `json:"exit_code"`
	DurationMS  int64     `json:"duration_ms"`
	StderrBytes int       `json:"stderr_bytes"`
}
