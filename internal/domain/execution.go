package domain

// ExecutionContextRecord is the singleton record of the last generated-command
// run. Every generated run overwrites it entirely; system commands never touch it.
type ExecutionContextRecord struct {
	CommandName   string  `json:"command_name"`
	ScriptContent string  `json:"script_content"`
	Stderr        *string `json:"stderr"`
	Success       bool    `json:"success"`
}

// StderrText returns the captured stderr or an empty string.
func (r ExecutionContextRecord) StderrText() string {
	if r.Stderr == nil {
		return ""
	}
	return *r.Stderr
}

// ExecutionResult wraps details from a finished process.
type ExecutionResult struct {
	Success    bool
	Stdout     string
	Stderr     string
	ExitCode   int
	DurationMS int64
}

// ProcessOutput is what a process runner captured from a child process.
// A non-zero ExitCode is not an error at this level.
type ProcessOutput struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// GenerationResult is a freshly synthesized command and its script text.
type GenerationResult struct {
	Command       CommandRecord
	ScriptContent string
}

// FeedbackRequest carries everything the generator needs to rebuild a command.
// An empty Feedback means "use the previous stderr only".
type FeedbackRequest struct {
	CommandName    string
	PreviousScript string
	PreviousStderr string
	Feedback       string
}
