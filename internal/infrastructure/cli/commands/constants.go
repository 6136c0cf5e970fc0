package commands

// Error messages
const (
	ErrConfigLoaderUnavailable  = "config loader unavailable"
	ErrDoctorServiceUnavailable = "doctor service unavailable"
	ErrHistoryStoreUnavailable  = "history store unavailable"
	ErrCacheStoreUnavailable    = "cache store unavailable"
)

// Success messages
const (
	MsgAPIKeySaved       = "API key saved successfully"
	MsgCacheCleared      = "Cache cleared successfully"
	MsgNoCachedCommands  = "No cached commands."
	MsgNoHistoryRecorded = "No history recorded yet."
)

// TimestampFormat is used when printing absolute times.
const TimestampFormat = "2006-01-02 15:04:05"
