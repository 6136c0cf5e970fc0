package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// FilePermissions is used for store documents and scripts (rw-r--r--)
	FilePermissions = 0o644
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// On-disk layout
const (
	// MarkerDirName marks a directory as carrying its own cache tier.
	MarkerDirName = ".abiogenesis"
	// CacheSubdir is the tier directory inside a marker directory.
	CacheSubdir = "biomas"
	// StoreDocumentName is the per-tier command store document.
	StoreDocumentName = "commands.json"
	// ExecutionContextFileName holds the last generated execution.
	ExecutionContextFileName = "last_execution.json"
	// ScriptExtension is appended to stored script names.
	ScriptExtension = ".ts"
	// ConfigFileName lives directly in the marker directory under home.
	ConfigFileName = "config.toml"
	// EnvFileName is an optional dotenv file next to the config.
	EnvFileName = ".env"
	// LogFileName is the log file next to the config.
	LogFileName = "ergo.log"
	// HistoryDBName is the sqlite history database.
	HistoryDBName = "history.db"
	// HistoryJSONLName is the fallback history file.
	HistoryJSONLName = "history.jsonl"
	// TempScriptPrefix prefixes temporary sandbox scripts.
	TempScriptPrefix = "ergo_script_"
)

// Environment variables
const (
	EnvAPIKey        = "ANTHROPIC_API_KEY"
	EnvConfigPath    = "ERGO_CONFIG"
	EnvUseMock       = "ERGO_USE_MOCK"
	EnvUseMockLegacy = "ABIOGENESIS_USE_MOCK"
)

// Generation service defaults
const (
	DefaultGeneratorEndpoint = "https://api.anthropic.com/v1/messages"
	DefaultGeneratorModel    = "claude-3-haiku-20240307"
	DefaultMaxTokens         = 1500
	DefaultAnthropicVersion  = "2023-06-01"
)

// Sandbox defaults
const (
	DefaultSandboxBinary     = "deno"
	DefaultSandboxSubcommand = "run"
)

// History constants
const (
	// DefaultHistoryLimit is the default number of history records to display
	DefaultHistoryLimit = 20
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)
