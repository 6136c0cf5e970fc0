// Package domain defines core entities and value objects for ergo.
//
// The types in this package mirror the on-disk documents written by the
// command store and the execution context store, so their JSON field names
// are part of the persisted format.
package domain

import (
	"fmt"
	"strings"
)

// PermissionRequest is a single sandbox capability a generated command asks for,
// together with the justification shown to the user.
type PermissionRequest struct {
	Permission string `json:"permission"`
	Reason     string `json:"reason"`
}

// CommandRecord describes a generated command. ScriptFile names the sibling
// script file in the tier directory that owns the record.
type CommandRecord struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	ScriptFile  string              `json:"script_file"`
	Permissions []PermissionRequest `json:"permissions"`
}

// PermissionFlags returns the capability strings in declaration order.
func (c CommandRecord) PermissionFlags() []string {
	flags := make([]string, 0, len(c.Permissions))
	for _, perm := range c.Permissions {
		flags = append(flags, perm.Permission)
	}
	return flags
}

// RequiresPermissions reports whether the command declares any capability.
func (c CommandRecord) RequiresPermissions() bool {
	return len(c.Permissions) > 0
}

// Consent is the user's answer to a permission request.
type Consent string

const (
	ConsentAcceptOnce    Consent = "AcceptOnce"
	ConsentAcceptForever Consent = "AcceptForever"
	ConsentDenied        Consent = "Denied"
)

// Granted reports whether the consent allows execution.
func (c Consent) Granted() bool {
	return c == ConsentAcceptOnce || c == ConsentAcceptForever
}

// Label is the human readable form used in listings.
func (c Consent) Label() string {
	switch c {
	case ConsentAcceptOnce:
		return "Accept Once"
	case ConsentAcceptForever:
		return "Accept Forever"
	case ConsentDenied:
		return "Denied"
	default:
		return string(c)
	}
}

// Valid reports whether c is one of the known consent values.
func (c Consent) Valid() bool {
	switch c {
	case ConsentAcceptOnce, ConsentAcceptForever, ConsentDenied:
		return true
	}
	return false
}

// PermissionDecision records what was shown to the user and what they chose.
// DecidedAt is a unix timestamp in seconds.
type PermissionDecision struct {
	Permissions []PermissionRequest `json:"permissions"`
	Consent     Consent             `json:"consent"`
	DecidedAt   uint64              `json:"decided_at"`
}

// CacheEntry wraps a stored command with usage bookkeeping.
type CacheEntry struct {
	Command            CommandRecord       `json:"command"`
	CreatedAt          uint64              `json:"created_at"`
	UsageCount         uint32              `json:"usage_count"`
	LastUsed           uint64              `json:"last_used"`
	PermissionDecision *PermissionDecision `json:"permission_decision"`
}

// CommandListing is one row of a cache listing.
type CommandListing struct {
	Name       string
	Command    CommandRecord
	Decision   *PermissionDecision
	UsageCount uint32
	LastUsed   uint64
}

// CacheStats summarizes the write tier.
type CacheStats struct {
	TotalCommands   int
	TotalUsage      uint64
	AcceptedForever int
	Directory       string
	SizeBytes       uint64
}

// AverageUsage returns the mean usage per command, zero for an empty cache.
func (s CacheStats) AverageUsage() float64 {
	if s.TotalCommands == 0 {
		return 0
	}
	return float64(s.TotalUsage) / float64(s.TotalCommands)
}

// scriptNameEscaper keeps ScriptFileName one-to-one: '_' only ever appears
// as the first byte of an escape pair.
var scriptNameEscaper = strings.NewReplacer("_", "__", "/", "_s", "\\", "_b")

// ScriptFileName derives the script file name stored next to a command.
// Path separators are escaped so the file always stays inside its tier, and
// distinct names never share a file.
func ScriptFileName(name string) string {
	safe := scriptNameEscaper.Replace(name)
	if safe == "" || safe == "." || safe == ".." {
		safe = "_" + safe
	}
	return fmt.Sprintf("%s%s", safe, ScriptExtension)
}
