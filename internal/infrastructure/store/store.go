// Package store implements the tiered command store.
//
// Each tier directory holds one commands.json document plus the script files
// it references. Only the nearest tier is loaded into memory and mutated; the
// other tiers are read on demand and never written. Every mutation rewrites
// the whole document and takes no lock, so the last writer wins when two
// invocations race on the same tier.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/doeshing/ergo/internal/domain"
	"github.com/doeshing/ergo/internal/pkg/clock"
	"github.com/doeshing/ergo/internal/pkg/filesystem"
	"github.com/doeshing/ergo/internal/ports"
)

var _ ports.CommandRepository = (*Store)(nil)

// document is the persisted mapping from command name to entry.
type document map[string]domain.CacheEntry

// Store is the command store backed by the write tier's document.
type Store struct {
	resolver ports.TierResolver
	clock    ports.Clock
	logger   ports.Logger
	writeDir string
	entries  document
}

// Open resolves the write tier and loads its document.
func Open(resolver ports.TierResolver, clk ports.Clock, logger ports.Logger) (*Store, error) {
	writeDir, err := resolver.WriteDir()
	if err != nil {
		return nil, err
	}
	s := &Store{
		resolver: resolver,
		clock:    clk,
		logger:   logger,
		writeDir: writeDir,
	}
	s.entries = s.load()
	return s, nil
}

// Dir returns the write tier directory.
func (s *Store) Dir() string {
	return s.writeDir
}

// load reads the write tier document. Missing and unparsable documents both
// yield an empty store; the latter is logged because the next write discards it.
func (s *Store) load() document {
	doc, err := readDocument(s.writeDir)
	if err == nil {
		return doc
	}
	if !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("command store unreadable, starting empty", map[string]interface{}{
			"path":  documentPath(s.writeDir),
			"error": err.Error(),
		})
	}
	return document{}
}

func documentPath(dir string) string {
	return filepath.Join(dir, domain.StoreDocumentName)
}

func readDocument(dir string) (document, error) {
	data, err := os.ReadFile(documentPath(dir))
	if err != nil {
		return nil, err
	}
	doc := document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", documentPath(dir), err)
	}
	// A literal null decodes to a nil map.
	if doc == nil {
		doc = document{}
	}
	return doc, nil
}

func (s *Store) save() error {
	if s.entries == nil {
		s.entries = document{}
	}
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode command store: %w", err)
	}
	if err := filesystem.WriteFileAtomic(documentPath(s.writeDir), data, domain.FilePermissions); err != nil {
		return fmt.Errorf("write command store: %w", err)
	}
	return nil
}

// documentFor returns the in-memory document for the write tier and reads
// any other tier from disk. Unreadable tiers are skipped.
func (s *Store) documentFor(tier string) document {
	if tier == s.writeDir {
		return s.entries
	}
	doc, err := readDocument(tier)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("skipping unreadable cache tier", map[string]interface{}{
				"tier":  tier,
				"error": err.Error(),
			})
		}
		return nil
	}
	return doc
}

// Get returns the record for name from the nearest tier that has it.
func (s *Store) Get(name string) (domain.CommandRecord, bool, error) {
	if entry, ok := s.entries[name]; ok {
		return entry.Command, true, nil
	}
	tiers, err := s.resolver.Tiers()
	if err != nil {
		return domain.CommandRecord{}, false, err
	}
	for _, tier := range tiers {
		if entry, ok := s.documentFor(tier)[name]; ok {
			s.logger.Debug("cache hit in fallback tier", map[string]interface{}{"name": name, "tier": tier})
			return entry.Command, true, nil
		}
	}
	return domain.CommandRecord{}, false, nil
}

// GetScript implements ports.ScriptProvider. The nearest tier whose document
// references the script file owns it, even when the file itself is gone.
func (s *Store) GetScript(record domain.CommandRecord) (string, error) {
	tiers, err := s.resolver.Tiers()
	if err != nil {
		return "", err
	}
	for _, tier := range tiers {
		if !references(s.documentFor(tier), record.ScriptFile) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(tier, record.ScriptFile))
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s in %s", domain.ErrScriptNotFound, record.ScriptFile, tier)
		}
		if err != nil {
			return "", fmt.Errorf("read script %s: %w", record.ScriptFile, err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("%w: %s", domain.ErrScriptNotFound, record.ScriptFile)
}

func references(doc document, scriptFile string) bool {
	for _, entry := range doc {
		if entry.Command.ScriptFile == scriptFile {
			return true
		}
	}
	return false
}

// Store writes the script into the write tier and replaces any entry for name
// with a fresh one. The previous permission decision does not survive.
func (s *Store) Store(name string, record domain.CommandRecord, script string) (domain.CommandRecord, error) {
	record.ScriptFile = domain.ScriptFileName(name)
	if err := os.WriteFile(filepath.Join(s.writeDir, record.ScriptFile), []byte(script), domain.FilePermissions); err != nil {
		return domain.CommandRecord{}, fmt.Errorf("write script %s: %w", record.ScriptFile, err)
	}

	now := clock.UnixSeconds(s.clock.Now())
	s.entries[name] = domain.CacheEntry{
		Command:    record,
		CreatedAt:  now,
		UsageCount: 0,
		LastUsed:   now,
	}
	if err := s.save(); err != nil {
		return domain.CommandRecord{}, err
	}
	s.logger.Info("stored command", map[string]interface{}{
		"name":        name,
		"script":      record.ScriptFile,
		"permissions": len(record.Permissions),
	})
	return record, nil
}

// UpdateUsage bumps the counters of a write tier entry. Entries resolved from
// other tiers are left alone.
func (s *Store) UpdateUsage(name string) error {
	entry, ok := s.entries[name]
	if !ok {
		return nil
	}
	entry.UsageCount++
	entry.LastUsed = clock.UnixSeconds(s.clock.Now())
	s.entries[name] = entry
	return s.save()
}

// NeedsConsent reports whether the user has to be asked before running name.
func (s *Store) NeedsConsent(name string) bool {
	entry, ok := s.entries[name]
	if !ok {
		return true
	}
	if len(entry.Command.Permissions) == 0 {
		return false
	}
	if entry.PermissionDecision == nil {
		return true
	}
	return entry.PermissionDecision.Consent != domain.ConsentAcceptForever
}

// GetPermissionDecision returns the write tier decision for name.
func (s *Store) GetPermissionDecision(name string) (domain.PermissionDecision, bool) {
	entry, ok := s.entries[name]
	if !ok || entry.PermissionDecision == nil {
		return domain.PermissionDecision{}, false
	}
	return *entry.PermissionDecision, true
}

// SetPermissionDecision overwrites the decision of a write tier entry.
func (s *Store) SetPermissionDecision(name string, decision domain.PermissionDecision) error {
	entry, ok := s.entries[name]
	if !ok {
		s.logger.Debug("decision not persisted, command outside write tier", map[string]interface{}{"name": name})
		return nil
	}
	d := decision
	entry.PermissionDecision = &d
	s.entries[name] = entry
	return s.save()
}

// Remove deletes name and its script file.
func (s *Store) Remove(name string) (bool, error) {
	entry, ok := s.entries[name]
	if !ok {
		return false, nil
	}
	if err := s.removeScript(entry.Command.ScriptFile); err != nil {
		return false, err
	}
	delete(s.entries, name)
	if err := s.save(); err != nil {
		return false, err
	}
	return true, nil
}

// Clear deletes every script and empties the write tier document.
func (s *Store) Clear() error {
	for _, entry := range s.entries {
		if err := s.removeScript(entry.Command.ScriptFile); err != nil {
			return err
		}
	}
	s.entries = document{}
	return s.save()
}

func (s *Store) removeScript(scriptFile string) error {
	if scriptFile == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.writeDir, scriptFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove script %s: %w", scriptFile, err)
	}
	return nil
}

// List returns the write tier entries sorted by name.
func (s *Store) List() []domain.CommandListing {
	out := make([]domain.CommandListing, 0, len(s.entries))
	for name, entry := range s.entries {
		out = append(out, domain.CommandListing{
			Name:       name,
			Command:    entry.Command,
			Decision:   entry.PermissionDecision,
			UsageCount: entry.UsageCount,
			LastUsed:   entry.LastUsed,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Stats summarizes the write tier.
func (s *Store) Stats() (domain.CacheStats, error) {
	stats := domain.CacheStats{
		TotalCommands: len(s.entries),
		Directory:     s.writeDir,
	}
	for _, entry := range s.entries {
		stats.TotalUsage += uint64(entry.UsageCount)
		if entry.PermissionDecision != nil && entry.PermissionDecision.Consent == domain.ConsentAcceptForever {
			stats.AcceptedForever++
		}
	}
	size, err := filesystem.DirSize(s.writeDir)
	if err != nil {
		return stats, fmt.Errorf("measure cache directory: %w", err)
	}
	stats.SizeBytes = size
	return stats, nil
}
