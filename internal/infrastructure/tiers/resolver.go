// Package tiers resolves the ordered list of cache directories.
//
// A directory carries its own tier when it contains the marker directory; the
// walk goes from the working directory to the filesystem root and the home
// tier is appended last.
package tiers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/doeshing/ergo/internal/domain"
	"github.com/doeshing/ergo/internal/pkg/filesystem"
	"github.com/doeshing/ergo/internal/ports"
)

var _ ports.TierResolver = (*FSResolver)(nil)
var _ ports.TierResolver = (*StaticResolver)(nil)

// FSResolver walks the real filesystem.
type FSResolver struct {
	workDir func() (string, error)
	homeDir func() (string, error)
}

// NewFSResolver resolves from the process working directory and user home.
func NewFSResolver() *FSResolver {
	return &FSResolver{workDir: os.Getwd, homeDir: filesystem.LookupHomeDir}
}

// NewFSResolverAt is used by tests to pin both directories.
func NewFSResolverAt(workDir, homeDir string) *FSResolver {
	return &FSResolver{
		workDir: func() (string, error) { return workDir, nil },
		homeDir: func() (string, error) {
			if homeDir == "" {
				return "", domain.ErrNoHomeDirectory
			}
			return homeDir, nil
		},
	}
}

// Tiers implements ports.TierResolver.
func (r *FSResolver) Tiers() ([]string, error) {
	var tiers []string
	seen := map[string]bool{}
	add := func(dir string) {
		if !seen[dir] {
			seen[dir] = true
			tiers = append(tiers, dir)
		}
	}

	if wd, err := r.workDir(); err == nil {
		dir := filepath.Clean(wd)
		for {
			marker := filepath.Join(dir, domain.MarkerDirName)
			if info, err := os.Stat(marker); err == nil && info.IsDir() {
				add(filepath.Join(marker, domain.CacheSubdir))
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	if home, err := r.homeDir(); err == nil && home != "" {
		add(filepath.Join(filepath.Clean(home), domain.MarkerDirName, domain.CacheSubdir))
	}
	return tiers, nil
}

// WriteDir implements ports.TierResolver.
func (r *FSResolver) WriteDir() (string, error) {
	tiers, err := r.Tiers()
	if err != nil {
		return "", err
	}
	return ensureFirst(tiers)
}

// StaticResolver returns a fixed tier list.
type StaticResolver struct {
	Dirs []string
}

// Tiers implements ports.TierResolver.
func (s *StaticResolver) Tiers() ([]string, error) {
	out := make([]string, len(s.Dirs))
	copy(out, s.Dirs)
	return out, nil
}

// WriteDir implements ports.TierResolver.
func (s *StaticResolver) WriteDir() (string, error) {
	return ensureFirst(s.Dirs)
}

func ensureFirst(tiers []string) (string, error) {
	if len(tiers) == 0 {
		return "", domain.ErrNoHomeDirectory
	}
	if err := os.MkdirAll(tiers[0], domain.DirectoryPermissions); err != nil {
		return "", fmt.Errorf("create cache directory %s: %w", tiers[0], err)
	}
	return tiers[0], nil
}
