package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/doeshing/ergo/internal/domain"
)

// CacheStore is the slice of the command store the cache flags need.
type CacheStore interface {
	List() []domain.CommandListing
	Stats() (domain.CacheStats, error)
	Remove(name string) (bool, error)
	Clear() error
}

// ListCache prints every write-tier entry sorted by name.
func ListCache(out io.Writer, store CacheStore, now time.Time) error {
	if store == nil {
		return errors.New(ErrCacheStoreUnavailable)
	}
	listings := store.List()
	if len(listings) == 0 {
		fmt.Fprintln(out, MsgNoCachedCommands)
		return nil
	}

	fmt.Fprintln(out, color.New(color.Bold).Sprint("Cached commands:"))
	for _, entry := range listings {
		fmt.Fprintf(out, "\n  %s\n", color.New(color.FgGreen).Sprint(entry.Name))
		fmt.Fprintf(out, "    Description: %s\n", entry.Command.Description)
		if entry.Command.RequiresPermissions() {
			fmt.Fprintln(out, "    Permissions:")
			for _, perm := range entry.Command.Permissions {
				fmt.Fprintf(out, "      %s - %s\n", color.New(color.FgYellow).Sprint(perm.Permission), perm.Reason)
			}
		} else {
			fmt.Fprintln(out, "    Permissions: none")
		}
		if entry.Decision != nil {
			fmt.Fprintf(out, "    User Decision: %s\n", entry.Decision.Consent.Label())
		}
		fmt.Fprintf(out, "    Usage count: %d\n", entry.UsageCount)
		fmt.Fprintf(out, "    Last used: %s\n", lastUsed(entry.LastUsed, now))
	}
	return nil
}

func lastUsed(unix uint64, now time.Time) string {
	then := time.Unix(int64(unix), 0)
	return fmt.Sprintf("%s (%s)", humanize.RelTime(then, now, "ago", "from now"), then.Format(TimestampFormat))
}

// ShowCacheStats prints a summary of the write tier.
func ShowCacheStats(out io.Writer, store CacheStore) error {
	if store == nil {
		return errors.New(ErrCacheStoreUnavailable)
	}
	stats, err := store.Stats()
	if err != nil {
		return fmt.Errorf("failed to compute cache stats: %w", err)
	}
	fmt.Fprintln(out, "Cache Stats:")
	fmt.Fprintf(out, "- Total commands: %d\n", stats.TotalCommands)
	fmt.Fprintf(out, "- Total usage: %d\n", stats.TotalUsage)
	fmt.Fprintf(out, "- Average usage: %.2f\n", stats.AverageUsage())
	fmt.Fprintf(out, "- Accepted forever: %d\n", stats.AcceptedForever)
	fmt.Fprintf(out, "- Cache directory: %s\n", stats.Directory)
	fmt.Fprintf(out, "- Size on disk: %s\n", humanize.Bytes(stats.SizeBytes))
	return nil
}

// ClearCache removes every write-tier entry and its script.
func ClearCache(out io.Writer, store CacheStore) error {
	if store == nil {
		return errors.New(ErrCacheStoreUnavailable)
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Fprintln(out, color.GreenString(MsgCacheCleared))
	return nil
}

// RemoveCommand deletes one write-tier entry.
func RemoveCommand(out io.Writer, store CacheStore, name string) error {
	if store == nil {
		return errors.New(ErrCacheStoreUnavailable)
	}
	removed, err := store.Remove(name)
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	if removed {
		fmt.Fprintf(out, "Removed command '%s' from cache\n", name)
	} else {
		fmt.Fprintf(out, "Command '%s' not found in cache\n", name)
	}
	return nil
}
