package feed

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/velov-sync/internal/domain"
	"github.com/couchcryptid/velov-sync/internal/observability"
)

// DefaultMaxAge is how long a cached snapshot stays fresh.
const DefaultMaxAge = 24 * time.Hour

// Downloader fetches the raw feed document.
type Downloader interface {
	Download(ctx context.Context) ([]byte, error)
}

// CachedSnapshot serves the feed from a local file, downloading it again
// when the file is missing or older than maxAge.
type CachedSnapshot struct {
	source  Downloader
	path    string
	maxAge  time.Duration
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewCachedSnapshot creates a file-backed snapshot of source.
func NewCachedSnapshot(source Downloader, path string, maxAge time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *CachedSnapshot {
	return &CachedSnapshot{
		source:  source,
		path:    path,
		maxAge:  maxAge,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// Stations returns the station records of the snapshot, refreshing the
// cache file first if it is stale.
func (c *CachedSnapshot) Stations(ctx context.Context) ([]domain.StationRecord, error) {
	fresh, err := c.isFresh()
	if err != nil {
		return nil, err
	}
	if fresh {
		c.metrics.FeedCache.WithLabelValues("hit").Inc()
	} else {
		c.metrics.FeedCache.WithLabelValues("miss").Inc()
		if err := c.Refresh(ctx); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("read feed cache: %w", err)
	}
	records, err := ParseStations(data)
	if err != nil {
		return nil, err
	}
	c.metrics.FeedStations.Set(float64(len(records)))
	return records, nil
}

// Refresh downloads the feed and replaces the cache file atomically.
func (c *CachedSnapshot) Refresh(ctx context.Context) error {
	data, err := c.source.Download(ctx)
	if err != nil {
		return err
	}
	// Reject a broken download before it overwrites a good cache.
	if _, err := ParseStations(data); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create feed cache: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write feed cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write feed cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("replace feed cache: %w", err)
	}
	// Staleness is judged against the injected clock, so stamp the file with it.
	now := c.clock.Now()
	if err := os.Chtimes(c.path, now, now); err != nil {
		return fmt.Errorf("touch feed cache: %w", err)
	}
	c.logger.Info("feed cache refreshed", "path", c.path)
	return nil
}

func (c *CachedSnapshot) isFresh() (bool, error) {
	info, err := os.Stat(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat feed cache: %w", err)
	}
	age := c.clock.Since(info.ModTime())
	if age > c.maxAge {
		c.logger.Info("feed cache stale", "path", c.path, "age", age.Round(time.Second))
		return false, nil
	}
	return true, nil
}
