package feed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/velov-sync/internal/observability"
)

// --- mock for cache tests ---

type countingDownloader struct {
	calls int
	data  []byte
	err   error
}

func (d *countingDownloader) Download(_ context.Context) ([]byte, error) {
	d.calls++
	return d.data, d.err
}

func newTestSnapshot(t *testing.T, d Downloader, clock clockwork.Clock) (*CachedSnapshot, *observability.Metrics, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "velov.json")
	metrics := observability.NewMetricsForTesting()
	return NewCachedSnapshot(d, path, DefaultMaxAge, clock, discardLogger(), metrics), metrics, path
}

func TestCachedSnapshot_DownloadsWhenMissing(t *testing.T) {
	d := &countingDownloader{data: []byte(sampleFeed)}
	snap, metrics, path := newTestSnapshot(t, d, clockwork.NewFakeClock())

	records, err := snap.Stations(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 1, d.calls)
	assert.FileExists(t, path)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.FeedCache.WithLabelValues("miss")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.FeedStations), 0)
}

func TestCachedSnapshot_FreshCacheHit(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	d := &countingDownloader{data: []byte(sampleFeed)}
	snap, metrics, _ := newTestSnapshot(t, d, clock)

	_, err := snap.Stations(context.Background())
	require.NoError(t, err)

	clock.Advance(23 * time.Hour)
	_, err = snap.Stations(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, d.calls, "cache younger than a day is reused")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.FeedCache.WithLabelValues("hit")), 0)
}

func TestCachedSnapshot_StaleCacheRefreshed(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	d := &countingDownloader{data: []byte(sampleFeed)}
	snap, _, _ := newTestSnapshot(t, d, clock)

	_, err := snap.Stations(context.Background())
	require.NoError(t, err)

	clock.Advance(24*time.Hour + time.Second)
	_, err = snap.Stations(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, d.calls)
}

func TestCachedSnapshot_ExistingFileUsedAsIs(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	d := &countingDownloader{err: errors.New("should not be called")}
	snap, _, path := newTestSnapshot(t, d, clock)

	require.NoError(t, os.WriteFile(path, []byte(sampleFeed), 0o600))
	mtime := clock.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	records, err := snap.Stations(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 0, d.calls)
}

func TestCachedSnapshot_DownloadErrorPropagates(t *testing.T) {
	d := &countingDownloader{err: errors.New("connection refused")}
	snap, _, path := newTestSnapshot(t, d, clockwork.NewFakeClock())

	_, err := snap.Stations(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.NoFileExists(t, path)
}

func TestCachedSnapshot_BrokenDownloadKeepsOldCache(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	d := &countingDownloader{data: []byte(sampleFeed)}
	snap, _, path := newTestSnapshot(t, d, clock)

	_, err := snap.Stations(context.Background())
	require.NoError(t, err)

	d.data = []byte("<html>maintenance</html>")
	require.Error(t, snap.Refresh(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, sampleFeed, string(data))
}
