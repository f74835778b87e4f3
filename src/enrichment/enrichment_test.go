package enrichment

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mse-observer/src/logger"
	"mse-observer/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePages struct {
	mu       sync.Mutex
	pages    map[string]string
	visited  []string
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (f *fakePages) FetchRawRows(ctx context.Context, url, selector string) ([][]string, error) {
	return nil, errors.New("not used")
}

func (f *fakePages) FetchPageText(ctx context.Context, url string) (string, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.visited = append(f.visited, url)
	text, ok := f.pages[url]
	f.mu.Unlock()
	if !ok {
		return "", errors.New("page timeout")
	}
	return text, nil
}

func (f *fakePages) Close() error { return nil }

func quietLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, "enrichment", logger.LevelError)
}

func newTestEnricher(nav *fakePages, batch int) *VolumeEnricher {
	cfg := models.MEnrichmentConfig{BatchSize: batch, PageTimeoutSecs: 1, MinVolume: 1, MaxVolume: 10000}
	return NewVolumeEnricher(nav, cfg, "https://mse.test/en/symbol/%s", quietLogger())
}

func TestSmallestPlausible_PicksShareCount(t *testing.T) {
	p := NewSmallestPlausible(DefaultLabels, 1, 10000)

	assert.Equal(t, int64(46), p.Select("Last trade Volume 46 Turnover in denars 1,191,482.80"))
	assert.Equal(t, int64(120), p.Select("Volume: 1,250 Last quantity: 120"))
	assert.Equal(t, int64(35), p.Select("Количина: 35 Промет: 80.500"))
}

func TestSmallestPlausible_OutOfRange(t *testing.T) {
	p := NewSmallestPlausible(DefaultLabels, 1, 10000)

	assert.Zero(t, p.Select("Volume: 0"))
	assert.Zero(t, p.Select("Turnover: 1,191,482"))
	assert.Zero(t, p.Select("no figures here"))
}

func TestEnrich_OnlyZeroVolumes(t *testing.T) {
	nav := &fakePages{pages: map[string]string{
		"https://mse.test/en/symbol/KMB": "Volume 46",
	}}
	records := []models.MStockRecord{
		{Symbol: "ALK", Volume: 1200},
		{Symbol: "KMB", Volume: 0},
	}

	out, stats := newTestEnricher(nav, 3).Enrich(context.Background(), records)

	require.Len(t, out, 2)
	assert.Equal(t, int64(1200), out[0].Volume)
	assert.Equal(t, int64(46), out[1].Volume)
	assert.Equal(t, []string{"https://mse.test/en/symbol/KMB"}, nav.visited)
	assert.Equal(t, 1, stats.Enriched)
	assert.Zero(t, records[1].Volume, "input slice must not be mutated")
}

func TestEnrich_FailureLeavesVolume(t *testing.T) {
	nav := &fakePages{pages: map[string]string{}}
	records := []models.MStockRecord{{Symbol: "TEL", Volume: 0}}

	out, stats := newTestEnricher(nav, 3).Enrich(context.Background(), records)

	assert.Zero(t, out[0].Volume)
	assert.Equal(t, 1, stats.Failed)
}

func TestEnrich_BatchLimitsConcurrency(t *testing.T) {
	nav := &fakePages{pages: map[string]string{}, delay: 20 * time.Millisecond}
	var records []models.MStockRecord
	for _, s := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		nav.pages["https://mse.test/en/symbol/"+s] = "Volume 10"
		records = append(records, models.MStockRecord{Symbol: s})
	}

	out, stats := newTestEnricher(nav, 3).Enrich(context.Background(), records)

	assert.LessOrEqual(t, nav.peak.Load(), int32(3))
	assert.Equal(t, 7, stats.Enriched)
	for _, r := range out {
		assert.Equal(t, int64(10), r.Volume)
	}
}

func TestEnrich_CancelledContextSkips(t *testing.T) {
	nav := &fakePages{pages: map[string]string{}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, stats := newTestEnricher(nav, 2).Enrich(ctx, []models.MStockRecord{{Symbol: "A"}, {Symbol: "B"}})

	assert.Len(t, out, 2)
	assert.Equal(t, 2, stats.Skipped)
	assert.Empty(t, nav.visited)
}
