package synthetic

import (
	"testing"
	"time"

	"mse-observer/src/catalog"
	"mse-observer/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_DeterministicForSeed(t *testing.T) {
	t1 := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	a := NewGenerator(42).Generate(t1)
	b := NewGenerator(42).Generate(t2)

	require.Len(t, a, len(catalog.Priced()))
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Symbol, b[i].Symbol)
		assert.Equal(t, a[i].Price, b[i].Price)
		assert.Equal(t, a[i].ChangePercent, b[i].ChangePercent)
		assert.Equal(t, a[i].Volume, b[i].Volume)
	}
	assert.Equal(t, t2, b[0].LastUpdated)
}

func TestGenerate_DifferentSeedsDiffer(t *testing.T) {
	now := time.Now()
	a := NewGenerator(1).Generate(now)
	b := NewGenerator(2).Generate(now)
	assert.NotEqual(t, a[0].Price, b[0].Price)
}

func TestGenerate_RecordsAreValidAndSorted(t *testing.T) {
	records := NewGenerator(20240101).Generate(time.Now())

	seen := map[string]bool{}
	for i, r := range records {
		assert.False(t, seen[r.Symbol], "duplicate %s", r.Symbol)
		seen[r.Symbol] = true
		if i > 0 {
			assert.Less(t, records[i-1].Symbol, r.Symbol)
		}

		entry, ok := catalog.Lookup(r.Symbol)
		require.True(t, ok)
		assert.InDelta(t, entry.BasePrice, r.Price, entry.BasePrice*0.05+0.01)
		assert.LessOrEqual(t, r.ChangePercent, 3.0)
		assert.GreaterOrEqual(t, r.ChangePercent, -3.0)
		assert.GreaterOrEqual(t, r.Volume, int64(10000))
		assert.NotEmpty(t, r.ID)
	}
}

func TestGenerate_BondsClassified(t *testing.T) {
	for _, r := range NewGenerator(7).Generate(time.Now()) {
		if r.Symbol[:2] == "RM" {
			assert.Equal(t, models.InstrumentBond, r.InstrumentType)
		}
	}
}

func TestHistory_WeekdaysOnly(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	points := NewGenerator(3).History("ALK", 25900, 14, now)

	require.NotEmpty(t, points)
	for i, p := range points {
		wd := p.Timestamp.Weekday()
		assert.NotEqual(t, time.Saturday, wd)
		assert.NotEqual(t, time.Sunday, wd)
		assert.Greater(t, p.Price, 0.0)
		if i > 0 {
			assert.True(t, points[i-1].Timestamp.Before(p.Timestamp))
		}
	}
	assert.Len(t, points, 11)
	assert.Nil(t, NewGenerator(3).History("ALK", 25900, 0, now))
}

func TestHistory_SimilarSymbolsWalkDifferently(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	g := NewGenerator(3)

	kmb := g.History("KMB", 100, 14, now)
	kom := g.History("KOM", 100, 14, now)
	require.Equal(t, len(kmb), len(kom))

	same := true
	for i := range kmb {
		if kmb[i].ChangePercent != kom[i].ChangePercent {
			same = false
			break
		}
	}
	assert.False(t, same)
	assert.Equal(t, kmb, g.History("KMB", 100, 14, now))
}
