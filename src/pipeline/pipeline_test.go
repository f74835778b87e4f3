package pipeline

import (
	"math"
	"sort"
	"testing"
	"time"

	"mse-observer/src/helpers"
	"mse-observer/src/models"
	"mse-observer/src/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func raw(symbol string, price, cp float64) models.MRawQuote {
	return models.MRawQuote{Symbol: symbol, Price: price, ChangePercent: cp, ObservedAt: t0}
}

func TestDeriveChange(t *testing.T) {
	assert.Equal(t, 0.0, DeriveChange(100, 0))
	assert.InDelta(t, 100-100/1.1, DeriveChange(100, 10), 1e-12)
	assert.InDelta(t, -18.13, DeriveChange(25901.80, -0.07), 0.02)
}

func TestDeriveChange_RoundTrip(t *testing.T) {
	prices := []float64{0.01, 1, 45, 440, 25901.8, 116900, 9_999_999}
	percents := []float64{-99.9, -50, -3.33, -0.07, 0.01, 1.12, 42, 99.9}
	for _, p := range prices {
		for _, cp := range percents {
			change := DeriveChange(p, cp)
			recovered := change / (p - change) * 100
			assert.InDelta(t, cp, recovered, 1e-6, "price=%v cp=%v", p, cp)
		}
	}
}

func TestRecordID_Stable(t *testing.T) {
	assert.Equal(t, RecordID("ALK"), RecordID("alk"))
	assert.NotEqual(t, RecordID("ALK"), RecordID("KMB"))
	assert.Len(t, RecordID("ALK"), 36)
}

func TestNormalize_ConcreteExample(t *testing.T) {
	q, err := parser.NewRowParser(parser.LocaleEN).ParseRowText("ALK 25,901.80 -0.07 %")
	require.NoError(t, err)

	rec, err := NewNormalizer().Normalize(q)
	require.NoError(t, err)
	assert.Equal(t, "ALK", rec.Symbol)
	assert.Equal(t, "Алкалоид Скопје", rec.Name)
	assert.InDelta(t, 25901.80, rec.Price, 1e-9)
	assert.InDelta(t, -0.07, rec.ChangePercent, 1e-9)
	assert.InDelta(t, -18.13, rec.Change, 0.02)
	assert.Equal(t, DeriveChange(25901.80, -0.07), rec.Change)
	assert.Equal(t, models.InstrumentStock, rec.InstrumentType)
	assert.Equal(t, RecordID("ALK"), rec.ID)
}

func TestNormalize_ValidationBoundaries(t *testing.T) {
	n := NewNormalizer()

	_, err := n.Normalize(raw("ALK", 0, 1))
	assert.True(t, helpers.IsValidationRejection(err), "price 0 must be rejected")

	_, err = n.Normalize(raw("ALK", 0.01, 1))
	assert.NoError(t, err, "price 0.01 must be accepted")

	_, err = n.Normalize(raw("ALK", 100, 150))
	assert.True(t, helpers.IsValidationRejection(err), "changePercent 150 must be rejected")

	_, err = n.Normalize(raw("ALK", 100, 99.9))
	assert.NoError(t, err, "changePercent 99.9 must be accepted")

	_, err = n.Normalize(raw("ALK", 100, -99.9))
	assert.NoError(t, err)

	_, err = n.Normalize(raw("ALK", 100, 100))
	assert.True(t, helpers.IsValidationRejection(err))

	_, err = n.Normalize(raw("ALK", 100, -100))
	assert.True(t, helpers.IsValidationRejection(err))

	_, err = n.Normalize(raw("ALK", DefaultMaxPrice, 0))
	assert.True(t, helpers.IsValidationRejection(err))

	_, err = n.Normalize(raw("ALK", -5, 0))
	assert.True(t, helpers.IsValidationRejection(err))

	_, err = n.Normalize(raw("ALK", math.NaN(), 0))
	assert.True(t, helpers.IsValidationRejection(err))

	_, err = n.Normalize(raw("ALK", math.Inf(1), 0))
	assert.True(t, helpers.IsValidationRejection(err))

	_, err = n.Normalize(raw("ALK", 100, math.NaN()))
	assert.True(t, helpers.IsValidationRejection(err))

	_, err = n.Normalize(raw("  ", 100, 0))
	var pe *helpers.ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestNormalize_Defaults(t *testing.T) {
	n := NewNormalizer()
	n.Now = func() time.Time { return t0 }

	rec, err := n.Normalize(models.MRawQuote{Symbol: "rmden24", Price: 100, Volume: -4})
	require.NoError(t, err)
	assert.Equal(t, "RMDEN24", rec.Symbol)
	assert.Equal(t, "RMDEN24 Company", rec.Name)
	assert.Equal(t, models.InstrumentBond, rec.InstrumentType)
	assert.Equal(t, int64(0), rec.Volume)
	assert.Equal(t, 0.0, rec.Change)
	assert.Equal(t, t0, rec.LastUpdated)
}

func TestNormalizeAll(t *testing.T) {
	recs, rejected := NewNormalizer().NormalizeAll([]models.MRawQuote{
		raw("ALK", 100, 1),
		raw("KMB", 0, 1),
		raw("TEL", 440, 500),
		raw("MPT", 116900, -1),
	})
	assert.Len(t, recs, 2)
	assert.Len(t, rejected, 2)
}

func record(symbol string, volume int64, at time.Time) models.MStockRecord {
	return models.MStockRecord{Symbol: symbol, Price: 10, Volume: volume, LastUpdated: at}
}

func TestDeduplicate_VolumeBeatsRecency(t *testing.T) {
	withVolume := record("ALK", 500, t0)
	newerNoVolume := record("ALK", 0, t0.Add(time.Minute))

	out := Deduplicate([]models.MStockRecord{withVolume, newerNoVolume})
	require.Len(t, out, 1)
	assert.Equal(t, int64(500), out[0].Volume)

	out = Deduplicate([]models.MStockRecord{newerNoVolume, withVolume})
	require.Len(t, out, 1)
	assert.Equal(t, int64(500), out[0].Volume)
}

func TestDeduplicate_RecencyWithinSameVolumeClass(t *testing.T) {
	older := record("KMB", 10, t0)
	newer := record("KMB", 20, t0.Add(time.Second))
	out := Deduplicate([]models.MStockRecord{older, newer})
	assert.Equal(t, int64(20), out[0].Volume)

	olderZero := record("TEL", 0, t0)
	olderZero.Price = 1
	newerZero := record("TEL", 0, t0.Add(time.Second))
	newerZero.Price = 2
	out = Deduplicate([]models.MStockRecord{newerZero, olderZero})
	assert.Equal(t, 2.0, out[0].Price)
}

func TestDeduplicate_FullTieKeepsFirstSeen(t *testing.T) {
	first := record("MPT", 7, t0)
	first.Price = 1
	second := record("MPT", 7, t0)
	second.Price = 2

	out := Deduplicate([]models.MStockRecord{first, second})
	require.Len(t, out, 1)
	assert.Equal(t, 1.0, out[0].Price)

	out = Deduplicate([]models.MStockRecord{second, first})
	assert.Equal(t, 2.0, out[0].Price)
}

func TestDeduplicate_UniqueAndSorted(t *testing.T) {
	in := []models.MStockRecord{
		record("TEL", 0, t0), record("ALK", 1, t0), record("KMB", 0, t0),
		record("ALK", 0, t0), record("TEL", 3, t0), record("ADING", 0, t0),
	}
	out := Deduplicate(in)

	symbols := make([]string, len(out))
	for i, r := range out {
		symbols[i] = r.Symbol
	}
	assert.Equal(t, []string{"ADING", "ALK", "KMB", "TEL"}, symbols)
	assert.True(t, sort.StringsAreSorted(symbols))

	assert.Empty(t, Deduplicate(nil))
}
