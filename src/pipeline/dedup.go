package pipeline

import (
	"sort"

	"mse-observer/src/models"
)

// Prefer reports whether candidate should replace incumbent for the same
// symbol: a record with volume beats one without; otherwise the strictly
// newer observation wins. Full ties keep the incumbent.
func Prefer(candidate, incumbent models.MStockRecord) bool {
	candHasVolume := candidate.Volume > 0
	incHasVolume := incumbent.Volume > 0
	if candHasVolume != incHasVolume {
		return candHasVolume
	}
	return candidate.LastUpdated.After(incumbent.LastUpdated)
}

// -----------------------------------------------------------------------------

// Deduplicate keeps one record per symbol and returns them sorted by symbol.
func Deduplicate(records []models.MStockRecord) []models.MStockRecord {
	best := make(map[string]models.MStockRecord, len(records))
	for _, r := range records {
		current, ok := best[r.Symbol]
		if !ok || Prefer(r, current) {
			best[r.Symbol] = r
		}
	}

	out := make([]models.MStockRecord, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	SortBySymbol(out)
	return out
}

// -----------------------------------------------------------------------------

// SortBySymbol orders records ascending by symbol in place.
func SortBySymbol(records []models.MStockRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Symbol < records[j].Symbol
	})
}
