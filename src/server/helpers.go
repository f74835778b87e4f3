package server

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"mse-observer/src/models"
)

// -----------------------------------------------------------------------------

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func normalizeSymbols(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = normalizeSymbol(s); s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

// -----------------------------------------------------------------------------

// parseDays accepts an empty value (meaning the default) or an integer.
func parseDays(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("days must be an integer, got %q", raw)
	}
	return days, nil
}

// -----------------------------------------------------------------------------

// filterSnapshot keeps only the listed symbols. An empty filter keeps all.
func filterSnapshot(snap models.MSnapshot, symbols []string) models.MSnapshot {
	out := snap
	if len(symbols) == 0 {
		out.Stocks = append([]models.MStockRecord(nil), snap.Stocks...)
		return out
	}
	out.Stocks = make([]models.MStockRecord, 0, len(symbols))
	for _, r := range snap.Stocks {
		if slices.Contains(symbols, r.Symbol) {
			out.Stocks = append(out.Stocks, r)
		}
	}
	return out
}
