package datasource

import (
	"context"
	"fmt"
	"strings"

	"mse-observer/src/catalog"
	"mse-observer/src/interfaces"
	"mse-observer/src/models"
	"mse-observer/src/parser"
	"mse-observer/src/pipeline"
)

// DiscoverAll lists every known instrument: active quotes from the snapshot,
// then the last stored quote, then a zero-priced placeholder. Symbols in the
// snapshot but missing from the catalog are included too. Sorted by symbol.
func DiscoverAll(ctx context.Context, snapshot models.MSnapshot, store interfaces.IStockStore, universe []string) []models.MStockRecord {
	bySymbol := make(map[string]models.MStockRecord, len(universe)+len(snapshot.Stocks))
	for _, r := range snapshot.Stocks {
		bySymbol[r.Symbol] = r
	}

	storeUp := store != nil && store.Ping(ctx) == nil
	for _, sym := range universe {
		if _, ok := bySymbol[sym]; ok {
			continue
		}
		if storeUp {
			if stored, err := store.GetBySymbol(ctx, sym); err == nil && stored != nil {
				bySymbol[sym] = *stored
				continue
			}
		}
		bySymbol[sym] = placeholder(sym)
	}

	out := make([]models.MStockRecord, 0, len(bySymbol))
	for _, r := range bySymbol {
		out = append(out, r)
	}
	pipeline.SortBySymbol(out)
	return out
}

// -----------------------------------------------------------------------------

func placeholder(symbol string) models.MStockRecord {
	return models.MStockRecord{
		ID:             pipeline.RecordID(symbol),
		Symbol:         symbol,
		Name:           catalog.CompanyName(symbol),
		InstrumentType: parser.ClassifyInstrument(symbol),
	}
}

// -----------------------------------------------------------------------------

// Detail decorates a record with catalog metadata.
func Detail(r models.MStockRecord) models.MStockDetail {
	d := models.MStockDetail{
		MStockRecord: r,
		ISIN:         catalog.ISIN(r.Symbol),
		Currency:     "MKD",
	}
	if e, ok := catalog.Lookup(r.Symbol); ok {
		d.Sector = e.Sector
	}

	kind := "shares"
	if r.InstrumentType == models.InstrumentBond {
		kind = "bonds"
	}
	d.Description = fmt.Sprintf("%s %s listed on the Macedonian Stock Exchange under %s.", r.Name, kind, strings.ToUpper(r.Symbol))
	return d
}
