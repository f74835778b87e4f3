// Package synthetic produces the terminal fallback tier: seeded placeholder
// quotes for the known instrument universe. Output is always tagged mock by
// the chain and must never be mistaken for exchange data.
package synthetic

import (
	"hash/fnv"
	"math/rand"
	"time"

	"mse-observer/src/catalog"
	"mse-observer/src/models"
	"mse-observer/src/pipeline"

	"github.com/shopspring/decimal"
)

type Generator struct {
	Seed       int64
	Entries    []catalog.Entry
	Normalizer *pipeline.Normalizer
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		Seed:       seed,
		Entries:    catalog.Priced(),
		Normalizer: pipeline.NewNormalizer(),
	}
}

// -----------------------------------------------------------------------------

// Generate returns one record per priced catalog entry, sorted by symbol.
// The same seed always yields the same prices, changes and volumes; only
// LastUpdated follows now.
func (g *Generator) Generate(now time.Time) []models.MStockRecord {
	rnd := rand.New(rand.NewSource(g.Seed))
	out := make([]models.MStockRecord, 0, len(g.Entries))

	for _, e := range g.Entries {
		variation := (rnd.Float64() - 0.5) * 0.1
		price, _ := decimal.NewFromFloat(e.BasePrice * (1 + variation)).Round(2).Float64()
		cp, _ := decimal.NewFromFloat((rnd.Float64() - 0.5) * 6).Round(2).Float64()
		volume := int64(rnd.Float64()*990000*volumeMultiplier(e)) + 10000

		rec, err := g.Normalizer.Normalize(models.MRawQuote{
			Symbol:        e.Symbol,
			Price:         price,
			ChangePercent: cp,
			Volume:        volume,
			ObservedAt:    now,
		})
		if err != nil {
			continue
		}
		out = append(out, rec)
	}

	pipeline.SortBySymbol(out)
	return out
}

// -----------------------------------------------------------------------------

// History returns one point per weekday over the last days days, oldest
// first, as a seeded random walk starting at basePrice.
func (g *Generator) History(symbol string, basePrice float64, days int, now time.Time) []models.MHistoricalPricePoint {
	if days <= 0 || basePrice <= 0 || symbol == "" {
		return nil
	}
	h := fnv.New64a()
	h.Write([]byte(symbol))
	rnd := rand.New(rand.NewSource(g.Seed ^ int64(h.Sum64())))

	var points []models.MHistoricalPricePoint
	price := basePrice
	day := now.UTC().Truncate(24 * time.Hour).AddDate(0, 0, -days)
	for i := 0; i <= days; i++ {
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			cp := (rnd.Float64() - 0.5) * 4
			prev := price
			price = round2(price * (1 + cp/100))
			change := round2(price - prev)
			points = append(points, models.MHistoricalPricePoint{
				Symbol:        symbol,
				Price:         price,
				Change:        change,
				ChangePercent: round2(change / prev * 100),
				Volume:        int64(rnd.Float64()*50000) + 100,
				Timestamp:     day.Add(15 * time.Hour),
				TradingDate:   day.Format("2006-01-02"),
			})
		}
		day = day.AddDate(0, 0, 1)
	}
	return points
}

// -----------------------------------------------------------------------------

// volumeMultiplier scales synthetic activity: banks and large industrials
// trade more.
func volumeMultiplier(e catalog.Entry) float64 {
	switch {
	case e.Sector == catalog.SectorBanking:
		return 2
	case e.Sector == catalog.SectorIndustry && e.BasePrice > 10000:
		return 1.5
	default:
		return 1
	}
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
