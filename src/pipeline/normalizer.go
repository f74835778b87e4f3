// Package pipeline validates parsed quotes and reduces them to one canonical
// record per symbol.
package pipeline

import (
	"math"
	"strings"
	"time"

	"mse-observer/src/catalog"
	"mse-observer/src/helpers"
	"mse-observer/src/models"
	"mse-observer/src/parser"

	"github.com/google/uuid"
)

// Sanity bounds. Prices are MKD.
const (
	DefaultMaxPrice         = 10_000_000.0
	DefaultMaxChangePercent = 100.0
)

var recordNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://www.mse.mk"))

// RecordID is the stable identifier of a symbol's record.
func RecordID(symbol string) string {
	return uuid.NewSHA1(recordNamespace, []byte(strings.ToUpper(symbol))).String()
}

// -----------------------------------------------------------------------------

// DeriveChange inverts a percentage change back to the absolute change from
// the previous price: price - price/(1+cp/100). cp == 0 yields exactly 0.
func DeriveChange(price, changePercent float64) float64 {
	if changePercent == 0 {
		return 0
	}
	return price - price/(1+changePercent/100)
}

// -----------------------------------------------------------------------------

// Normalizer turns raw quotes into validated records.
type Normalizer struct {
	Classifier       parser.InstrumentClassifier
	NameOf           func(symbol string) string
	MaxPrice         float64
	MaxChangePercent float64
	Now              func() time.Time
}

func NewNormalizer() *Normalizer {
	return &Normalizer{
		Classifier:       parser.DefaultClassifier,
		NameOf:           catalog.CompanyName,
		MaxPrice:         DefaultMaxPrice,
		MaxChangePercent: DefaultMaxChangePercent,
		Now:              time.Now,
	}
}

// -----------------------------------------------------------------------------

// Normalize validates raw and derives the canonical record. A failed sanity
// bound yields *helpers.ValidationRejection; a missing symbol yields
// *helpers.ParseError.
func (n *Normalizer) Normalize(raw models.MRawQuote) (models.MStockRecord, error) {
	symbol := strings.ToUpper(strings.TrimSpace(raw.Symbol))
	if symbol == "" {
		return models.MStockRecord{}, helpers.NewParseError(raw.Symbol, "empty symbol")
	}

	price := raw.Price
	switch {
	case math.IsNaN(price) || math.IsInf(price, 0):
		return models.MStockRecord{}, helpers.NewValidationRejection(symbol, "price", price, "is not finite")
	case price <= 0:
		return models.MStockRecord{}, helpers.NewValidationRejection(symbol, "price", price, "must be positive")
	case price >= n.MaxPrice:
		return models.MStockRecord{}, helpers.NewValidationRejection(symbol, "price", price, "exceeds sanity bound")
	}

	cp := raw.ChangePercent
	if math.IsNaN(cp) || math.IsInf(cp, 0) || math.Abs(cp) >= n.MaxChangePercent {
		return models.MStockRecord{}, helpers.NewValidationRejection(symbol, "changePercent", cp, "outside sanity bound")
	}

	volume := raw.Volume
	if volume < 0 {
		volume = 0
	}

	observed := raw.ObservedAt
	if observed.IsZero() {
		observed = n.Now()
	}

	return models.MStockRecord{
		ID:             RecordID(symbol),
		Symbol:         symbol,
		Name:           n.NameOf(symbol),
		Price:          price,
		Change:         DeriveChange(price, cp),
		ChangePercent:  cp,
		Volume:         volume,
		InstrumentType: n.Classifier.Classify(symbol),
		LastUpdated:    observed.UTC(),
	}, nil
}

// -----------------------------------------------------------------------------

// NormalizeAll normalizes every quote and returns the accepted records along
// with the per-row failures.
func (n *Normalizer) NormalizeAll(raws []models.MRawQuote) ([]models.MStockRecord, []error) {
	records := make([]models.MStockRecord, 0, len(raws))
	var rejected []error
	for _, raw := range raws {
		rec, err := n.Normalize(raw)
		if err != nil {
			rejected = append(rejected, err)
			continue
		}
		records = append(records, rec)
	}
	return records, rejected
}
