package parser

import (
	"math"
	"regexp"
	"strings"
	"time"

	"mse-observer/src/helpers"
	"mse-observer/src/models"
)

var (
	symbolPattern  = regexp.MustCompile(`^[A-Z0-9]{1,12}$`)
	rowTextPattern = regexp.MustCompile(`^\s*([A-Za-z0-9]{1,12})\s+([0-9][0-9.,\s\x{00a0}]*?)\s+([-+−]?\s*[0-9][0-9.,]*)\s*%?\s*$`)
	digitPattern   = regexp.MustCompile(`[0-9]`)
)

// headerLabels are first-cell values of non-data rows on the listing table.
var headerLabels = map[string]bool{
	"ШИФРА":  true,
	"SYMBOL": true,
	"CODE":   true,
}

// -----------------------------------------------------------------------------

// RowParser turns untrusted listing text into raw quotes.
type RowParser struct {
	Locale Locale
	Now    func() time.Time
}

func NewRowParser(locale Locale) *RowParser {
	return &RowParser{Locale: locale, Now: time.Now}
}

// -----------------------------------------------------------------------------

// NormalizeSymbol trims and uppercases a symbol and checks its shape.
func NormalizeSymbol(raw string) (string, error) {
	s := strings.ToUpper(strings.Join(strings.Fields(raw), ""))
	if headerLabels[s] {
		return "", helpers.NewParseError(raw, "header row")
	}
	if !symbolPattern.MatchString(s) {
		return "", helpers.NewParseError(raw, "not a ticker symbol")
	}
	return s, nil
}

// -----------------------------------------------------------------------------

// ParseCells parses a table row laid out as symbol, price, change %, volume.
// The volume cell is optional.
func (p *RowParser) ParseCells(cells []string) (models.MRawQuote, error) {
	if len(cells) < 3 {
		return models.MRawQuote{}, helpers.NewParseError(strings.Join(cells, " | "), "expected at least 3 cells")
	}

	symbol, err := NormalizeSymbol(cells[0])
	if err != nil {
		return models.MRawQuote{}, err
	}
	if !digitPattern.MatchString(cells[1]) {
		return models.MRawQuote{}, helpers.NewParseError(cells[1], "price cell has no digits")
	}

	quote := models.MRawQuote{
		Symbol:        symbol,
		Price:         p.Locale.ParseNumber(cells[1]),
		ChangePercent: p.Locale.ParseNumber(cells[2]),
		ObservedAt:    p.Now().UTC(),
	}
	if len(cells) > 3 {
		quote.Volume = toVolume(p.Locale.ParseNumber(cells[3]))
	}
	return quote, nil
}

// -----------------------------------------------------------------------------

// ParseRowText parses a flattened row such as "ALK 25,901.80 -0.07 %".
func (p *RowParser) ParseRowText(line string) (models.MRawQuote, error) {
	m := rowTextPattern.FindStringSubmatch(line)
	if m == nil {
		return models.MRawQuote{}, helpers.NewParseError(line, "unrecognised row layout")
	}
	return p.ParseCells([]string{m[1], m[2], m[3]})
}

// -----------------------------------------------------------------------------

func toVolume(v float64) int64 {
	if v <= 0 || v >= math.MaxInt64 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int64(math.Round(v))
}
