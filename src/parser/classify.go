package parser

import (
	"strings"

	"mse-observer/src/models"
)

// InstrumentClassifier decides whether a symbol is a stock or a bond.
// The default rule is a heuristic and can be swapped per deployment.
type InstrumentClassifier interface {
	Classify(symbol string) models.InstrumentType
}

// -----------------------------------------------------------------------------

// PrefixClassifier marks a symbol as a bond when it starts with one of
// Prefixes or, if DigitLeading is set, with a digit.
type PrefixClassifier struct {
	Prefixes     []string
	DigitLeading bool
}

// DefaultClassifier matches government bond codes such as RMDEN24.
var DefaultClassifier InstrumentClassifier = PrefixClassifier{
	Prefixes:     []string{"RM"},
	DigitLeading: true,
}

func (c PrefixClassifier) Classify(symbol string) models.InstrumentType {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return models.InstrumentStock
	}
	for _, p := range c.Prefixes {
		if strings.HasPrefix(s, strings.ToUpper(p)) {
			return models.InstrumentBond
		}
	}
	if c.DigitLeading && s[0] >= '0' && s[0] <= '9' {
		return models.InstrumentBond
	}
	return models.InstrumentStock
}

// -----------------------------------------------------------------------------

// ClassifyInstrument applies DefaultClassifier.
func ClassifyInstrument(symbol string) models.InstrumentType {
	return DefaultClassifier.Classify(symbol)
}
