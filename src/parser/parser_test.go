package parser

import (
	"testing"
	"time"

	"mse-observer/src/helpers"
	"mse-observer/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber_EN(t *testing.T) {
	cases := map[string]float64{
		"25,901.80":       25901.80,
		"1,234,567":       1234567,
		"1,234":           1234,
		"0,07":            0.07,
		"-0.07 %":         -0.07,
		"−1.5":            -1.5,
		"+3.20%":          3.20,
		"12":              12,
		"  440,00 МКД ":   440.00,
		"25 901.80":       25901.80,
		"1.234.567":       1234567,
		"Volume: 1,200":   1200,
		"abc":             0,
		"":                0,
		"-":               0,
		"..,":             0,
		"12.5 / 13.0":     12.5,
		"25,901.80 -0.07": 25901.80,
	}
	for in, want := range cases {
		assert.InDelta(t, want, ParseNumber(in), 1e-9, "input %q", in)
	}
}

func TestParseNumber_MK(t *testing.T) {
	mk := LocaleMK
	assert.InDelta(t, 25901.80, mk.ParseNumber("25.901,80"), 1e-9)
	assert.InDelta(t, 1234, mk.ParseNumber("1.234"), 1e-9)
	assert.InDelta(t, 12.5, mk.ParseNumber("12,5"), 1e-9)
	assert.InDelta(t, 12.5, mk.ParseNumber("12.5"), 1e-9)
	assert.InDelta(t, -0.07, mk.ParseNumber("-0,07 %"), 1e-9)
	assert.InDelta(t, 1234567.5, mk.ParseNumber("1 234 567,5"), 1e-9)
}

func TestLocaleFromString(t *testing.T) {
	assert.Equal(t, LocaleMK, LocaleFromString("MK"))
	assert.Equal(t, LocaleEN, LocaleFromString("en"))
	assert.Equal(t, LocaleEN, LocaleFromString("whatever"))
}

func TestClassifyInstrument(t *testing.T) {
	assert.Equal(t, models.InstrumentBond, ClassifyInstrument("RMDEN24"))
	assert.Equal(t, models.InstrumentStock, ClassifyInstrument("ALK"))
	// A digit-leading symbol is treated as a bond even if it is an equity.
	assert.Equal(t, models.InstrumentBond, ClassifyInstrument("7ELEVEN"))
	assert.Equal(t, models.InstrumentBond, ClassifyInstrument("rmden21"))
	assert.Equal(t, models.InstrumentStock, ClassifyInstrument(""))
}

func TestPrefixClassifier_Custom(t *testing.T) {
	c := PrefixClassifier{Prefixes: []string{"DS"}, DigitLeading: false}
	assert.Equal(t, models.InstrumentBond, c.Classify("DSS"))
	assert.Equal(t, models.InstrumentStock, c.Classify("7ELEVEN"))
	assert.Equal(t, models.InstrumentStock, c.Classify("RMDEN24"))
}

func fixedParser(locale Locale) *RowParser {
	p := NewRowParser(locale)
	p.Now = func() time.Time { return time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC) }
	return p
}

func TestParseRowText_ConcreteExample(t *testing.T) {
	q, err := fixedParser(LocaleEN).ParseRowText("ALK 25,901.80 -0.07 %")
	require.NoError(t, err)
	assert.Equal(t, "ALK", q.Symbol)
	assert.InDelta(t, 25901.80, q.Price, 1e-9)
	assert.InDelta(t, -0.07, q.ChangePercent, 1e-9)
	assert.Equal(t, int64(0), q.Volume)
	assert.Equal(t, time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC), q.ObservedAt)
}

func TestParseRowText_Rejects(t *testing.T) {
	p := fixedParser(LocaleEN)
	for _, line := range []string{"", "ALK", "Шифра Цена Промена", "ALK price -0.07 %"} {
		_, err := p.ParseRowText(line)
		require.Error(t, err, "line %q", line)
		var pe *helpers.ParseError
		assert.ErrorAs(t, err, &pe)
	}
}

func TestParseCells(t *testing.T) {
	p := fixedParser(LocaleEN)

	q, err := p.ParseCells([]string{" kmb ", "27,200.00", "+1.12 %", "1,540"})
	require.NoError(t, err)
	assert.Equal(t, "KMB", q.Symbol)
	assert.InDelta(t, 27200.0, q.Price, 1e-9)
	assert.InDelta(t, 1.12, q.ChangePercent, 1e-9)
	assert.Equal(t, int64(1540), q.Volume)

	q, err = p.ParseCells([]string{"TEL", "440", "0.00"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), q.Volume)

	_, err = p.ParseCells([]string{"Шифра", "Цена", "%"})
	assert.Error(t, err)

	_, err = p.ParseCells([]string{"ALK", "-", "0.1"})
	assert.Error(t, err)

	_, err = p.ParseCells([]string{"ALK", "100"})
	assert.Error(t, err)

	_, err = p.ParseCells([]string{"A LK!", "100", "1"})
	assert.Error(t, err)
}

func TestParseCells_NegativeVolumeIsZero(t *testing.T) {
	q, err := fixedParser(LocaleEN).ParseCells([]string{"ALK", "100", "1", "-5"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), q.Volume)

	q, err = fixedParser(LocaleEN).ParseCells([]string{"ALK", "100", "1", "99999999999999999999999"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), q.Volume)
}
