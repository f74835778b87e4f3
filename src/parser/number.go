package parser

import (
	"strconv"
	"strings"
	"unicode"
)

// Locale selects how a lone separator is read.
type Locale string

const (
	// LocaleEN reads comma as thousands and dot as decimal point.
	LocaleEN Locale = "en"
	// LocaleMK reads dot as thousands and comma as decimal point.
	LocaleMK Locale = "mk"
)

// LocaleFromString maps a config value to a Locale, defaulting to LocaleEN.
func LocaleFromString(s string) Locale {
	if strings.EqualFold(strings.TrimSpace(s), string(LocaleMK)) {
		return LocaleMK
	}
	return LocaleEN
}

// -----------------------------------------------------------------------------

// ParseNumber parses text using LocaleEN.
func ParseNumber(text string) float64 {
	return LocaleEN.ParseNumber(text)
}

// -----------------------------------------------------------------------------

// ParseNumber extracts a number from free text. It never fails: anything
// unparseable yields 0.
//
// When both separators occur the last one is the decimal point. A separator
// that repeats is a thousands separator. A single separator is a thousands
// separator only when it belongs to the locale and is followed by exactly
// three digits; otherwise it is the decimal point.
func (l Locale) ParseNumber(text string) float64 {
	var b strings.Builder
	negative := false
	seenDigit := false

scan:
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
			seenDigit = true
			b.WriteRune(r)
		case r == '.' || r == ',':
			if seenDigit {
				b.WriteRune(r)
			}
		case (r == '-' || r == '−') && !seenDigit:
			negative = true
		case unicode.IsSpace(r) || r == '\'':
			// grouping whitespace
		default:
			if seenDigit {
				// first token only
				break scan
			}
			negative = false
		}
	}
	cleaned := strings.TrimRight(b.String(), ".,")
	if cleaned == "" {
		return 0
	}

	cleaned = normalizeSeparators(cleaned, l)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	if negative {
		v = -v
	}
	return v
}

// -----------------------------------------------------------------------------

func normalizeSeparators(s string, l Locale) string {
	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")

	switch {
	case commas == 0 && dots == 0:
		return s

	case commas > 0 && dots > 0:
		lastComma := strings.LastIndex(s, ",")
		lastDot := strings.LastIndex(s, ".")
		if lastComma > lastDot {
			return strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")

	case commas > 1:
		return strings.ReplaceAll(s, ",", "")

	case dots > 1:
		return strings.ReplaceAll(s, ".", "")
	}

	sep := ","
	if dots == 1 {
		sep = "."
	}
	thousands := ","
	if l == LocaleMK {
		thousands = "."
	}

	idx := strings.Index(s, sep)
	if sep == thousands && len(s)-idx-1 == 3 {
		return strings.Replace(s, sep, "", 1)
	}
	return strings.Replace(s, sep, ".", 1)
}
