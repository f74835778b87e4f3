package enrichment

import (
	"regexp"
	"strconv"
	"strings"
)

// VolumePolicy picks the traded share count out of a detail page's text.
// It returns 0 when no plausible figure is present.
type VolumePolicy interface {
	Select(text string) int64
}

// DefaultLabels are the English and Macedonian labels that precede a
// volume figure on MSE detail pages, in match order.
var DefaultLabels = []string{
	"trading volume",
	"last quantity",
	"volume",
	"količina",
	"количина",
	"promet",
	"turnover",
}

// -----------------------------------------------------------------------------

// SmallestPlausible collects every labelled number within [Min, Max] and
// returns the smallest one. Turnover figures are monetary and usually larger
// than share counts, so they tend to fall out of range or lose to the count.
type SmallestPlausible struct {
	Patterns []*regexp.Regexp
	Min      int64
	Max      int64
}

func NewSmallestPlausible(labels []string, min, max int64) *SmallestPlausible {
	patterns := make([]*regexp.Regexp, 0, len(labels))
	for _, label := range labels {
		patterns = append(patterns, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(label)+`[:\s]+([0-9][0-9,.]*)`))
	}
	return &SmallestPlausible{Patterns: patterns, Min: min, Max: max}
}

// -----------------------------------------------------------------------------

// Candidates returns every in-range figure found, in pattern order.
func (p *SmallestPlausible) Candidates(text string) []int64 {
	var out []int64
	for _, re := range p.Patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			v, ok := digitsOnly(m[1])
			if !ok {
				continue
			}
			if v >= p.Min && v <= p.Max {
				out = append(out, v)
			}
		}
	}
	return out
}

// -----------------------------------------------------------------------------

func (p *SmallestPlausible) Select(text string) int64 {
	var best int64
	for _, v := range p.Candidates(text) {
		if best == 0 || v < best {
			best = v
		}
	}
	return best
}

// -----------------------------------------------------------------------------

func digitsOnly(s string) (int64, bool) {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 || b.Len() > 18 {
		return 0, false
	}
	v, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
