// Package navigator fetches exchange pages and reduces them to untrusted
// row cells or body text. All knowledge of page markup lives here.
package navigator

import (
	"errors"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrSelectorNotFound means the page no longer contains the expected table.
var ErrSelectorNotFound = errors.New("selector matched no elements")

var whitespaceRun = regexp.MustCompile(`\s+`)

// -----------------------------------------------------------------------------

// ExtractRows returns the trimmed cell texts of every tr under selector that
// has at least one td. Header rows made only of th cells are skipped.
func ExtractRows(html string, selector string) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	root := doc.Find(selector)
	if root.Length() == 0 {
		return nil, ErrSelectorNotFound
	}

	var rows [][]string
	root.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		tds := tr.Find("td")
		if tds.Length() == 0 {
			return
		}
		cells := make([]string, 0, tds.Length())
		tds.Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, cleanText(td.Text()))
		})
		rows = append(rows, cells)
	})
	return rows, nil
}

// -----------------------------------------------------------------------------

// ExtractText returns the body text with scripts and styles removed and
// whitespace collapsed.
func ExtractText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript").Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		return cleanText(doc.Text()), nil
	}

	// Cells and blocks would otherwise run together.
	body.Find("td, th, div, p, li, span, br").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	return cleanText(body.Text()), nil
}

// -----------------------------------------------------------------------------

func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
