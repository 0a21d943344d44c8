// internal/verify/normalize.go
package verify

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Label fragments routed into dedicated fields, matched case-insensitively
var (
	authorizedUserLabels = []string{"authorized gi user"}
	artisanLabels        = []string{"artisan", "weaver"}
)

// Table is a results table scraped from a verification page
type Table struct {
	Rows     [][]string
	ImageURL string
}

// Normalized is the structured form of a results table
type Normalized struct {
	ImageURL       string
	Attributes     map[string]string
	AuthorizedUser string
	Artisan        string
}

// Result builds an extraction result for code from n
func (n Normalized) Result(code string) *Result {
	attrs := n.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	return &Result{
		ProductCode:    code,
		ImageURL:       n.ImageURL,
		Attributes:     attrs,
		AuthorizedUser: n.AuthorizedUser,
		Artisan:        n.Artisan,
	}
}

// Normalize turns label/value rows into structured fields. Rows with fewer
// than two non-empty cells are dropped; of the rest, the first non-empty
// cell is the label and the second the value. Later rows overwrite earlier
// ones with the same label.
func Normalize(table Table) Normalized {
	out := Normalized{
		ImageURL:   table.ImageURL,
		Attributes: map[string]string{},
	}
	fold := cases.Fold()

	for _, row := range table.Rows {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			if cell = cleanText(cell); cell != "" {
				cells = append(cells, cell)
			}
		}
		if len(cells) < 2 {
			continue
		}

		label, value := cells[0], cells[1]
		key := fold.String(label)

		switch {
		case containsAny(key, authorizedUserLabels):
			out.AuthorizedUser = value
		case containsAny(key, artisanLabels):
			out.Artisan = value
		default:
			out.Attributes[label] = value
		}
	}

	return out
}

// ParseTable reads rows and the first image out of a results table's HTML.
// A relative image source is resolved against pageURL when it parses.
func ParseTable(html, pageURL string) (Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Table{}, eris.Wrap(err, "failed to parse results table")
	}

	var table Table
	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		// Skip rows of nested tables; their parent row already carries the text.
		if tr.ParentsFiltered("tr").Length() > 0 {
			return
		}
		var cells []string
		tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, cell.Text())
		})
		table.Rows = append(table.Rows, cells)
	})

	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src == "" {
			src = strings.TrimSpace(img.AttrOr("data-src", ""))
		}
		if src == "" {
			return true
		}
		table.ImageURL = resolveURL(pageURL, src)
		return false
	})

	return table, nil
}

// cleanText applies NFKC and collapses runs of whitespace
func cleanText(s string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}

func resolveURL(base, ref string) string {
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if refURL.IsAbs() || base == "" {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}
