package portal

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Column returns the trimmed text of the nth (1-based) cell of every body
// row in the table HTML. Placeholder rows rendered by DataTables for empty
// tables are ignored.
func Column(html string, n int) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("ler tabela: %w", err)
	}
	values := make([]string, 0)
	doc.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		if row.Find("td.dataTables_empty").Length() > 0 {
			return
		}
		cell := row.Find(fmt.Sprintf("td:nth-child(%d)", n))
		if cell.Length() == 0 {
			return
		}
		values = append(values, strings.TrimSpace(cell.First().Text()))
	})
	return values, nil
}

// InputValues returns the value attribute of every input matched by selector.
func InputValues(html, selector string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("ler HTML: %w", err)
	}
	values := make([]string, 0)
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr("value"); ok && v != "" {
			values = append(values, v)
		}
	})
	return values, nil
}

// RowInputs maps the trimmed text of each row's nth cell to the value of the
// first input in the same row.
func RowInputs(html string, n int) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("ler tabela: %w", err)
	}
	out := make(map[string]string)
	doc.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		key := strings.TrimSpace(row.Find(fmt.Sprintf("td:nth-child(%d)", n)).First().Text())
		value, ok := row.Find("input").First().Attr("value")
		if key != "" && ok {
			out[key] = value
		}
	})
	return out, nil
}
