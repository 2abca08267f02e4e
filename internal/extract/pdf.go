package extract

import (
	"bytes"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfStrategies lists PDF parsers in order of preference.
var pdfStrategies = []strategy{
	{name: "pdf rows", run: pdfByRows},
	{name: "pdf pages", run: pdfByPages},
	{name: "pdf document", run: pdfDocument},
}

func extractPDF(data []byte) (string, []string, error) {
	return firstSuccess(pdfStrategies, data, hasText)
}

func openPDF(data []byte) (*pdf.Reader, error) {
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

// pdfByRows rebuilds each page line by line from positioned text runs.
// Pages whose runs carry no position fall back to their plain text.
func pdfByRows(data []byte) (string, error) {
	r, err := openPDF(data)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", err
		}
		if !positioned(rows) {
			text, err := page.GetPlainText(nil)
			if err != nil {
				return "", err
			}
			b.WriteString(text)
			b.WriteString("\n")
			continue
		}
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				if w := strings.TrimSpace(word.S); w != "" {
					words = append(words, w)
				}
			}
			if len(words) == 0 {
				continue
			}
			b.WriteString(strings.Join(words, " "))
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

// positioned reports whether any row sits off the origin. The reader places rows only
// from Tm operators, so content laid out with Td alone collapses into one row at 0.
func positioned(rows pdf.Rows) bool {
	for _, row := range rows {
		if row.Position != 0 {
			return true
		}
	}
	return false
}

// pdfByPages concatenates the plain text of every page.
func pdfByPages(data []byte) (string, error) {
	r, err := openPDF(data)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", err
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func pdfDocument(data []byte) (string, error) {
	r, err := openPDF(data)
	if err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}
