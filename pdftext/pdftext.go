// Package pdftext turns ruling PDFs into plain text and first page lines.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoPages is returned when a document has no readable pages
var ErrNoPages = errors.New("pdf has no readable pages")

// wordGap is the horizontal gap, as a fraction of the font size, above which
// two glyph runs on a row are treated as separate words
const wordGap = 0.2

// Extractor implements the text extraction boundary on top of ledongthuc/pdf
type Extractor struct{}

// NewExtractor creates a PDF text extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// FullText returns the text of every page, one row per line and pages
// separated by a newline. Words are split where glyph runs leave a gap, so
// text drawn one word at a time keeps its spaces. Pages that fail to decode
// contribute nothing; only a document that cannot be opened is an error.
func (e *Extractor) FullText(data []byte) (string, error) {
	r, err := open(data)
	if err != nil {
		return "", err
	}

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		pages = append(pages, strings.Join(pageLines(r.Page(i)), "\n"))
	}
	return strings.Join(pages, "\n"), nil
}

// FirstPages returns the text rows of the first n pages, top to bottom.
// It returns ErrNoPages when nothing could be read.
func (e *Extractor) FirstPages(data []byte, n int) ([][]string, error) {
	r, err := open(data)
	if err != nil {
		return nil, err
	}

	total := r.NumPage()
	if n > total {
		n = total
	}

	var pages [][]string
	for i := 1; i <= n; i++ {
		pages = append(pages, pageLines(r.Page(i)))
	}
	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	return pages, nil
}

func open(data []byte) (r *pdf.Reader, err error) {
	if len(data) == 0 {
		return nil, ErrNoPages
	}
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, fmt.Errorf("failed to open pdf: %v", p)
		}
	}()

	r, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	return r, nil
}

func pageLines(p pdf.Page) (lines []string) {
	lines = []string{}
	if p.V.IsNull() {
		return lines
	}
	defer func() {
		if recover() != nil {
			lines = []string{}
		}
	}()

	rows, err := p.GetTextByRow()
	if err != nil {
		return lines
	}
	// PDF y grows upwards
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Position > rows[j].Position
	})

	for _, row := range rows {
		if line := joinRow(row.Content); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func joinRow(texts pdf.TextHorizontal) string {
	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].X < sorted[j].X
	})

	var sb strings.Builder
	for i, t := range sorted {
		if i > 0 {
			prev := sorted[i-1]
			gap := t.X - (prev.X + prev.W)
			if gap > wordGap*t.FontSize && !strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(t.S, " ") {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(t.S)
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
