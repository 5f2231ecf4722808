package pdftext

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casillero-backend/classifier"
	"casillero-backend/models"
)

// textRun is one Tj drawn at an absolute position
type textRun struct {
	x, y int
	s    string
}

// buildPDF writes a single page PDF with one absolutely positioned Tj per line
func buildPDF(lines ...string) []byte {
	runs := make([]textRun, 0, len(lines))
	for i, line := range lines {
		runs = append(runs, textRun{x: 72, y: 720 - 16*i, s: line})
	}
	return buildRunsPDF(runs...)
}

// buildRunsPDF writes a single page PDF with one Tj per run
func buildRunsPDF(runs ...textRun) []byte {
	var content strings.Builder
	content.WriteString("BT /F1 12 Tf ")
	for _, r := range runs {
		fmt.Fprintf(&content, "1 0 0 1 %d %d Tm (%s) Tj ", r.x, r.y, r.s)
	}
	content.WriteString("ET")
	stream := content.String()

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf strings.Builder
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return []byte(buf.String())
}

func TestFirstPages(t *testing.T) {
	data := buildPDF(
		"CORTE SUPREMA DE JUSTICIA",
		"SEGUNDA SALA",
		"QUEJA 123-2023",
		"LIMA",
		"PAGO DE BENEFICIOS Y OTROS",
	)

	pages, err := NewExtractor().FirstPages(data, 1)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, []string{
		"CORTE SUPREMA DE JUSTICIA",
		"SEGUNDA SALA",
		"QUEJA 123-2023",
		"LIMA",
		"PAGO DE BENEFICIOS Y OTROS",
	}, pages[0])
}

func TestFirstPages_ClampsToPageCount(t *testing.T) {
	pages, err := NewExtractor().FirstPages(buildPDF("una linea"), 3)
	require.NoError(t, err)
	assert.Len(t, pages, 1)
}

func TestFirstPages_ZeroPagesRequested(t *testing.T) {
	_, err := NewExtractor().FirstPages(buildPDF("una linea"), 0)
	assert.ErrorIs(t, err, ErrNoPages)
}

func TestFullText(t *testing.T) {
	text, err := NewExtractor().FullText(buildPDF("SE RESUELVE", "DECLARARON FUNDADA la demanda"))
	require.NoError(t, err)
	assert.Equal(t, "SE RESUELVE\nDECLARARON FUNDADA la demanda", text)
}

func TestFullText_WordPerRun(t *testing.T) {
	data := buildRunsPDF(
		textRun{x: 72, y: 720, s: "CORTE"},
		textRun{x: 130, y: 720, s: "SUPREMA"},
		textRun{x: 72, y: 704, s: "VISTOS"},
		textRun{x: 130, y: 704, s: "los"},
		textRun{x: 160, y: 704, s: "autos"},
		textRun{x: 210, y: 704, s: "y"},
		textRun{x: 230, y: 704, s: "CONSIDERANDO"},
		textRun{x: 72, y: 688, s: "SE"},
		textRun{x: 100, y: 688, s: "RESUELVE"},
		textRun{x: 72, y: 672, s: "DECLARARON"},
		textRun{x: 200, y: 672, s: "FUNDADA"},
		textRun{x: 300, y: 672, s: "la"},
		textRun{x: 340, y: 672, s: "demanda"},
	)

	text, err := NewExtractor().FullText(data)
	require.NoError(t, err)
	assert.Equal(t, "CORTE SUPREMA\nVISTOS los autos y CONSIDERANDO\nSE RESUELVE\nDECLARARON FUNDADA la demanda", text)
	assert.Equal(t, models.OutcomeUpheld, classifier.ClassifyOutcome(text).Label)
}

func TestMalformedInput(t *testing.T) {
	e := NewExtractor()

	_, err := e.FullText([]byte("this is not a pdf"))
	assert.Error(t, err)

	_, err = e.FirstPages([]byte("this is not a pdf"), 1)
	assert.Error(t, err)

	_, err = e.FullText(nil)
	assert.ErrorIs(t, err, ErrNoPages)
}

func TestJoinRow(t *testing.T) {
	tests := []struct {
		name  string
		texts pdf.TextHorizontal
		want  string
	}{
		{"empty", nil, ""},
		{
			name: "gap becomes space",
			texts: pdf.TextHorizontal{
				{S: "LIMA", X: 100, W: 30, FontSize: 12},
				{S: "PERU", X: 140, W: 30, FontSize: 12},
			},
			want: "LIMA PERU",
		},
		{
			name: "adjacent glyphs stay joined",
			texts: pdf.TextHorizontal{
				{S: "Q", X: 10, W: 8, FontSize: 12},
				{S: "U", X: 18, W: 8, FontSize: 12},
			},
			want: "QU",
		},
		{
			name: "sorted by x",
			texts: pdf.TextHorizontal{
				{S: "SALA", X: 200, W: 30, FontSize: 12},
				{S: "SEGUNDA", X: 100, W: 60, FontSize: 12},
			},
			want: "SEGUNDA SALA",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, joinRow(tt.texts))
		})
	}
}
