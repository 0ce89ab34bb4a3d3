package shopping

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-pdf/fpdf"
)

const DefaultTitle = "Shopping list"

const fontFamily = "ShoppingListFont"

//go:embed fonts/DejaVuSansCondensed.ttf
var defaultFont []byte

// Page geometry in points, A4 portrait, origin at the top left corner.
const (
	pageHeight     = 841.89
	titleX         = 200.0
	titleY         = 42.0
	titleFontSize  = 24.0
	lineX          = 75.0
	firstLineY     = 92.0
	continuedLineY = 50.0
	lineStep       = 25.0
	lineFontSize   = 16.0
	bottomLimit    = pageHeight - 40.0
)

type Options struct {
	Title string
	// FontPath overrides the embedded DejaVu Sans font with another TTF.
	FontPath string
}

// PlacedLine is a line of text positioned on a page.
type PlacedLine struct {
	Y    float64
	Text string
}

// FormatLine renders a single shopping list entry.
func FormatLine(item Item) string {
	return fmt.Sprintf("%s - %d %s", item.Name, item.Amount, item.Unit)
}

// Layout distributes items over pages. The first page always exists and
// carries the title; a new page starts whenever the next line would cross
// the bottom margin.
func Layout(items []Item) [][]PlacedLine {
	pages := [][]PlacedLine{{}}
	y := firstLineY

	for _, item := range items {
		if y > bottomLimit {
			pages = append(pages, []PlacedLine{})
			y = continuedLineY
		}

		last := len(pages) - 1
		pages[last] = append(pages[last], PlacedLine{Y: y, Text: FormatLine(item)})
		y += lineStep
	}

	return pages
}

func RenderPDF(w io.Writer, items []Item, opts Options) error {
	title := opts.Title

	if title == "" {
		title = DefaultTitle
	}

	font := defaultFont

	if opts.FontPath != "" {
		data, err := os.ReadFile(opts.FontPath)

		if err != nil {
			return fmt.Errorf("failed to load font: %w", err)
		}

		font = data
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(title, true)
	pdf.AddUTF8FontFromBytes(fontFamily, "", font)

	for i, page := range Layout(items) {
		pdf.AddPage()

		if i == 0 {
			pdf.SetFont(fontFamily, "", titleFontSize)
			pdf.Text(titleX, titleY, title)
		}

		pdf.SetFont(fontFamily, "", lineFontSize)

		for _, line := range page {
			pdf.Text(lineX, line.Y, line.Text)
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render shopping list: %w", err)
	}

	return pdf.Output(w)
}

func RenderText(w io.Writer, items []Item, opts Options) error {
	title := opts.Title

	if title == "" {
		title = DefaultTitle
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")

	for _, item := range items {
		b.WriteString(FormatLine(item))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
