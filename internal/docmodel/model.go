// Package docmodel defines the translation-agnostic intermediate model of a
// rich-text document. The model is built once from the source document, has
// its translation slots filled concurrently, and is then read to assemble the
// bilingual output document. Content is never mutated after construction;
// only translation slots are written.
package docmodel

import (
	"path"
	"strings"
)

// Points is a font size in typographic points.
type Points float64

// EMU is a length in English Metric Units, the native unit of
// WordprocessingML drawing extents. 914400 EMU equal one inch.
type EMU int64

// EMUPerInch is the number of EMU in one inch.
const EMUPerInch EMU = 914400

// Inches returns the length in inches.
func (e EMU) Inches() float64 {
	return float64(e) / float64(EMUPerInch)
}

// Alignment is a paragraph justification value as encoded in the source
// document ("left", "center", "right", "both", ...). Empty means unset.
type Alignment string

// VerticalMerge describes a cell's participation in a vertically merged run.
type VerticalMerge int

const (
	// VMergeNone means the cell is not part of a vertical merge.
	VMergeNone VerticalMerge = iota
	// VMergeRestart marks the first cell of a vertically merged run.
	VMergeRestart
	// VMergeContinue marks a cell continuing the merge started above it.
	VMergeContinue
)

// StyleDescriptor is the normalized formatting of a single text run.
// Zero values mean "unset"; the assembler only applies properties that are set.
type StyleDescriptor struct {
	Bold      bool
	Italic    bool
	Underline bool
	FontName  string
	FontSize  Points // 0 = unset
	Color     string // hex RGB without '#', "" = unset
	CharStyle string // named character style ID, "" = unset
}

// IsZero reports whether no formatting property is set.
func (s StyleDescriptor) IsZero() bool {
	return s == StyleDescriptor{}
}

// ContentItem is an inline unit of paragraph content: a TextRun or an ImageRun.
type ContentItem interface {
	isContentItem()
}

// TextRun is a span of text carrying one uniform StyleDescriptor.
type TextRun struct {
	Text  string
	Style StyleDescriptor
}

func (*TextRun) isContentItem() {}

// ImageRun is an embedded image and its declared display extents.
// Width and Height are 0 when the source drawing declared no extent.
type ImageRun struct {
	Data     []byte
	Width    EMU
	Height   EMU
	Filename string
}

func (*ImageRun) isContentItem() {}

// Ext returns the image filename extension without the leading dot,
// lower-cased, e.g. "png". Empty when the filename has no extension.
func (r *ImageRun) Ext() string {
	ext := strings.ToLower(path.Ext(r.Filename))
	return strings.TrimPrefix(ext, ".")
}

// IsLegacyVector reports whether the image is in an obsolete Windows
// metafile format (EMF/WMF) that common renderers cannot display.
func (r *ImageRun) IsLegacyVector() bool {
	switch r.Ext() {
	case "emf", "wmf":
		return true
	}
	return false
}

// Paragraph is a top-level or cell-local paragraph: an ordered sequence of
// content items plus the aggregated plain text used as the translation unit.
type Paragraph struct {
	Items     []ContentItem
	StyleID   string
	Alignment Alignment
	// Text is the concatenation of all TextRun text in document order.
	Text string
	// Translation is filled by the scheduler; empty until then.
	Translation string
}

func (*Paragraph) isBlock() {}

// IsEmpty reports whether the paragraph carries no content items and no text.
// Such paragraphs are dropped during extraction.
func (p *Paragraph) IsEmpty() bool {
	return len(p.Items) == 0 && strings.TrimSpace(p.Text) == ""
}

// Cell is a table cell: its paragraphs, its whole-cell aggregated text
// (the cell's own translation unit, independent of per-paragraph text),
// and its grid geometry.
type Cell struct {
	Paragraphs []*Paragraph
	// Text is the concatenation of the aggregated text of all paragraphs.
	Text        string
	Translation string
	// GridSpan is the number of grid columns the cell occupies, >= 1.
	GridSpan int
	VMerge   VerticalMerge
}

// Row is an ordered sequence of cells.
type Row struct {
	Cells []*Cell
}

// SpanSum returns the total number of grid columns the row's cells occupy.
func (r *Row) SpanSum() int {
	sum := 0
	for _, c := range r.Cells {
		span := c.GridSpan
		if span < 1 {
			span = 1
		}
		sum += span
	}
	return sum
}

// Table is an ordered sequence of rows plus the computed column count:
// the maximum over all rows of the sum of that row's cell spans.
type Table struct {
	Rows    []*Row
	StyleID string
	Columns int
}

func (*Table) isBlock() {}

// Block is a top-level structural unit in document order: a Paragraph or a Table.
type Block interface {
	isBlock()
}
