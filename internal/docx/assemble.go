package docx

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"regexp"
	"strconv"
	"strings"

	"docx-translator/internal/docmodel"
	"docx-translator/internal/logger"
)

// AssembleOptions controls how the bilingual document is rebuilt.
type AssembleOptions struct {
	// FallbackFont is applied to translated runs whose source run carried
	// no explicit font, and always fills the East Asian slot.
	FallbackFont string
	// SourceStyleIDs lists the style IDs defined in the carried-over styles
	// part; references to undefined styles are dropped.
	SourceStyleIDs map[string]bool
}

// emuPerPixel assumes the conventional 96 dpi when an image declares no
// extent and its pixel size must be converted.
const emuPerPixel = 9525

const pageContentTwips = 9026

var hexColorRe = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)

type assembler struct {
	target *TargetDocument
	opts   AssembleOptions
	log    logger.Logger
}

// Assemble rebuilds the translated document model into a target package,
// interleaving each source block with its translation.
func Assemble(blocks []docmodel.Block, stylesXML []byte, opts AssembleOptions) *TargetDocument {
	a := &assembler{
		target: NewTargetDocument(stylesXML),
		opts:   opts,
		log:    logger.GetLogger(),
	}
	for _, block := range blocks {
		switch b := block.(type) {
		case *docmodel.Paragraph:
			a.appendParagraph(b)
		case *docmodel.Table:
			a.appendTable(b)
		}
	}
	return a.target
}

// appendParagraph writes the source paragraph followed by its translation
// paragraph. Untranslated paragraphs appear alone.
func (a *assembler) appendParagraph(p *docmodel.Paragraph) {
	a.target.appendBlock(a.buildParagraph(p))
	if p.Translation != "" {
		a.target.appendBlock(a.buildTranslationParagraph(p))
	}
}

func (a *assembler) buildParagraph(p *docmodel.Paragraph) wmlParagraph {
	out := wmlParagraph{Props: a.paraProps(p)}
	for _, item := range p.Items {
		switch it := item.(type) {
		case *docmodel.TextRun:
			out.Runs = append(out.Runs, wmlRun{
				Props: a.runProps(it.Style),
				Text:  &wmlText{Space: "preserve", Value: it.Text},
			})
		case *docmodel.ImageRun:
			if run, ok := a.imageRun(it); ok {
				out.Runs = append(out.Runs, run)
			}
		}
	}
	return out
}

func (a *assembler) buildTranslationParagraph(p *docmodel.Paragraph) wmlParagraph {
	return wmlParagraph{
		Props: a.paraProps(p),
		Runs: []wmlRun{{
			Props: a.translationRunProps(),
			Text:  &wmlText{Space: "preserve", Value: p.Translation},
		}},
	}
}

// translationRunProps carries no source formatting: translated runs render
// in the fallback font alone, filling every slot so both Latin and CJK
// glyphs use it.
func (a *assembler) translationRunProps() *wmlRunProps {
	if a.opts.FallbackFont == "" {
		return nil
	}
	return &wmlRunProps{
		Fonts: &wmlFonts{
			ASCII:    a.opts.FallbackFont,
			HAnsi:    a.opts.FallbackFont,
			EastAsia: a.opts.FallbackFont,
		},
	}
}

func (a *assembler) paraProps(p *docmodel.Paragraph) *wmlParaProps {
	props := &wmlParaProps{}
	if p.StyleID != "" && a.styleDefined(p.StyleID) {
		props.Style = &wmlValAttr{Val: p.StyleID}
	}
	if p.Alignment != "" {
		props.Alignment = &wmlValAttr{Val: string(p.Alignment)}
	}
	if props.Style == nil && props.Alignment == nil {
		return nil
	}
	return props
}

// runProps converts a source style descriptor into run properties.
func (a *assembler) runProps(s docmodel.StyleDescriptor) *wmlRunProps {
	props := &wmlRunProps{}
	used := false

	if s.CharStyle != "" && a.styleDefined(s.CharStyle) {
		props.Style = &wmlValAttr{Val: s.CharStyle}
		used = true
	}

	if s.FontName != "" {
		props.Fonts = &wmlFonts{
			ASCII:    s.FontName,
			HAnsi:    s.FontName,
			EastAsia: s.FontName,
		}
		used = true
	}

	if s.Bold {
		props.Bold = &wmlToggle{}
		props.BoldCS = &wmlToggle{}
		used = true
	}
	if s.Italic {
		props.Italic = &wmlToggle{}
		props.ItalicCS = &wmlToggle{}
		used = true
	}
	if c := normalizeColor(s.Color); c != "" {
		props.Color = &wmlValAttr{Val: c}
		used = true
	}
	if s.FontSize > 0 {
		half := strconv.Itoa(int(s.FontSize * 2))
		props.Size = &wmlValAttr{Val: half}
		props.SizeCS = &wmlValAttr{Val: half}
		used = true
	}
	if s.Underline {
		props.Underline = &wmlValAttr{Val: "single"}
		used = true
	}

	if !used {
		return nil
	}
	return props
}

func (a *assembler) styleDefined(id string) bool {
	if a.opts.SourceStyleIDs == nil {
		return true
	}
	return a.opts.SourceStyleIDs[id]
}

// normalizeColor keeps only explicit six-digit hex colors, dropping the
// "auto" marker and pure black which is the rendering default anyway.
func normalizeColor(c string) string {
	if !hexColorRe.MatchString(c) {
		return ""
	}
	if strings.EqualFold(c, "000000") {
		return ""
	}
	return strings.ToUpper(c)
}

// imageRun embeds an image as an inline drawing. Images whose dimensions
// cannot be determined are skipped with a warning rather than failing the
// whole document.
func (a *assembler) imageRun(img *docmodel.ImageRun) (wmlRun, bool) {
	width, height, ok := a.imageExtent(img)
	if !ok {
		a.log.Warn("跳过无法确定尺寸的图片",
			logger.String("filename", img.Filename))
		return wmlRun{}, false
	}

	rID := a.target.AddMedia(img.Data, img.Ext())
	id := a.target.docPrID()
	name := fmt.Sprintf("Picture %d", id)

	return wmlRun{
		Drawing: &wmlDrawing{
			Inline: wmlInline{
				Extent: wmlExtent{CX: int64(width), CY: int64(height)},
				DocPr:  wmlDocPr{ID: id, Name: name},
				Graphic: wmlGraphic{
					Data: wmlGraphicData{
						URI: nsPic,
						Pic: wmlPic{
							NvPicPr: wmlNvPicPr{
								CNvPr: wmlDocPr{ID: id, Name: name},
							},
							BlipFill: wmlBlipFill{
								Blip: wmlBlip{Embed: rID},
							},
							SpPr: wmlSpPr{
								Xfrm: wmlXfrm{
									Ext: wmlExtent{CX: int64(width), CY: int64(height)},
								},
								PrstGeom: wmlPrstGeom{Prst: "rect"},
							},
						},
					},
				},
			},
		},
	}, true
}

// imageExtent resolves the display size in EMU: declared extents win, then
// the decoded pixel size at 96 dpi, with the aspect ratio preserved when
// only the width was declared.
func (a *assembler) imageExtent(img *docmodel.ImageRun) (docmodel.EMU, docmodel.EMU, bool) {
	if img.Width > 0 && img.Height > 0 {
		return img.Width, img.Height, true
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, false
	}

	pxW := docmodel.EMU(cfg.Width) * emuPerPixel
	pxH := docmodel.EMU(cfg.Height) * emuPerPixel
	if img.Width > 0 {
		scaled := img.Width * docmodel.EMU(cfg.Height) / docmodel.EMU(cfg.Width)
		return img.Width, scaled, true
	}
	return pxW, pxH, true
}

// appendTable rebuilds a table with translations appended inside each cell.
// The grid is normalized first and vertical merges are applied in a second
// pass over the built rows.
func (a *assembler) appendTable(t *docmodel.Table) {
	if t.Columns <= 0 || len(t.Rows) == 0 {
		return
	}

	colWidth := pageContentTwips / t.Columns
	out := wmlTable{
		Props: wmlTableProps{
			Width: wmlTableWidth{W: "5000", Type: "pct"},
			Borders: wmlTblBorders{
				Top:     gridBorder(),
				Left:    gridBorder(),
				Bottom:  gridBorder(),
				Right:   gridBorder(),
				InsideH: gridBorder(),
				InsideV: gridBorder(),
			},
		},
	}
	if t.StyleID != "" {
		if a.styleDefined(t.StyleID) {
			out.Props.Style = &wmlValAttr{Val: t.StyleID}
		} else {
			a.log.Warn("表格样式未定义，使用默认网格样式",
				logger.String("styleId", t.StyleID))
		}
	}
	for i := 0; i < t.Columns; i++ {
		out.Grid.Cols = append(out.Grid.Cols, wmlGridCol{W: strconv.Itoa(colWidth)})
	}

	merges := make([][]docmodel.VerticalMerge, len(t.Rows))
	for ri, row := range t.Rows {
		outRow := wmlTableRow{}
		used := 0
		for ci, cell := range row.Cells {
			span := cell.GridSpan
			if span < 1 {
				span = 1
			}
			if used >= t.Columns {
				a.log.Warn("表格单元格超出网格宽度，已跳过",
					logger.Int("row", ri), logger.Int("cell", ci))
				break
			}
			if used+span > t.Columns {
				span = t.Columns - used
			}
			outRow.Cells = append(outRow.Cells, a.buildCell(cell, span, colWidth*span))
			merges[ri] = append(merges[ri], cell.VMerge)
			used += span
		}
		// Pad short rows so every row spans the full grid.
		for used < t.Columns {
			outRow.Cells = append(outRow.Cells, emptyCell(colWidth))
			merges[ri] = append(merges[ri], docmodel.VMergeNone)
			used++
		}
		out.Rows = append(out.Rows, outRow)
	}

	for ri := range out.Rows {
		for ci := range out.Rows[ri].Cells {
			switch merges[ri][ci] {
			case docmodel.VMergeRestart:
				out.Rows[ri].Cells[ci].Props.VMerge = &wmlVMerge{Val: "restart"}
			case docmodel.VMergeContinue:
				out.Rows[ri].Cells[ci].Props.VMerge = &wmlVMerge{}
			}
		}
	}

	a.target.appendBlock(out)
}

// buildCell writes the cell's source paragraphs and, when the cell text was
// translated, one translation paragraph at the end.
func (a *assembler) buildCell(cell *docmodel.Cell, span, width int) wmlTableCell {
	out := wmlTableCell{
		Props: wmlCellProps{
			Width: wmlTableWidth{W: strconv.Itoa(width), Type: "dxa"},
		},
	}
	if span > 1 {
		out.Props.GridSpan = &wmlValAttr{Val: strconv.Itoa(span)}
	}

	for _, p := range cell.Paragraphs {
		out.Paragraphs = append(out.Paragraphs, a.buildParagraph(p))
	}
	if cell.Translation != "" {
		out.Paragraphs = append(out.Paragraphs, wmlParagraph{
			Runs: []wmlRun{{
				Props: a.translationRunProps(),
				Text:  &wmlText{Space: "preserve", Value: cell.Translation},
			}},
		})
	}
	if len(out.Paragraphs) == 0 {
		out.Paragraphs = append(out.Paragraphs, wmlParagraph{})
	}
	return out
}

func emptyCell(width int) wmlTableCell {
	return wmlTableCell{
		Props: wmlCellProps{
			Width: wmlTableWidth{W: strconv.Itoa(width), Type: "dxa"},
		},
		Paragraphs: []wmlParagraph{{}},
	}
}

func gridBorder() wmlBorder {
	return wmlBorder{Val: "single", Size: "4", Space: "0", Color: "auto"}
}
