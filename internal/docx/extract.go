package docx

import (
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"docx-translator/internal/docmodel"
	"docx-translator/internal/logger"
)

// ExtractBlocks walks the document body in order and builds the document
// model: one block per top-level paragraph or table, with everything else
// (section properties, bookmarks) skipped.
func (sd *SourceDocument) ExtractBlocks() ([]docmodel.Block, error) {
	body := sd.Body()
	if body == nil {
		return nil, nil
	}

	var blocks []docmodel.Block
	for child := body.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode {
			continue
		}
		switch localName(child) {
		case "p":
			if p := sd.extractParagraph(child); !p.IsEmpty() {
				blocks = append(blocks, p)
			}
		case "tbl":
			blocks = append(blocks, sd.extractTable(child))
		}
	}

	sd.log.Info("文档结构提取完成", logger.Int("blocks", len(blocks)))
	return blocks, nil
}

// extractParagraph reads one w:p element. Each run contributes its images
// first and then its text, matching visual order within the run.
func (sd *SourceDocument) extractParagraph(p *xmlquery.Node) *docmodel.Paragraph {
	para := &docmodel.Paragraph{}

	if pPr := childElement(p, "pPr"); pPr != nil {
		if pStyle := childElement(pPr, "pStyle"); pStyle != nil {
			para.StyleID = attrValue(pStyle, "w:val")
		}
		if jc := childElement(pPr, "jc"); jc != nil {
			para.Alignment = docmodel.Alignment(attrValue(jc, "w:val"))
		}
	}

	var text strings.Builder
	for child := p.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode || localName(child) != "r" {
			continue
		}
		if img := sd.extractImage(child); img != nil {
			para.Items = append(para.Items, img)
		}
		runText := runText(child)
		if runText == "" {
			continue
		}
		para.Items = append(para.Items, &docmodel.TextRun{
			Text:  runText,
			Style: ExtractStyle(child),
		})
		text.WriteString(runText)
	}
	para.Text = text.String()
	return para
}

// extractImage finds the picture embedded in a run, if any. A run carries
// at most one image: the modern w:drawing//a:blip reference is checked
// first, the legacy w:pict//v:imagedata reference only as a fallback.
// An image whose relationship cannot be resolved is logged and dropped.
func (sd *SourceDocument) extractImage(run *xmlquery.Node) *docmodel.ImageRun {
	for _, drawing := range xmlquery.Find(run, ".//*[local-name()='drawing']") {
		var width, height docmodel.EMU
		if extent := findDescendant(drawing, "extent"); extent != nil {
			width = parseEMU(attrValue(extent, "cx"))
			height = parseEMU(attrValue(extent, "cy"))
		}
		for _, blip := range xmlquery.Find(drawing, ".//*[local-name()='blip']") {
			rID := attrValue(blip, "r:embed")
			if rID == "" {
				continue
			}
			if img := sd.resolveImage(rID, width, height); img != nil {
				return img
			}
		}
	}

	for _, pict := range xmlquery.Find(run, ".//*[local-name()='pict']") {
		for _, data := range xmlquery.Find(pict, ".//*[local-name()='imagedata']") {
			rID := attrValue(data, "r:id")
			if rID == "" {
				continue
			}
			if img := sd.resolveImage(rID, 0, 0); img != nil {
				return img
			}
		}
	}

	return nil
}

func (sd *SourceDocument) resolveImage(rID string, width, height docmodel.EMU) *docmodel.ImageRun {
	data, filename, err := sd.ResolveResource(rID)
	if err != nil {
		sd.log.Warn("图片引用无法解析",
			logger.String("rId", rID), logger.Err(err))
		return nil
	}
	return &docmodel.ImageRun{
		Data:     data,
		Width:    width,
		Height:   height,
		Filename: filename,
	}
}

// extractTable reads one w:tbl element. The column count is derived from
// the widest row measured in effective grid columns.
func (sd *SourceDocument) extractTable(tbl *xmlquery.Node) *docmodel.Table {
	table := &docmodel.Table{}

	if tblPr := childElement(tbl, "tblPr"); tblPr != nil {
		if tblStyle := childElement(tblPr, "tblStyle"); tblStyle != nil {
			table.StyleID = attrValue(tblStyle, "w:val")
		}
	}

	for child := tbl.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode || localName(child) != "tr" {
			continue
		}
		row := &docmodel.Row{}
		for tc := child.FirstChild; tc != nil; tc = tc.NextSibling {
			if tc.Type != xmlquery.ElementNode || localName(tc) != "tc" {
				continue
			}
			row.Cells = append(row.Cells, sd.extractCell(tc))
		}
		table.Rows = append(table.Rows, row)
		if span := row.SpanSum(); span > table.Columns {
			table.Columns = span
		}
	}

	return table
}

// extractCell reads one w:tc element. A cell with no paragraphs gets a
// single empty placeholder paragraph so the rebuilt cell stays valid.
func (sd *SourceDocument) extractCell(tc *xmlquery.Node) *docmodel.Cell {
	cell := &docmodel.Cell{GridSpan: 1, VMerge: docmodel.VMergeNone}

	if tcPr := childElement(tc, "tcPr"); tcPr != nil {
		if gs := childElement(tcPr, "gridSpan"); gs != nil {
			if n, err := strconv.Atoi(attrValue(gs, "w:val")); err == nil && n > 1 {
				cell.GridSpan = n
			}
		}
		if vm := childElement(tcPr, "vMerge"); vm != nil {
			// A vMerge with no value means the cell continues the merge
			// started above it.
			if val := attrValue(vm, "w:val"); val == "restart" {
				cell.VMerge = docmodel.VMergeRestart
			} else {
				cell.VMerge = docmodel.VMergeContinue
			}
		}
	}

	var text strings.Builder
	for child := tc.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode || localName(child) != "p" {
			continue
		}
		para := sd.extractParagraph(child)
		if para.IsEmpty() {
			continue
		}
		cell.Paragraphs = append(cell.Paragraphs, para)
		text.WriteString(para.Text)
	}
	if len(cell.Paragraphs) == 0 {
		cell.Paragraphs = append(cell.Paragraphs, &docmodel.Paragraph{})
	}
	cell.Text = text.String()
	return cell
}

// runText concatenates the w:t children of a run.
func runText(run *xmlquery.Node) string {
	var b strings.Builder
	for c := run.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && localName(c) == "t" {
			b.WriteString(c.InnerText())
		}
	}
	return b.String()
}

// findDescendant returns the first descendant element with the given local
// name, searched depth-first.
func findDescendant(n *xmlquery.Node, local string) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			if localName(c) == local {
				return c
			}
			if found := findDescendant(c, local); found != nil {
				return found
			}
		}
	}
	return nil
}

func parseEMU(s string) docmodel.EMU {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return docmodel.EMU(n)
}

func localName(n *xmlquery.Node) string {
	name := n.Data
	if i := strings.Index(name, ":"); i >= 0 {
		return name[i+1:]
	}
	return name
}
