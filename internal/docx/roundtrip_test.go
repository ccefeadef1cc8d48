package docx

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"testing"

	"github.com/antchfx/xmlquery"

	"docx-translator/internal/docmodel"
	"docx-translator/internal/logger"
)

func saveAndReopen(t *testing.T, blocks []docmodel.Block, opts AssembleOptions) []docmodel.Block {
	t.Helper()
	target := Assemble(blocks, nil, opts)
	path := filepath.Join(t.TempDir(), "out.docx")
	if err := target.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	src, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	out, err := src.ExtractBlocks()
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	return out
}

func TestRoundTrip_ParagraphInterleaving(t *testing.T) {
	blocks := []docmodel.Block{
		&docmodel.Paragraph{
			Items: []docmodel.ContentItem{
				&docmodel.TextRun{Text: "Hello world.", Style: docmodel.StyleDescriptor{Bold: true}},
			},
			Text:        "Hello world.",
			Translation: "你好，世界。",
		},
		&docmodel.Paragraph{
			Items: []docmodel.ContentItem{
				&docmodel.TextRun{Text: "Untranslated."},
			},
			Text: "Untranslated.",
		},
	}

	out := saveAndReopen(t, blocks, AssembleOptions{FallbackFont: "SimSun"})
	if len(out) != 3 {
		t.Fatalf("expected 3 paragraphs (source, translation, source), got %d", len(out))
	}

	p0, ok := out[0].(*docmodel.Paragraph)
	if !ok || p0.Text != "Hello world." {
		t.Fatalf("first block = %#v", out[0])
	}
	p1 := out[1].(*docmodel.Paragraph)
	if p1.Text != "你好，世界。" {
		t.Errorf("translation paragraph text = %q", p1.Text)
	}
	p2 := out[2].(*docmodel.Paragraph)
	if p2.Text != "Untranslated." {
		t.Errorf("untranslated paragraph must appear alone, got %q", p2.Text)
	}
}

func TestRoundTrip_StyleFidelity(t *testing.T) {
	style := docmodel.StyleDescriptor{
		Bold:      true,
		Italic:    true,
		Underline: true,
		FontName:  "Arial",
		FontSize:  14,
		Color:     "FF0000",
	}
	blocks := []docmodel.Block{
		&docmodel.Paragraph{
			Items: []docmodel.ContentItem{
				&docmodel.TextRun{Text: "styled", Style: style},
			},
			Text:      "styled",
			Alignment: "center",
		},
	}

	out := saveAndReopen(t, blocks, AssembleOptions{FallbackFont: "SimSun"})
	p := out[0].(*docmodel.Paragraph)
	if p.Alignment != "center" {
		t.Errorf("alignment = %q", p.Alignment)
	}
	run := p.Items[0].(*docmodel.TextRun)
	got := run.Style
	if !got.Bold || !got.Italic || !got.Underline {
		t.Errorf("toggles lost: %+v", got)
	}
	if got.FontName != "Arial" {
		t.Errorf("font = %q", got.FontName)
	}
	if got.FontSize != 14 {
		t.Errorf("size = %v", got.FontSize)
	}
	if got.Color != "FF0000" {
		t.Errorf("color = %q", got.Color)
	}
}

func TestRoundTrip_TranslationUsesFallbackFont(t *testing.T) {
	blocks := []docmodel.Block{
		&docmodel.Paragraph{
			Items: []docmodel.ContentItem{
				&docmodel.TextRun{Text: "plain"},
			},
			Text:        "plain",
			Translation: "译文",
		},
	}

	out := saveAndReopen(t, blocks, AssembleOptions{FallbackFont: "SimSun"})
	p := out[1].(*docmodel.Paragraph)
	run := p.Items[0].(*docmodel.TextRun)
	if run.Style.FontName != "SimSun" {
		t.Errorf("translation font = %q, want fallback", run.Style.FontName)
	}
}

func TestRoundTrip_TranslationIgnoresSourceFormatting(t *testing.T) {
	// Translated runs carry only the fallback font; the source run's font
	// and toggles must not leak onto them.
	blocks := []docmodel.Block{
		&docmodel.Paragraph{
			Items: []docmodel.ContentItem{
				&docmodel.TextRun{
					Text:  "styled",
					Style: docmodel.StyleDescriptor{Bold: true, FontName: "Arial", FontSize: 14},
				},
			},
			Text:        "styled",
			Translation: "译文",
		},
	}

	docXML, err := Assemble(blocks, nil, AssembleOptions{FallbackFont: "SimSun"}).DocumentXML()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	xml := string(docXML)
	if strings.Count(xml, `w:ascii="Arial"`) != 1 {
		t.Error("source font must appear only on the source run")
	}
	if !strings.Contains(xml, `w:ascii="SimSun"`) || !strings.Contains(xml, `w:hAnsi="SimSun"`) {
		t.Error("fallback font missing from the latin slots of the translation run")
	}

	out := saveAndReopen(t, blocks, AssembleOptions{FallbackFont: "SimSun"})
	run := out[1].(*docmodel.Paragraph).Items[0].(*docmodel.TextRun)
	if run.Style.FontName != "SimSun" {
		t.Errorf("translation font = %q, want SimSun in every slot", run.Style.FontName)
	}
	if run.Style.Bold {
		t.Error("source bold leaked onto translation run")
	}
	if run.Style.FontSize != 0 {
		t.Errorf("source size leaked onto translation run: %v", run.Style.FontSize)
	}
}

func TestRoundTrip_TableStructure(t *testing.T) {
	cell := func(text, translation string) *docmodel.Cell {
		return &docmodel.Cell{
			Paragraphs: []*docmodel.Paragraph{{
				Items: []docmodel.ContentItem{&docmodel.TextRun{Text: text}},
				Text:  text,
			}},
			Text:        text,
			Translation: translation,
			GridSpan:    1,
		}
	}
	table := &docmodel.Table{
		Columns: 2,
		Rows: []*docmodel.Row{
			{Cells: []*docmodel.Cell{
				{
					Paragraphs: []*docmodel.Paragraph{{
						Items: []docmodel.ContentItem{&docmodel.TextRun{Text: "header"}},
						Text:  "header",
					}},
					Text:     "header",
					GridSpan: 2,
				},
			}},
			{Cells: []*docmodel.Cell{
				cell("a", "甲"),
				cell("b", ""),
			}},
		},
	}

	out := saveAndReopen(t, []docmodel.Block{table}, AssembleOptions{FallbackFont: "SimSun"})
	if len(out) != 1 {
		t.Fatalf("expected 1 block, got %d", len(out))
	}
	got, ok := out[0].(*docmodel.Table)
	if !ok {
		t.Fatalf("block is %#v, want table", out[0])
	}
	if got.Columns != 2 {
		t.Errorf("columns = %d", got.Columns)
	}
	if len(got.Rows) != 2 {
		t.Fatalf("rows = %d", len(got.Rows))
	}
	if got.Rows[0].Cells[0].GridSpan != 2 {
		t.Errorf("header gridSpan = %d", got.Rows[0].Cells[0].GridSpan)
	}
	// The translated cell carries its translation as an extra paragraph.
	if !strings.Contains(got.Rows[1].Cells[0].Text, "甲") {
		t.Errorf("cell text missing translation: %q", got.Rows[1].Cells[0].Text)
	}
	if strings.Contains(got.Rows[1].Cells[1].Text, "甲") {
		t.Error("untranslated cell gained text")
	}
}

func TestRoundTrip_CellDropsEmptyParagraphs(t *testing.T) {
	textPara := func(s string) *docmodel.Paragraph {
		return &docmodel.Paragraph{
			Items: []docmodel.ContentItem{&docmodel.TextRun{Text: s}},
			Text:  s,
		}
	}
	table := &docmodel.Table{
		Columns: 1,
		Rows: []*docmodel.Row{
			{Cells: []*docmodel.Cell{{
				Paragraphs: []*docmodel.Paragraph{textPara("a"), {}, textPara("b")},
				Text:       "ab",
				GridSpan:   1,
			}}},
		},
	}

	out := saveAndReopen(t, []docmodel.Block{table}, AssembleOptions{})
	cell := out[0].(*docmodel.Table).Rows[0].Cells[0]
	if len(cell.Paragraphs) != 2 {
		t.Fatalf("paragraphs = %d, want empty paragraph dropped", len(cell.Paragraphs))
	}
	if cell.Text != "ab" {
		t.Errorf("cell text = %q, want direct concatenation", cell.Text)
	}
}

func TestRoundTrip_VerticalMerge(t *testing.T) {
	mk := func(vm docmodel.VerticalMerge) *docmodel.Cell {
		return &docmodel.Cell{
			Paragraphs: []*docmodel.Paragraph{{}},
			GridSpan:   1,
			VMerge:     vm,
		}
	}
	table := &docmodel.Table{
		Columns: 1,
		Rows: []*docmodel.Row{
			{Cells: []*docmodel.Cell{mk(docmodel.VMergeRestart)}},
			{Cells: []*docmodel.Cell{mk(docmodel.VMergeContinue)}},
		},
	}

	out := saveAndReopen(t, []docmodel.Block{table}, AssembleOptions{})
	got := out[0].(*docmodel.Table)
	if got.Rows[0].Cells[0].VMerge != docmodel.VMergeRestart {
		t.Errorf("row 0 vMerge = %v", got.Rows[0].Cells[0].VMerge)
	}
	if got.Rows[1].Cells[0].VMerge != docmodel.VMergeContinue {
		t.Errorf("row 1 vMerge = %v", got.Rows[1].Cells[0].VMerge)
	}
}

func TestRoundTrip_OverflowCellSkipped(t *testing.T) {
	mk := func(text string) *docmodel.Cell {
		return &docmodel.Cell{
			Paragraphs: []*docmodel.Paragraph{{
				Items: []docmodel.ContentItem{&docmodel.TextRun{Text: text}},
				Text:  text,
			}},
			Text:     text,
			GridSpan: 1,
		}
	}
	table := &docmodel.Table{
		Columns: 2,
		Rows: []*docmodel.Row{
			{Cells: []*docmodel.Cell{mk("a"), mk("b"), mk("overflow")}},
		},
	}

	out := saveAndReopen(t, []docmodel.Block{table}, AssembleOptions{})
	got := out[0].(*docmodel.Table)
	if len(got.Rows[0].Cells) != 2 {
		t.Fatalf("cells = %d, want overflow dropped", len(got.Rows[0].Cells))
	}
	if got.Rows[0].Cells[1].Text != "b" {
		t.Errorf("second cell = %q", got.Rows[0].Cells[1].Text)
	}
}

func TestRoundTrip_InlineImage(t *testing.T) {
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	data := buf.Bytes()

	blocks := []docmodel.Block{
		&docmodel.Paragraph{
			Items: []docmodel.ContentItem{
				&docmodel.ImageRun{
					Data:     data,
					Width:    914400,
					Height:   457200,
					Filename: "image1.png",
				},
				&docmodel.TextRun{Text: "caption"},
			},
			Text: "caption",
		},
	}

	out := saveAndReopen(t, blocks, AssembleOptions{})
	p := out[0].(*docmodel.Paragraph)
	var found *docmodel.ImageRun
	for _, item := range p.Items {
		if ir, ok := item.(*docmodel.ImageRun); ok {
			found = ir
		}
	}
	if found == nil {
		t.Fatal("image run lost in round trip")
	}
	if !bytes.Equal(found.Data, data) {
		t.Error("image bytes altered")
	}
	if found.Width != 914400 || found.Height != 457200 {
		t.Errorf("extent = %dx%d", found.Width, found.Height)
	}
	if p.Text != "caption" {
		t.Errorf("paragraph text = %q", p.Text)
	}
}

func parseImageRun(t *testing.T, inner string) *xmlquery.Node {
	t.Helper()
	doc, err := xmlquery.Parse(strings.NewReader(
		`<w:r xmlns:w="` + nsW + `" xmlns:r="` + nsR + `" xmlns:wp="` + nsWP +
			`" xmlns:a="` + nsA + `" xmlns:v="urn:schemas-microsoft-com:vml">` +
			inner + `</w:r>`))
	if err != nil {
		t.Fatalf("parse run: %v", err)
	}
	run := doc.FirstChild
	for run != nil && run.Type != xmlquery.ElementNode {
		run = run.NextSibling
	}
	return run
}

func newImageSource() *SourceDocument {
	return &SourceDocument{
		parts: map[string][]byte{
			"word/media/modern.png": []byte("modern"),
			"word/media/legacy.wmf": []byte("legacy"),
		},
		rels: map[string]string{
			"rId10": "media/modern.png",
			"rId11": "media/legacy.wmf",
		},
		log: logger.GetLogger(),
	}
}

func TestExtractImage_DrawingPreferredOverPict(t *testing.T) {
	sd := newImageSource()
	run := parseImageRun(t,
		`<w:drawing><wp:inline><wp:extent cx="100" cy="200"/>`+
			`<a:blip r:embed="rId10"/></wp:inline></w:drawing>`+
			`<w:pict><v:imagedata r:id="rId11"/></w:pict>`)

	img := sd.extractImage(run)
	if img == nil {
		t.Fatal("no image extracted")
	}
	if string(img.Data) != "modern" {
		t.Errorf("image data = %q, want the inline drawing to win", img.Data)
	}
	if img.Width != 100 || img.Height != 200 {
		t.Errorf("extent = %dx%d", img.Width, img.Height)
	}
}

func TestExtractImage_LegacyFallback(t *testing.T) {
	sd := newImageSource()
	run := parseImageRun(t, `<w:pict><v:imagedata r:id="rId11"/></w:pict>`)

	img := sd.extractImage(run)
	if img == nil {
		t.Fatal("no image extracted")
	}
	if string(img.Data) != "legacy" {
		t.Errorf("image data = %q", img.Data)
	}
}

func TestExtractImage_AtMostOnePerRun(t *testing.T) {
	sd := newImageSource()
	run := parseImageRun(t,
		`<w:drawing><wp:inline><a:blip r:embed="rId10"/>`+
			`<a:blip r:embed="rId11"/></wp:inline></w:drawing>`)

	para := &docmodel.Paragraph{}
	if img := sd.extractImage(run); img != nil {
		para.Items = append(para.Items, img)
	}
	if len(para.Items) != 1 {
		t.Fatalf("items = %d, want exactly one image", len(para.Items))
	}
	if string(para.Items[0].(*docmodel.ImageRun).Data) != "modern" {
		t.Error("first blip must win")
	}
}

func TestImageExtent_DecodedSize(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 96, 48))); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	a := &assembler{target: NewTargetDocument(nil)}
	w, h, ok := a.imageExtent(&docmodel.ImageRun{Data: buf.Bytes()})
	if !ok {
		t.Fatal("extent not resolved from pixel size")
	}
	if w != 96*emuPerPixel || h != 48*emuPerPixel {
		t.Errorf("extent = %dx%d", w, h)
	}

	// Declared width with decoded aspect ratio.
	w, h, ok = a.imageExtent(&docmodel.ImageRun{Data: buf.Bytes(), Width: 914400})
	if !ok || w != 914400 || h != 457200 {
		t.Errorf("aspect-scaled extent = %dx%d ok=%v", w, h, ok)
	}

	// Undecodable data with no declared extent is rejected.
	if _, _, ok := a.imageExtent(&docmodel.ImageRun{Data: []byte{1, 2, 3}}); ok {
		t.Error("expected failure for undecodable image")
	}
}

type recordLogger struct {
	warns []string
}

func (r *recordLogger) Debug(msg string, fields ...logger.Field)            {}
func (r *recordLogger) Info(msg string, fields ...logger.Field)             {}
func (r *recordLogger) Warn(msg string, fields ...logger.Field)             { r.warns = append(r.warns, msg) }
func (r *recordLogger) Error(msg string, err error, fields ...logger.Field) {}
func (r *recordLogger) SetLevel(level logger.Level)                         {}
func (r *recordLogger) Close() error                                        { return nil }

func TestAssemble_UndefinedTableStyleFallsBackWithWarning(t *testing.T) {
	rec := &recordLogger{}
	logger.SetGlobalLogger(rec)
	t.Cleanup(func() { logger.SetGlobalLogger(nil) })

	table := &docmodel.Table{
		Columns: 1,
		StyleID: "FancyTable",
		Rows: []*docmodel.Row{
			{Cells: []*docmodel.Cell{{
				Paragraphs: []*docmodel.Paragraph{{}},
				GridSpan:   1,
			}}},
		},
	}
	opts := AssembleOptions{SourceStyleIDs: map[string]bool{"Normal": true}}
	docXML, err := Assemble([]docmodel.Block{table}, nil, opts).DocumentXML()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(docXML), "FancyTable") {
		t.Error("undefined table style must not be referenced")
	}
	if len(rec.warns) == 0 {
		t.Error("expected a warning about the table style fallback")
	}
}

func TestTargetDocument_MediaParts(t *testing.T) {
	td := NewTargetDocument(nil)
	r1 := td.AddMedia([]byte("a"), ".png")
	r2 := td.AddMedia([]byte("b"), "jpg")
	if r1 != "rId2" || r2 != "rId3" {
		t.Errorf("rIDs = %s, %s", r1, r2)
	}

	rels := string(td.documentRelsXML())
	if !strings.Contains(rels, `Target="media/image1.png"`) ||
		!strings.Contains(rels, `Target="media/image2.jpeg"`) {
		t.Errorf("rels missing media targets: %s", rels)
	}

	ct := string(td.contentTypesXML())
	if !strings.Contains(ct, `Extension="png"`) || !strings.Contains(ct, `Extension="jpeg"`) {
		t.Errorf("content types missing image defaults: %s", ct)
	}
}
