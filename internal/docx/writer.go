package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"sort"
	"strings"

	"docx-translator/internal/types"
)

// mediaPart is one image stored under word/media/.
type mediaPart struct {
	rID  string
	name string
	data []byte
}

// TargetDocument accumulates the rebuilt document and packages it as a
// .docx file. Styles are carried over from the source when present so
// paragraph and table style IDs keep resolving.
type TargetDocument struct {
	body      wmlBody
	stylesXML []byte
	media     []mediaPart
	nextRID   int
	nextDocPr int
}

// NewTargetDocument returns an empty target. stylesXML may be nil, in which
// case a minimal styles part is generated at save time.
func NewTargetDocument(stylesXML []byte) *TargetDocument {
	return &TargetDocument{
		stylesXML: stylesXML,
		// rId1 is reserved for the styles part relationship.
		nextRID:   2,
		nextDocPr: 1,
	}
}

// AddMedia stores image bytes as a media part and returns the relationship
// ID that drawings should reference.
func (td *TargetDocument) AddMedia(data []byte, ext string) string {
	rID := fmt.Sprintf("rId%d", td.nextRID)
	name := fmt.Sprintf("image%d%s", td.nextRID-1, normalizeExt(ext))
	td.nextRID++
	td.media = append(td.media, mediaPart{rID: rID, name: name, data: data})
	return rID
}

func (td *TargetDocument) appendBlock(block interface{}) {
	td.body.Blocks = append(td.body.Blocks, block)
}

func (td *TargetDocument) docPrID() int {
	id := td.nextDocPr
	td.nextDocPr++
	return id
}

// DocumentXML marshals the main document part. Exposed for tests.
func (td *TargetDocument) DocumentXML() ([]byte, error) {
	doc := wmlDocument{
		XmlnsW:   nsW,
		XmlnsR:   nsR,
		XmlnsWP:  nsWP,
		XmlnsA:   nsA,
		XmlnsPic: nsPic,
		Body:     td.body,
	}
	doc.Body.SectPr = defaultSectPr()

	out, err := xml.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// Save writes the complete package to filePath.
func (td *TargetDocument) Save(filePath string) error {
	docXML, err := td.DocumentXML()
	if err != nil {
		return types.NewAppError(types.ErrSaveDocument, "无法序列化文档内容", err)
	}

	styles := td.stylesXML
	if styles == nil {
		styles = defaultStylesXML()
	}

	parts := map[string][]byte{
		"[Content_Types].xml":            td.contentTypesXML(),
		"_rels/.rels":                    packageRelsXML(),
		"word/document.xml":              docXML,
		"word/_rels/document.xml.rels":   td.documentRelsXML(),
		"word/styles.xml":                styles,
	}
	for _, m := range td.media {
		parts["word/media/"+m.name] = m.data
	}

	f, err := os.Create(filePath)
	if err != nil {
		return types.NewAppError(types.ErrSaveDocument,
			fmt.Sprintf("无法创建输出文件: %s", filePath), err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	names := make([]string, 0, len(parts))
	for name := range parts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			return types.NewAppError(types.ErrSaveDocument,
				fmt.Sprintf("无法写入部件: %s", name), err)
		}
		if _, err := w.Write(parts[name]); err != nil {
			return types.NewAppError(types.ErrSaveDocument,
				fmt.Sprintf("无法写入部件: %s", name), err)
		}
	}
	if err := zw.Close(); err != nil {
		return types.NewAppError(types.ErrSaveDocument, "无法完成文档打包", err)
	}
	return nil
}

func (td *TargetDocument) contentTypesXML() []byte {
	var b bytes.Buffer
	b.WriteString(xml.Header)
	b.WriteString(`<Types xmlns="` + nsCT + `">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)

	seen := map[string]bool{}
	for _, m := range td.media {
		ext := strings.TrimPrefix(normalizeExt(extOf(m.name)), ".")
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		fmt.Fprintf(&b, `<Default Extension="%s" ContentType="%s"/>`, ext, contentTypeFor(ext))
	}

	b.WriteString(`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>`)
	b.WriteString(`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>`)
	b.WriteString(`</Types>`)
	return b.Bytes()
}

func packageRelsXML() []byte {
	var b bytes.Buffer
	b.WriteString(xml.Header)
	b.WriteString(`<Relationships xmlns="` + nsRelPkg + `">`)
	b.WriteString(`<Relationship Id="rId1" Type="` + relTypeDoc + `" Target="word/document.xml"/>`)
	b.WriteString(`</Relationships>`)
	return b.Bytes()
}

func (td *TargetDocument) documentRelsXML() []byte {
	var b bytes.Buffer
	b.WriteString(xml.Header)
	b.WriteString(`<Relationships xmlns="` + nsRelPkg + `">`)
	b.WriteString(`<Relationship Id="rId1" Type="` + relTypeStyle + `" Target="styles.xml"/>`)
	for _, m := range td.media {
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="%s" Target="media/%s"/>`, m.rID, relTypeImage, m.name)
	}
	b.WriteString(`</Relationships>`)
	return b.Bytes()
}

func contentTypeFor(ext string) string {
	switch ext {
	case "png":
		return "image/png"
	case "jpeg", "jpg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "bmp":
		return "image/bmp"
	case "tiff", "tif":
		return "image/tiff"
	case "emf":
		return "image/x-emf"
	case "wmf":
		return "image/x-wmf"
	default:
		return "application/octet-stream"
	}
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext == "" {
		return ".png"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if ext == ".jpg" {
		ext = ".jpeg"
	}
	return ext
}

func extOf(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i:]
	}
	return ""
}

// defaultStylesXML provides Normal and TableGrid so rebuilt documents open
// cleanly when the source carried no styles part.
func defaultStylesXML() []byte {
	return []byte(xml.Header + `<w:styles xmlns:w="` + nsW + `">` +
		`<w:style w:type="paragraph" w:default="1" w:styleId="Normal">` +
		`<w:name w:val="Normal"/>` +
		`</w:style>` +
		`<w:style w:type="table" w:styleId="TableGrid">` +
		`<w:name w:val="Table Grid"/>` +
		`<w:tblPr><w:tblBorders>` +
		`<w:top w:val="single" w:sz="4" w:space="0" w:color="auto"/>` +
		`<w:left w:val="single" w:sz="4" w:space="0" w:color="auto"/>` +
		`<w:bottom w:val="single" w:sz="4" w:space="0" w:color="auto"/>` +
		`<w:right w:val="single" w:sz="4" w:space="0" w:color="auto"/>` +
		`<w:insideH w:val="single" w:sz="4" w:space="0" w:color="auto"/>` +
		`<w:insideV w:val="single" w:sz="4" w:space="0" w:color="auto"/>` +
		`</w:tblBorders></w:tblPr>` +
		`</w:style>` +
		`</w:styles>`)
}
