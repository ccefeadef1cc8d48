// Package docx reads and writes Office Open XML word-processing documents.
// The reader side walks the package as parsed XML trees; the writer side
// marshals a fresh package from the document model.
package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/antchfx/xmlquery"

	"docx-translator/internal/logger"
	"docx-translator/internal/types"
)

// SourceDocument is an opened .docx package. The main document part is kept
// as a parsed XML tree; every other part is held as raw bytes so media and
// styles can be carried over unchanged.
type SourceDocument struct {
	parts map[string][]byte
	doc   *xmlquery.Node
	rels  map[string]string
	log   logger.Logger
}

// Open reads the .docx package at filePath and parses its main document
// part and relationships.
func Open(filePath string) (*SourceDocument, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, types.NewAppError(types.ErrOpenDocument,
			fmt.Sprintf("无法打开文档: %s", filePath), err)
	}
	defer zr.Close()

	parts := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, types.NewAppError(types.ErrOpenDocument,
				fmt.Sprintf("无法读取文档部件: %s", f.Name), err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, types.NewAppError(types.ErrOpenDocument,
				fmt.Sprintf("无法读取文档部件: %s", f.Name), err)
		}
		parts[f.Name] = data
	}

	docXML, ok := parts["word/document.xml"]
	if !ok {
		return nil, types.NewAppError(types.ErrOpenDocument,
			"文档缺少 word/document.xml 部件", nil)
	}
	doc, err := xmlquery.Parse(bytes.NewReader(docXML))
	if err != nil {
		return nil, types.NewAppError(types.ErrOpenDocument,
			"无法解析 word/document.xml", err)
	}

	sd := &SourceDocument{
		parts: parts,
		doc:   doc,
		rels:  make(map[string]string),
		log:   logger.GetLogger(),
	}
	if err := sd.parseRelationships(); err != nil {
		return nil, err
	}

	sd.log.Debug("文档已打开",
		logger.String("path", filePath),
		logger.Int("parts", len(parts)),
		logger.Int("relationships", len(sd.rels)))
	return sd, nil
}

// parseRelationships reads word/_rels/document.xml.rels into the rID to
// target-path map. A document with no relationships part is still valid.
func (sd *SourceDocument) parseRelationships() error {
	data, ok := sd.parts["word/_rels/document.xml.rels"]
	if !ok {
		return nil
	}
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return types.NewAppError(types.ErrOpenDocument,
			"无法解析文档关系部件", err)
	}
	for _, rel := range xmlquery.Find(root, "//Relationship") {
		id := attrValue(rel, "Id")
		target := attrValue(rel, "Target")
		if id == "" || target == "" {
			continue
		}
		sd.rels[id] = target
	}
	return nil
}

// Body returns the w:body element of the main document part, or nil when
// the document has none.
func (sd *SourceDocument) Body() *xmlquery.Node {
	for doc := sd.doc.FirstChild; doc != nil; doc = doc.NextSibling {
		if doc.Type == xmlquery.ElementNode && doc.Data == "document" {
			for body := doc.FirstChild; body != nil; body = body.NextSibling {
				if body.Type == xmlquery.ElementNode && body.Data == "body" {
					return body
				}
			}
		}
	}
	return nil
}

// ResolveResource returns the bytes and base filename of the part a
// relationship ID points at.
func (sd *SourceDocument) ResolveResource(rID string) ([]byte, string, error) {
	target, ok := sd.rels[rID]
	if !ok {
		return nil, "", types.NewAppError(types.ErrResourceNotFound,
			fmt.Sprintf("关系 %s 不存在", rID), nil)
	}
	partName := resolveTarget(target)
	data, ok := sd.parts[partName]
	if !ok {
		return nil, "", types.NewAppError(types.ErrResourceNotFound,
			fmt.Sprintf("关系 %s 指向缺失的部件 %s", rID, partName), nil)
	}
	return data, path.Base(partName), nil
}

// StylesXML returns the raw styles part, or nil when the source has none.
func (sd *SourceDocument) StylesXML() []byte {
	return sd.parts["word/styles.xml"]
}

// StyleIDs returns the set of style IDs defined in the styles part.
func (sd *SourceDocument) StyleIDs() map[string]bool {
	ids := make(map[string]bool)
	data := sd.StylesXML()
	if data == nil {
		return ids
	}
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		sd.log.Warn("无法解析 styles.xml", logger.Err(err))
		return ids
	}
	for _, style := range xmlquery.Find(root, "//*[local-name()='style']") {
		if id := attrValue(style, "w:styleId"); id != "" {
			ids[id] = true
		}
	}
	return ids
}

// resolveTarget maps a relationship target to its zip part name. Targets in
// document.xml.rels are relative to the word/ directory.
func resolveTarget(target string) string {
	target = strings.TrimPrefix(target, "/")
	if strings.HasPrefix(target, "word/") {
		return path.Clean(target)
	}
	return path.Clean("word/" + target)
}

// attrValue reads an attribute off an xmlquery node, matching either the
// full prefixed name or just the local part. Relationship and wordprocessing
// attributes arrive with varying prefix handling depending on the producer.
func attrValue(n *xmlquery.Node, name string) string {
	if v := n.SelectAttr(name); v != "" {
		return v
	}
	local := name
	if i := strings.Index(name, ":"); i >= 0 {
		local = name[i+1:]
	}
	for _, a := range n.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
