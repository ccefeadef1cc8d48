// Package pipeline wires the translation stages end to end: open the
// source document, extract its structure, translate the text concurrently,
// rebuild the bilingual document, and save it next to the input.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"docx-translator/internal/backend"
	"docx-translator/internal/docmodel"
	"docx-translator/internal/docx"
	"docx-translator/internal/imaging"
	"docx-translator/internal/logger"
	"docx-translator/internal/scheduler"
	"docx-translator/internal/types"
)

// Pipeline runs a full document translation. TranslateFn is normally the
// backend client; tests substitute a stub.
type Pipeline struct {
	cfg         types.Config
	TranslateFn scheduler.TranslateFunc
	converter   *imaging.Converter
	OnProgress  scheduler.ProgressCallback
	log         logger.Logger
}

// New builds a pipeline backed by the configured translation endpoint.
func New(cfg types.Config) *Pipeline {
	client := backend.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL,
		cfg.OpenAIModel, cfg.TargetLanguage)
	return &Pipeline{
		cfg:         cfg,
		TranslateFn: client.Translate,
		converter:   imaging.NewConverter(),
		log:         logger.GetLogger(),
	}
}

func (p *Pipeline) logger() logger.Logger {
	if p.log == nil {
		p.log = logger.GetLogger()
	}
	return p.log
}

// Run translates the document at inputPath and returns the path of the
// bilingual output file.
func (p *Pipeline) Run(ctx context.Context, inputPath string) (string, error) {
	if !strings.EqualFold(filepath.Ext(inputPath), ".docx") {
		return "", types.NewAppError(types.ErrInvalidInput,
			fmt.Sprintf("输入文件必须是 .docx 格式: %s", inputPath), nil)
	}

	src, err := docx.Open(inputPath)
	if err != nil {
		return "", err
	}

	blocks, err := src.ExtractBlocks()
	if err != nil {
		return "", err
	}
	p.logger().Info("文档解析完成",
		logger.String("input", inputPath),
		logger.Int("blocks", len(blocks)))

	if p.cfg.ConvertLegacyImages {
		p.convertLegacyImages(ctx, blocks)
	}

	err = scheduler.Translate(ctx, blocks, p.TranslateFn, scheduler.Options{
		Concurrency:   p.cfg.Concurrency,
		MaxChunkChars: p.cfg.MaxChunkChars,
		OnProgress:    p.OnProgress,
	})
	if err != nil {
		return "", err
	}

	target := docx.Assemble(blocks, src.StylesXML(), docx.AssembleOptions{
		FallbackFont:   p.cfg.FallbackFont,
		SourceStyleIDs: styleIDsOrNil(src),
	})

	outputPath := OutputPath(inputPath, p.cfg.OutputSuffix)
	if err := target.Save(outputPath); err != nil {
		return "", err
	}
	p.logger().Info("翻译文档已保存", logger.String("output", outputPath))
	return outputPath, nil
}

// convertLegacyImages rewrites EMF and WMF images to PNG in place. A failed
// conversion keeps the original bytes so the image still travels with the
// document.
func (p *Pipeline) convertLegacyImages(ctx context.Context, blocks []docmodel.Block) {
	if !p.converter.Available() {
		p.logger().Warn("未检测到 ImageMagick，跳过旧格式图像转换")
		return
	}
	for _, img := range collectImages(blocks) {
		if !img.IsLegacyVector() {
			continue
		}
		png, err := p.converter.ToPNG(ctx, img.Data, img.Ext())
		if err != nil {
			p.logger().Warn("旧格式图像转换失败，保留原始数据",
				logger.String("filename", img.Filename),
				logger.Err(err))
			continue
		}
		img.Data = png
		img.Filename = strings.TrimSuffix(img.Filename, filepath.Ext(img.Filename)) + ".png"
	}
}

func collectImages(blocks []docmodel.Block) []*docmodel.ImageRun {
	var images []*docmodel.ImageRun
	addPara := func(p *docmodel.Paragraph) {
		for _, item := range p.Items {
			if img, ok := item.(*docmodel.ImageRun); ok {
				images = append(images, img)
			}
		}
	}
	for _, block := range blocks {
		switch b := block.(type) {
		case *docmodel.Paragraph:
			addPara(b)
		case *docmodel.Table:
			for _, row := range b.Rows {
				for _, cell := range row.Cells {
					for _, para := range cell.Paragraphs {
						addPara(para)
					}
				}
			}
		}
	}
	return images
}

func styleIDsOrNil(src *docx.SourceDocument) map[string]bool {
	ids := src.StyleIDs()
	if len(ids) == 0 {
		return nil
	}
	return ids
}

// OutputPath derives the output filename by appending the suffix to the
// input's stem: report.docx becomes report_zh.docx.
func OutputPath(inputPath, suffix string) string {
	ext := filepath.Ext(inputPath)
	stem := strings.TrimSuffix(inputPath, ext)
	return stem + suffix + ext
}
