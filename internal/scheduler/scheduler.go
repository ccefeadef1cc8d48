// Package scheduler drives the concurrent translation of a document model.
// It collects every translatable unit, fans the resulting chunks out to a
// bounded worker pool, and writes the joined results back into the model in
// the original order.
package scheduler

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"docx-translator/internal/chunker"
	"docx-translator/internal/docmodel"
	"docx-translator/internal/logger"
)

// TranslateFunc translates one chunk of text.
type TranslateFunc func(ctx context.Context, text string) (string, error)

// ProgressCallback reports completed and total chunk counts as work
// finishes. Callbacks run on worker goroutines.
type ProgressCallback func(completed, total int)

// Options configures a scheduling run.
type Options struct {
	// Concurrency bounds the number of in-flight translation calls.
	Concurrency int
	// MaxChunkChars bounds the size of each translation request.
	MaxChunkChars int
	// FailureMarker replaces the output of a chunk whose translation
	// failed, so one bad chunk never loses the rest of the document.
	FailureMarker func(err error) string
	OnProgress    ProgressCallback
}

// unit is one translatable text with a slot to write the result into.
type unit struct {
	text string
	slot *string
}

// chunkJob is one backend request: chunk index i of the owning unit.
type chunkJob struct {
	unitIdx int
	text    string
}

// Translate fills in the Translation fields of every paragraph and cell in
// blocks. Paragraph text is translated per paragraph; table cells are
// translated as whole-cell text. The error returned is only for context
// cancellation; per-chunk failures are folded into the output via the
// failure marker.
func Translate(ctx context.Context, blocks []docmodel.Block, fn TranslateFunc, opts Options) error {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.MaxChunkChars <= 0 {
		opts.MaxChunkChars = 1800
	}
	if opts.FailureMarker == nil {
		opts.FailureMarker = func(err error) string {
			return "[翻译失败: " + err.Error() + "]"
		}
	}
	log := logger.GetLogger()

	units := collectUnits(blocks)
	if len(units) == 0 {
		log.Info("文档中没有需要翻译的文本")
		return nil
	}

	// Flatten every unit into chunk jobs; results land in per-unit slices
	// so the join preserves chunk order.
	var jobs []chunkJob
	results := make([][]string, len(units))
	for ui, u := range units {
		chunks := chunker.Split(u.text, opts.MaxChunkChars)
		results[ui] = make([]string, len(chunks))
		for _, c := range chunks {
			jobs = append(jobs, chunkJob{unitIdx: ui, text: c})
		}
	}
	log.Info("翻译任务已调度",
		logger.Int("units", len(units)),
		logger.Int("chunks", len(jobs)),
		logger.Int("concurrency", opts.Concurrency))

	chunkPos := make([]int, len(units))
	var completed atomic.Int64
	total := len(jobs)

	sem := make(chan struct{}, opts.Concurrency)
	var wg sync.WaitGroup
	for _, job := range jobs {
		pos := chunkPos[job.unitIdx]
		chunkPos[job.unitIdx]++

		if err := ctx.Err(); err != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(job chunkJob, pos int) {
			defer wg.Done()
			defer func() { <-sem }()

			out, err := fn(ctx, job.text)
			if err != nil {
				log.Warn("文本块翻译失败",
					logger.Int("unit", job.unitIdx),
					logger.Int("chunk", pos),
					logger.Err(err))
				out = opts.FailureMarker(err)
			}
			// Each goroutine owns a distinct slot, no locking needed.
			results[job.unitIdx][pos] = out

			done := int(completed.Add(1))
			if opts.OnProgress != nil {
				opts.OnProgress(done, total)
			}
		}(job, pos)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	for ui, u := range units {
		*u.slot = strings.TrimSpace(strings.Join(results[ui], " "))
	}
	log.Info("翻译完成", logger.Int("chunks", total))
	return nil
}

// collectUnits walks the model and returns every non-empty text with its
// translation slot: one unit per paragraph, one unit per table cell.
func collectUnits(blocks []docmodel.Block) []unit {
	var units []unit
	for _, block := range blocks {
		switch b := block.(type) {
		case *docmodel.Paragraph:
			if strings.TrimSpace(b.Text) != "" {
				units = append(units, unit{text: b.Text, slot: &b.Translation})
			}
		case *docmodel.Table:
			for _, row := range b.Rows {
				for _, cell := range row.Cells {
					if cell.VMerge == docmodel.VMergeContinue {
						continue
					}
					if strings.TrimSpace(cell.Text) != "" {
						units = append(units, unit{text: cell.Text, slot: &cell.Translation})
					}
				}
			}
		}
	}
	return units
}
