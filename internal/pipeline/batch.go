package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"meddoc-backend/internal/shared/telemetry"
)

// supportedExtensions lists the file types the batch runner picks up,
// compared case-insensitively. Other files in the directory are skipped, not
// failed.
var supportedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".tiff": {},
	".pdf":  {},
}

// SupportedExtension reports whether the file name carries a batch-eligible
// extension.
func SupportedExtension(fileName string) bool {
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(fileName))]
	return ok
}

// ProcessBatch ingests and processes every supported file directly under dir,
// in directory order. A failing file is recorded in the result and the run
// continues with the next file.
func (p *Processor) ProcessBatch(ctx context.Context, dir string) (BatchResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return BatchResult{}, fmt.Errorf("read batch directory: %w", err)
	}

	out := BatchResult{Directory: dir}
	for _, entry := range entries {
		if entry.IsDir() || !SupportedExtension(entry.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}

		out.Total++
		res := p.processOne(ctx, filepath.Join(dir, entry.Name()))
		out.Results = append(out.Results, res)
		if !res.Success {
			out.Failed++
			continue
		}
		out.Succeeded++
		if res.ExtractedData != nil && res.ExtractedData.NeedsReview() {
			out.NeedsReview++
		}
	}

	telemetry.Info("pipeline.batch.completed", map[string]any{
		"directory":    dir,
		"total":        out.Total,
		"succeeded":    out.Succeeded,
		"failed":       out.Failed,
		"needs_review": out.NeedsReview,
	})
	return out, nil
}

func (p *Processor) processOne(ctx context.Context, path string) Result {
	f, err := os.Open(path)
	if err != nil {
		return Result{Errors: []string{fmt.Sprintf("open %s: %v", path, err)}}
	}
	defer f.Close()

	doc, err := p.Ingest(ctx, filepath.Base(path), f)
	if err != nil {
		telemetry.Error("pipeline.batch.ingest", map[string]any{
			"file":  path,
			"error": err.Error(),
		})
		return Result{Errors: []string{fmt.Sprintf("ingest %s: %v", path, err)}}
	}
	return p.Process(ctx, doc.ID, "")
}
