package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/MeKo-Tech/tiffkit/internal/metrics"
	"github.com/MeKo-Tech/tiffkit/internal/renderer"
)

func mergeOperation(mode renderer.Mode) string {
	if mode == renderer.ModePDF {
		return OpMergePDF
	}
	return OpMergeTIFF
}

// MergeToTIFF merges paths into one multi-page TIFF in dest.
func (o *Orchestrator) MergeToTIFF(ctx context.Context, paths []string, dest string, deleteSource bool) (*Outcome, error) {
	return o.MergeToMultiPage(ctx, renderer.ModeTIFF, paths, dest, deleteSource)
}

// MergeToPDF merges paths into one multi-page PDF in dest.
func (o *Orchestrator) MergeToPDF(ctx context.Context, paths []string, dest string, deleteSource bool) (*Outcome, error) {
	return o.MergeToMultiPage(ctx, renderer.ModePDF, paths, dest, deleteSource)
}

// MergeToMultiPage merges every existing path, in input order, into a single
// Merge<timestamp> file in dest with one renderer call. Sources are removed
// only when deleteSource is set and the output passed verification. A
// renderer failure is recorded on the outcome and also returned, wrapping
// renderer.ErrRendererFailed.
//
// This differs from the legacy two-field result, where merge deleted the
// sources unconditionally and result_code reflected only missing inputs.
// Here a failed or unverifiable render keeps every source and sets
// result_code to -1 even when all inputs existed, so callers must not read
// result_code 0 as "inputs existed" alone.
func (o *Orchestrator) MergeToMultiPage(ctx context.Context, mode renderer.Mode, paths []string,
	dest string, deleteSource bool,
) (*Outcome, error) {
	start := time.Now()
	operation := mergeOperation(mode)
	part := PartitionPaths(paths, o.checker)
	out := newOutcome(operation, part.Invalid)
	o.reportInvalid(operation, part.Invalid)

	finish := func() {
		d := time.Since(start)
		o.metrics.ObserveDuration(operation, d)
		out.finish(d)
	}

	if len(part.Valid) == 0 {
		o.logger.Warn("no valid files to merge", "operation", operation, "invalid", len(part.Invalid))
		finish()
		return out, nil
	}

	err := o.merge(ctx, mode, part.Valid, dest, out)
	if err != nil {
		if !errors.Is(err, renderer.ErrRendererFailed) {
			err = fmt.Errorf("%w: %w", renderer.ErrRendererFailed, err)
		}
		o.metrics.RecordRenderer(mode.String(), metrics.StatusFailed)
		o.metrics.RecordFiles(operation, metrics.StatusFailed, len(part.Valid))
		for _, src := range part.Valid {
			out.addFile(FileResult{Source: src, Output: out.Output, Status: StatusFailed, Error: err.Error()})
		}
		out.fail(err)
		o.logger.Error("merge failed, sources kept", "operation", operation, "output", out.Output, "error", err)
		finish()
		return out, err
	}

	size := statSize(out.Output)
	o.metrics.RecordRenderer(mode.String(), metrics.StatusOK)
	o.metrics.RecordFiles(operation, metrics.StatusOK, len(part.Valid))
	o.metrics.RecordOutputBytes(operation, size)
	for _, src := range part.Valid {
		out.addFile(FileResult{Source: src, Output: out.Output, Status: StatusOK})
	}
	o.logger.Info("merged images", "operation", operation, "output", out.Output,
		"pages", len(part.Valid), "size", humanize.Bytes(uint64(max(size, 0))))

	if deleteSource {
		o.cleaner(operation).RemoveSources(part.Valid, func(string) bool { return true }, out)
	}
	finish()
	return out, nil
}

// merge reserves the output name under the destination lock and runs the
// renderer. out.Output is set as soon as the name is known.
func (o *Orchestrator) merge(ctx context.Context, mode renderer.Mode, inputs []string, dest string, out *Outcome) error {
	if o.renderer == nil {
		return renderer.ErrNotConfigured
	}

	unlock, err := o.lockDestination(ctx, dest)
	if err != nil {
		return err
	}
	defer unlock()

	output, err := o.reserveMergePath(dest, mode)
	if err != nil {
		return err
	}
	out.Output = output

	if err := o.renderer.Merge(ctx, mode, output, inputs); err != nil {
		return err
	}
	if err := renderer.Verify(mode, output); err != nil {
		return fmt.Errorf("%w: %w", renderer.ErrRendererFailed, err)
	}
	return nil
}
