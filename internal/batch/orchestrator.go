// Package batch runs image transforms or a multi-page merge over the input
// paths that exist and reports every run as an Outcome. Originals can be
// removed afterwards.
package batch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/MeKo-Tech/tiffkit/internal/metrics"
	"github.com/MeKo-Tech/tiffkit/internal/renderer"
	"github.com/MeKo-Tech/tiffkit/internal/transform"
)

// Operation names shared by outcomes and metrics.
const (
	OpConvert   = "convert"
	OpCompress  = "compress"
	OpRotate    = "rotate"
	OpMergeTIFF = "merge_tiff"
	OpMergePDF  = "merge_pdf"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithProvider sets the image transform provider.
func WithProvider(p transform.Provider) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.provider = p
		}
	}
}

// WithRenderer sets the multi-page renderer.
func WithRenderer(r renderer.Renderer) Option {
	return func(o *Orchestrator) { o.renderer = r }
}

// WithChecker replaces the existence check used for validation and cleanup.
func WithChecker(c FileChecker) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.checker = c
		}
	}
}

// WithRemover replaces the file remover used for source cleanup.
func WithRemover(r Remover) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.remover = r
		}
	}
}

// WithClock sets the time source for merge file names.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records operation metrics. nil disables recording.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithUniqueSuffix always appends a random suffix to merge file names.
func WithUniqueSuffix(enabled bool) Option {
	return func(o *Orchestrator) { o.uniqueSuffix = enabled }
}

// WithMergeLock toggles the per-destination merge lock and sets the
// directory holding lock files. An empty dir keeps the OS temp dir.
func WithMergeLock(enabled bool, dir string) Option {
	return func(o *Orchestrator) {
		o.lockMerges = enabled
		if dir != "" {
			o.lockDir = dir
		}
	}
}

// Orchestrator runs batch operations.
type Orchestrator struct {
	provider     transform.Provider
	renderer     renderer.Renderer
	checker      FileChecker
	remover      Remover
	now          func() time.Time
	logger       *slog.Logger
	metrics      *metrics.Metrics
	uniqueSuffix bool
	lockMerges   bool
	lockDir      string
	newSuffix    func() string
}

// New creates an orchestrator. Without WithRenderer the merge operations
// fail with renderer.ErrNotConfigured.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider:   transform.NewProvider(),
		checker:    OSFileChecker{},
		remover:    osRemover{},
		now:        time.Now,
		logger:     slog.Default(),
		lockMerges: true,
		lockDir:    os.TempDir(),
		newSuffix:  randomSuffix,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) cleaner(operation string) *Cleaner {
	return &Cleaner{
		checker:   o.checker,
		remover:   o.remover,
		logger:    o.logger,
		metrics:   o.metrics,
		operation: operation,
	}
}

// fileStep transforms one existing source and reports the result.
type fileStep func(src string) FileResult

// runPerFile is the shared shape of convert and compress: partition, apply
// step to every valid path with failures isolated per file, then optionally
// remove the sources that were transformed.
func (o *Orchestrator) runPerFile(ctx context.Context, operation string, paths []string,
	deleteSource bool, step fileStep,
) (*Outcome, error) {
	start := time.Now()
	part := PartitionPaths(paths, o.checker)
	out := newOutcome(operation, part.Invalid)
	o.reportInvalid(operation, part.Invalid)

	// deletable tracks sources that may be removed; a failure anywhere for
	// a duplicated path wins over a success.
	deletable := make(map[string]bool, len(part.Valid))
	for _, src := range part.Valid {
		if err := ctx.Err(); err != nil {
			out.fail(err)
			o.metrics.ObserveDuration(operation, time.Since(start))
			out.finish(time.Since(start))
			return out, err
		}

		fr := step(src)
		out.addFile(fr)

		if fr.Status == StatusOK {
			o.metrics.RecordFile(operation, metrics.StatusOK)
			o.metrics.RecordOutputBytes(operation, fr.Bytes)
			o.logger.Info("processed image", "operation", operation, "file", src,
				"output", fr.Output, "size", humanize.Bytes(uint64(max(fr.Bytes, 0))))
			if _, seen := deletable[src]; !seen {
				deletable[src] = !samePath(src, fr.Output)
			}
		} else {
			o.metrics.RecordFile(operation, metrics.StatusFailed)
			o.logger.Error("failed to process image", "operation", operation, "file", src, "error", fr.Error)
			deletable[src] = false
		}
	}

	if deleteSource {
		o.cleaner(operation).RemoveSources(paths, func(p string) bool { return deletable[p] }, out)
	}

	d := time.Since(start)
	o.metrics.ObserveDuration(operation, d)
	out.finish(d)
	o.logger.Info("batch finished", "operation", operation, "result_code", int(out.ResultCode),
		"files", len(out.Files), "invalid", len(out.InvalidPaths), "duration", d.Round(time.Millisecond).String())
	return out, nil
}

func (o *Orchestrator) reportInvalid(operation string, invalid []string) {
	for _, p := range invalid {
		o.logger.Warn("input file not found", "operation", operation, "file", p)
	}
	o.metrics.RecordFiles(operation, metrics.StatusInvalid, len(invalid))
}

// statSize returns the size of path, or 0 when it cannot be read.
func statSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// samePath reports whether a and b name the same file.
func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	ai, errA := os.Stat(a)
	bi, errB := os.Stat(b)
	if errA == nil && errB == nil {
		return os.SameFile(ai, bi)
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
