package batch

import (
	"context"
	"time"

	"github.com/MeKo-Tech/tiffkit/internal/metrics"
)

// RotateInPlace rotates the image at path by degrees and overwrites it in
// its original format. Positive degrees turn counter-clockwise, negative
// clockwise; the canvas grows to fit. Errors are returned as-is: a missing
// or undecodable file yields transform.ErrUnreadableImage.
func (o *Orchestrator) RotateInPlace(ctx context.Context, path string, degrees int) error {
	start := time.Now()
	defer func() { o.metrics.ObserveDuration(OpRotate, time.Since(start)) }()

	if err := ctx.Err(); err != nil {
		return err
	}

	h, err := o.provider.Open(path)
	if err != nil {
		o.metrics.RecordFile(OpRotate, metrics.StatusFailed)
		return err
	}
	rotated := o.provider.Rotate(h, float64(degrees), true)
	if err := o.provider.Save(rotated, path); err != nil {
		o.metrics.RecordFile(OpRotate, metrics.StatusFailed)
		return err
	}

	size := statSize(path)
	o.metrics.RecordFile(OpRotate, metrics.StatusOK)
	o.metrics.RecordOutputBytes(OpRotate, size)
	o.logger.Info("rotated image", "file", path, "degrees", degrees,
		"width", rotated.Image.Bounds().Dx(), "height", rotated.Image.Bounds().Dy())
	return nil
}
