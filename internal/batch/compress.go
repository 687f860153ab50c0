package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/tiffkit/internal/utils"
)

// ErrNotTIFF marks a compression input whose extension is not .tif/.tiff.
var ErrNotTIFF = errors.New("not a TIFF file")

// Compress re-saves every existing TIFF path into dest under its original
// base name with the given lossless scheme. Other formats are recorded as
// failed and never deleted. When dest is the source's own directory the
// source is replaced in place and never removed by the deleteSource pass.
func (o *Orchestrator) Compress(ctx context.Context, paths []string, dest string,
	scheme utils.Compression, deleteSource bool,
) (*Outcome, error) {
	if scheme == "" {
		scheme = utils.CompressionDeflate
	}
	return o.runPerFile(ctx, OpCompress, paths, deleteSource, func(src string) FileResult {
		output := filepath.Join(dest, filepath.Base(src))
		if f, err := utils.FormatFromPath(src); err != nil || f != imaging.TIFF {
			o.logger.Warn("skipping non-TIFF input", "file", src)
			return FileResult{Source: src, Output: output, Status: StatusFailed,
				Error: fmt.Errorf("%w: %s", ErrNotTIFF, src).Error()}
		}
		o.logger.Info("compressing image", "file", src, "scheme", string(scheme))

		h, err := o.provider.Open(src)
		if err != nil {
			return FileResult{Source: src, Output: output, Status: StatusFailed, Error: err.Error()}
		}
		o.provider.SetCompression(h, scheme)
		if err := o.provider.Save(h, output); err != nil {
			return FileResult{Source: src, Output: output, Status: StatusFailed, Error: err.Error()}
		}
		return FileResult{Source: src, Output: output, Status: StatusOK, Bytes: statSize(output)}
	})
}
