package batch

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/tiffkit/internal/utils"
)

// ConvertOutputPath returns dest/<basename without extension><format extension>.
func ConvertOutputPath(src, dest string, format utils.Format) string {
	base := filepath.Base(src)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dest, base+utils.FormatExtension(format))
}

// ConvertToFormat re-encodes every existing path into dest in the target
// format. With deleteSource, converted originals are removed afterwards.
func (o *Orchestrator) ConvertToFormat(ctx context.Context, paths []string, dest string,
	format utils.Format, deleteSource bool,
) (*Outcome, error) {
	return o.runPerFile(ctx, OpConvert, paths, deleteSource, func(src string) FileResult {
		output := ConvertOutputPath(src, dest, format)
		o.logger.Info("converting image", "file", src, "format", format.String())

		h, err := o.provider.Open(src)
		if err != nil {
			return FileResult{Source: src, Output: output, Status: StatusFailed, Error: err.Error()}
		}
		h.Format = format
		if err := o.provider.Save(h, output); err != nil {
			return FileResult{Source: src, Output: output, Status: StatusFailed, Error: err.Error()}
		}
		return FileResult{Source: src, Output: output, Status: StatusOK, Bytes: statSize(output)}
	})
}
