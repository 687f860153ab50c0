package batch

import (
	"log/slog"
	"os"

	"github.com/MeKo-Tech/tiffkit/internal/metrics"
)

// Remover deletes files.
type Remover interface {
	Remove(path string) error
}

type osRemover struct{}

func (osRemover) Remove(path string) error { return os.Remove(path) }

// Cleaner removes source files after a batch operation.
type Cleaner struct {
	checker   FileChecker
	remover   Remover
	logger    *slog.Logger
	metrics   *metrics.Metrics
	operation string
}

// RemoveSources walks paths in order. Each path is checked for existence
// and, if it still exists and eligible allows it, removed. The existence
// check and the removal always target the same path. Results are recorded
// on out; removal failures never undo the operation.
func (c *Cleaner) RemoveSources(paths []string, eligible func(string) bool, out *Outcome) {
	removed := 0
	for _, path := range paths {
		if !c.checker.Exists(path) {
			out.MissingAtDeletion = append(out.MissingAtDeletion, path)
			continue
		}
		if !eligible(path) {
			continue
		}
		if err := c.remover.Remove(path); err != nil {
			c.logger.Error("failed to remove source", "operation", c.operation, "file", path, "error", err)
			out.DeletionFailures = append(out.DeletionFailures, FileError{Path: path, Error: err.Error()})
			continue
		}
		c.logger.Info("removed source", "operation", c.operation, "file", path)
		out.Deleted = append(out.Deleted, path)
		removed++
	}
	c.metrics.RecordDeleted(c.operation, removed)
}
