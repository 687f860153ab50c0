package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/MeKo-Tech/tiffkit/internal/renderer"
)

const (
	mergeTimeLayout    = "2006-01-02_15-04-05"
	mergeNameAttempts  = 8
	lockRetryDelay     = 100 * time.Millisecond
	uniqueSuffixLength = 8
)

// MergeFileName returns Merge<YYYY-MM-DD_HH-MM-SS><ext> for t.
func MergeFileName(t time.Time, mode renderer.Mode) string {
	return "Merge" + t.Format(mergeTimeLayout) + mode.Extension()
}

// randomSuffix returns eight hex characters of a random UUID.
func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:uniqueSuffixLength]
}

// reserveMergePath picks the merge output path in dest. The timestamped
// name is used unless it is taken or unique suffixes are forced, in which
// case _<suffix> is appended before the extension.
func (o *Orchestrator) reserveMergePath(dest string, mode renderer.Mode) (string, error) {
	name := MergeFileName(o.now(), mode)
	candidate := filepath.Join(dest, name)
	if !o.uniqueSuffix && !o.checker.Exists(candidate) {
		return candidate, nil
	}

	base := strings.TrimSuffix(name, mode.Extension())
	for range mergeNameAttempts {
		candidate = filepath.Join(dest, base+"_"+o.newSuffix()+mode.Extension())
		if !o.checker.Exists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free merge file name in %s after %d attempts", dest, mergeNameAttempts)
}

// lockPath returns the lock file guarding merges into dest. The name is
// derived from the absolute destination so every process agrees on it.
func (o *Orchestrator) lockPath(dest string) string {
	abs, err := filepath.Abs(dest)
	if err != nil {
		abs = dest
	}
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(abs)))
	return filepath.Join(o.lockDir, "tiffkit-merge-"+id.String()+".lock")
}

// lockDestination serializes merges into dest across processes. The
// returned function releases the lock.
func (o *Orchestrator) lockDestination(ctx context.Context, dest string) (func(), error) {
	if !o.lockMerges {
		return func() {}, nil
	}
	path := o.lockPath(dest)
	fl := flock.New(path)
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		return nil, errors.New("failed to lock " + path)
	}
	o.logger.Debug("acquired merge lock", "lock", path, "dest", dest)
	return func() {
		if err := fl.Unlock(); err != nil {
			o.logger.Warn("failed to release merge lock", "lock", path, "error", err)
		}
	}, nil
}
