package batch

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/tiffkit/internal/renderer"
	"github.com/MeKo-Tech/tiffkit/internal/testutil"
)

var testTime = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestOrchestrator wires an orchestrator to a fake IrfanView with a
// fixed clock and a private lock directory.
func newTestOrchestrator(t *testing.T, fake *testutil.FakeIrfanView, opts ...Option) *Orchestrator {
	t.Helper()

	base := []Option{
		WithLogger(quietLogger()),
		WithClock(func() time.Time { return testTime }),
		WithMergeLock(true, t.TempDir()),
	}
	if fake != nil {
		iv, err := renderer.NewIrfanView("i_view64.exe", renderer.WithExecutor(fake),
			renderer.WithLogger(quietLogger()))
		require.NoError(t, err)
		base = append(base, WithRenderer(renderer.NewRouter(iv, renderer.NewPDFCPU(quietLogger()), renderer.BackendRenderer)))
	}
	return New(append(base, opts...)...)
}

// scriptedChecker reports a path as missing once it has been checked more
// than vanishAfter[path] times; otherwise it asks the file system.
type scriptedChecker struct {
	mu          sync.Mutex
	calls       map[string]int
	vanishAfter map[string]int
}

func newScriptedChecker(vanishAfter map[string]int) *scriptedChecker {
	return &scriptedChecker{calls: map[string]int{}, vanishAfter: vanishAfter}
}

func (c *scriptedChecker) Exists(path string) bool {
	c.mu.Lock()
	c.calls[path]++
	n := c.calls[path]
	c.mu.Unlock()
	if limit, ok := c.vanishAfter[path]; ok && n > limit {
		return false
	}
	return OSFileChecker{}.Exists(path)
}

// recordingRemover removes files and records which paths it was asked to
// remove. Paths in fail are not removed and return an error.
type recordingRemover struct {
	mu      sync.Mutex
	removed []string
	fail    map[string]bool
}

func (r *recordingRemover) Remove(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[path] {
		return errors.New("permission denied")
	}
	r.removed = append(r.removed, path)
	return os.Remove(path)
}

// tiffCompressionTag reads tag 259 from the first IFD of a TIFF file.
func tiffCompressionTag(t *testing.T, path string) uint16 {
	t.Helper()

	tag, err := testutil.TIFFCompression(path)
	require.NoError(t, err)
	return tag
}
