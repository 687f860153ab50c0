package support

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/tiffkit/internal/testutil"
)

// TestContext holds the state for integration tests.
type TestContext struct {
	// Command execution state
	LastCommand   string
	LastOutput    string
	LastStderr    string
	LastExitCode  int
	LastStartTime time.Time
	LastDuration  time.Duration

	// Test environment
	OriginalDir string
	TempDir     string
	InputDir    string
	DestDir     string
	envBackup   map[string]*string

	// Renderer stand-in
	Renderer *testutil.FakeIrfanView
}

// NewTestContext creates a scenario context rooted in a fresh temporary
// directory. The process working directory, HOME and XDG_CONFIG_HOME all
// point there so no outside tiffkit.yaml is picked up.
func NewTestContext() (*TestContext, error) {
	originalDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "tiffkit-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	testCtx := &TestContext{
		OriginalDir: originalDir,
		TempDir:     tempDir,
		InputDir:    filepath.Join(tempDir, "in"),
		DestDir:     filepath.Join(tempDir, "out"),
		envBackup:   map[string]*string{},
		Renderer:    &testutil.FakeIrfanView{},
	}
	for _, dir := range []string{testCtx.InputDir, testCtx.DestDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.Chdir(tempDir); err != nil {
		return nil, fmt.Errorf("failed to enter temp directory: %w", err)
	}
	if err := testCtx.SetEnv("HOME", tempDir); err != nil {
		return nil, err
	}
	if err := testCtx.SetEnv("XDG_CONFIG_HOME", tempDir); err != nil {
		return nil, err
	}

	return testCtx, nil
}

// SetEnv sets an environment variable for the rest of the scenario.
func (testCtx *TestContext) SetEnv(name, value string) error {
	if _, saved := testCtx.envBackup[name]; !saved {
		if old, ok := os.LookupEnv(name); ok {
			testCtx.envBackup[name] = &old
		} else {
			testCtx.envBackup[name] = nil
		}
	}
	if err := os.Setenv(name, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", name, err)
	}
	return nil
}

// Cleanup restores the environment and working directory and removes the
// scenario's temporary files.
func (testCtx *TestContext) Cleanup() error {
	var errs []error

	for name, old := range testCtx.envBackup {
		var err error
		if old == nil {
			err = os.Unsetenv(name)
		} else {
			err = os.Setenv(name, *old)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	if err := os.Chdir(testCtx.OriginalDir); err != nil {
		errs = append(errs, fmt.Errorf("failed to restore working directory: %w", err))
	}

	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		errs = append(errs, fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}

// substituteVariables expands {in}, {out} and {tmp} placeholders.
func (testCtx *TestContext) substituteVariables(s string) string {
	return strings.NewReplacer(
		"{in}", testCtx.InputDir,
		"{out}", testCtx.DestDir,
		"{tmp}", testCtx.TempDir,
	).Replace(s)
}

// resolve maps a name relative to the scenario directory to a path.
func (testCtx *TestContext) resolve(name string) string {
	name = testCtx.substituteVariables(name)
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(testCtx.TempDir, name)
}
