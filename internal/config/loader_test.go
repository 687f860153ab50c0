package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// chdirTemp moves the test into an empty directory so no stray
// tiffkit.yaml is picked up, and points HOME and XDG_CONFIG_HOME there too.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "tiffkit.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

// TestLoadWithNoConfigFile tests loading with no config file present.
func TestLoadWithNoConfigFile(t *testing.T) {
	chdirTemp(t)

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != infoLevel {
		t.Errorf("Expected default log level '%s', got %s", infoLevel, cfg.LogLevel)
	}
	if cfg.Renderer.Timeout != "10m0s" {
		t.Errorf("Expected default timeout 10m0s, got %s", cfg.Renderer.Timeout)
	}
	if !cfg.Merge.Lock {
		t.Error("Expected merge lock enabled")
	}
}

// TestLoadFromSearchPath finds tiffkit.yaml in the working directory.
func TestLoadFromSearchPath(t *testing.T) {
	dir := chdirTemp(t)
	writeConfig(t, dir, "output:\n  format: json\n")

	loader := NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Expected output format json, got %s", cfg.Output.Format)
	}
	if filepath.Base(loader.GetConfigFileUsed()) != "tiffkit.yaml" {
		t.Errorf("Unexpected config file used: %s", loader.GetConfigFileUsed())
	}
}

// TestLoadWithValidYAMLFile tests loading from an explicit YAML file.
func TestLoadWithValidYAMLFile(t *testing.T) {
	dir := chdirTemp(t)
	configFile := writeConfig(t, dir, `
log_level: debug
verbose: true
convert:
  target_format: png
  delete_source: true
compress:
  scheme: lzw
merge:
  pdf_backend: pdfcpu
  unique_suffix: true
  lock: false
renderer:
  path: /opt/irfanview/i_view64.exe
  wrapper: wine
  timeout: 2m
metrics:
  textfile: /var/lib/node_exporter/tiffkit.prom
`)

	cfg, err := NewLoader().LoadWithFile(configFile)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}
	if cfg.LogLevel != debugLevel || !cfg.Verbose {
		t.Errorf("Unexpected global settings: %+v", cfg)
	}
	if cfg.Convert.TargetFormat != "png" || !cfg.Convert.DeleteSource {
		t.Errorf("Unexpected convert settings: %+v", cfg.Convert)
	}
	if cfg.Compress.Scheme != "lzw" || cfg.Compress.DeleteSource {
		t.Errorf("Unexpected compress settings: %+v", cfg.Compress)
	}
	if cfg.Merge.PDFBackend != "pdfcpu" || !cfg.Merge.UniqueSuffix || cfg.Merge.Lock {
		t.Errorf("Unexpected merge settings: %+v", cfg.Merge)
	}
	if cfg.Renderer.Wrapper != "wine" || cfg.Renderer.Timeout != "2m" {
		t.Errorf("Unexpected renderer settings: %+v", cfg.Renderer)
	}
	if cfg.Metrics.Textfile == "" {
		t.Error("Expected metrics textfile to be set")
	}
	// Keys absent from the file keep their defaults.
	if cfg.Rotate.Background != "#FFFFFF" {
		t.Errorf("Expected default background, got %s", cfg.Rotate.Background)
	}
}

// TestLoadWithInvalidYAMLFile tests loading from an invalid YAML file.
func TestLoadWithInvalidYAMLFile(t *testing.T) {
	dir := chdirTemp(t)
	configFile := writeConfig(t, dir, `
log_level: debug
  invalid indentation
    more bad indentation
`)

	if _, err := NewLoader().LoadWithFile(configFile); err == nil {
		t.Error("LoadWithFile() expected error for invalid YAML, got nil")
	}
}

// TestLoadWithNonExistentFile tests loading from a non-existent file.
func TestLoadWithNonExistentFile(t *testing.T) {
	if _, err := NewLoader().LoadWithFile("/nonexistent/path/to/tiffkit.yaml"); err == nil {
		t.Error("LoadWithFile() expected error for non-existent file, got nil")
	}
}

// TestLoadWithValidationFailure tests loading with validation failure.
func TestLoadWithValidationFailure(t *testing.T) {
	dir := chdirTemp(t)
	configFile := writeConfig(t, dir, "compress:\n  scheme: jpeg\n")

	if _, err := NewLoader().LoadWithFile(configFile); err == nil {
		t.Error("LoadWithFile() expected validation error, got nil")
	}

	cfg, err := NewLoader().LoadWithFileWithoutValidation(configFile)
	if err != nil {
		t.Fatalf("LoadWithFileWithoutValidation() unexpected error: %v", err)
	}
	if cfg.Compress.Scheme != "jpeg" {
		t.Errorf("Expected raw scheme 'jpeg', got %s", cfg.Compress.Scheme)
	}
}

// TestEnvironmentVariableOverride tests TIFFKIT_* overrides, including
// nested keys.
func TestEnvironmentVariableOverride(t *testing.T) {
	dir := chdirTemp(t)
	configFile := writeConfig(t, dir, "merge:\n  pdf_backend: renderer\n")

	t.Setenv("TIFFKIT_LOG_LEVEL", "debug")
	t.Setenv("TIFFKIT_MERGE_PDF_BACKEND", "pdfcpu")
	t.Setenv("TIFFKIT_MERGE_UNIQUE_SUFFIX", "true")
	t.Setenv("TIFFKIT_RENDERER_TIMEOUT", "30s")

	cfg, err := NewLoader().LoadWithFile(configFile)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}
	if cfg.LogLevel != debugLevel {
		t.Errorf("Expected log level from env, got %s", cfg.LogLevel)
	}
	if cfg.Merge.PDFBackend != "pdfcpu" {
		t.Errorf("Expected env to win over file, got %s", cfg.Merge.PDFBackend)
	}
	if !cfg.Merge.UniqueSuffix {
		t.Error("Expected unique suffix from env")
	}
	if cfg.Renderer.Timeout != "30s" {
		t.Errorf("Expected timeout from env, got %s", cfg.Renderer.Timeout)
	}
}

func TestLoadersAreIndependent(t *testing.T) {
	chdirTemp(t)

	a := NewLoader()
	a.Set("output.format", "csv")
	cfgA, err := a.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	cfgB, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfgA.Output.Format != "csv" || cfgB.Output.Format != "text" {
		t.Errorf("Loaders share state: %s / %s", cfgA.Output.Format, cfgB.Output.Format)
	}
	if a.GetString("output.format") != "csv" {
		t.Errorf("GetString() = %s", a.GetString("output.format"))
	}
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	dir := chdirTemp(t)
	target := filepath.Join(dir, "conf", "tiffkit.yaml")

	written, err := GenerateDefaultConfigFile(target)
	if err != nil {
		t.Fatalf("GenerateDefaultConfigFile() unexpected error: %v", err)
	}
	if written != target {
		t.Errorf("Expected %s, got %s", target, written)
	}

	// The generated file loads back to the defaults.
	cfg, err := NewLoader().LoadWithFile(target)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}
	if *cfg != DefaultConfig() {
		t.Errorf("Round-tripped config differs:\n got %+v\nwant %+v", *cfg, DefaultConfig())
	}

	_, err = GenerateDefaultConfigFile(target)
	if !errors.Is(err, ErrConfigExists) {
		t.Errorf("Expected ErrConfigExists on second call, got %v", err)
	}
}

func TestGenerateDefaultConfigFileWithEmptyFilename(t *testing.T) {
	chdirTemp(t)

	written, err := GenerateDefaultConfigFile("")
	if err != nil {
		t.Fatalf("GenerateDefaultConfigFile() unexpected error: %v", err)
	}
	if written != "tiffkit.yaml" {
		t.Errorf("Expected tiffkit.yaml, got %s", written)
	}
	if _, err := os.Stat(written); err != nil {
		t.Errorf("Expected file to exist: %v", err)
	}
}

func TestGetConfigSearchPaths(t *testing.T) {
	dir := chdirTemp(t)

	paths := GetConfigSearchPaths()
	want := []string{".", dir, filepath.Join(dir, "tiffkit"), "/etc/tiffkit"}
	if len(paths) != len(want) {
		t.Fatalf("Expected %v, got %v", want, paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %s, want %s", i, paths[i], want[i])
		}
	}
}
