package config

import (
	"fmt"
	"image/color"
	"slices"
	"strings"
	"time"

	"github.com/MeKo-Tech/tiffkit/internal/renderer"
	"github.com/MeKo-Tech/tiffkit/internal/utils"
)

var (
	validLogLevels     = []string{"debug", "info", "warn", "error"}
	validOutputFormats = []string{"text", "json", "yaml", "csv"}
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Output: OutputConfig{
			Format: "text",
		},
		Convert: ConvertConfig{
			TargetFormat: "tiff",
		},
		Compress: CompressConfig{
			Scheme: string(utils.CompressionDeflate),
		},
		Rotate: RotateConfig{
			Background: "#FFFFFF",
		},
		Merge: MergeConfig{
			PDFBackend: string(renderer.BackendRenderer),
			Lock:       true,
		},
		Renderer: RendererConfig{
			Timeout: renderer.DefaultTimeout.String(),
		},
	}
}

// Validate validates the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if c.Output.Format != "" && !slices.Contains(validOutputFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validOutputFormats, ", "))
	}

	if _, err := c.TargetFormat(); err != nil {
		return fmt.Errorf("invalid convert.target_format: %w", err)
	}
	if _, err := c.CompressionScheme(); err != nil {
		return fmt.Errorf("invalid compress.scheme: %w", err)
	}
	if _, err := c.BackgroundColor(); err != nil {
		return fmt.Errorf("invalid rotate.background: %w", err)
	}
	if _, err := c.PDFBackend(); err != nil {
		return fmt.Errorf("invalid merge.pdf_backend: %w", err)
	}
	if _, err := c.RendererTimeout(); err != nil {
		return fmt.Errorf("invalid renderer.timeout: %w", err)
	}
	if c.Renderer.Wrapper != "" && c.Renderer.Path == "" {
		return fmt.Errorf("renderer.wrapper %q set without renderer.path", c.Renderer.Wrapper)
	}

	return nil
}

// TargetFormat parses convert.target_format.
func (c *Config) TargetFormat() (utils.Format, error) {
	return utils.ParseFormat(c.Convert.TargetFormat)
}

// CompressionScheme parses compress.scheme.
func (c *Config) CompressionScheme() (utils.Compression, error) {
	return utils.ParseCompression(c.Compress.Scheme)
}

// BackgroundColor parses rotate.background.
func (c *Config) BackgroundColor() (color.Color, error) {
	return utils.ParseHexColor(c.Rotate.Background)
}

// PDFBackend parses merge.pdf_backend.
func (c *Config) PDFBackend() (renderer.Backend, error) {
	return renderer.ParseBackend(c.Merge.PDFBackend)
}

// RendererTimeout parses renderer.timeout. An empty value means the
// renderer default.
func (c *Config) RendererTimeout() (time.Duration, error) {
	if c.Renderer.Timeout == "" {
		return renderer.DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Renderer.Timeout)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}
