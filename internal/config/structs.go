//nolint:lll
package config

// Config represents the complete configuration for tiffkit. Every
// subcommand reads its defaults from here; values come from the config
// file, TIFFKIT_* environment variables and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Outcome rendering
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Per-operation defaults
	Convert  ConvertConfig  `mapstructure:"convert" yaml:"convert" json:"convert"`
	Compress CompressConfig `mapstructure:"compress" yaml:"compress" json:"compress"`
	Rotate   RotateConfig   `mapstructure:"rotate" yaml:"rotate" json:"rotate"`
	Merge    MergeConfig    `mapstructure:"merge" yaml:"merge" json:"merge"`

	// External renderer executable
	Renderer RendererConfig `mapstructure:"renderer" yaml:"renderer" json:"renderer"`

	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
}

// OutputConfig controls how an outcome is printed.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// ConvertConfig holds defaults for the convert command.
type ConvertConfig struct {
	TargetFormat string `mapstructure:"target_format" yaml:"target_format" json:"target_format"`
	DeleteSource bool   `mapstructure:"delete_source" yaml:"delete_source" json:"delete_source"`
}

// CompressConfig holds defaults for the compress command.
type CompressConfig struct {
	Scheme       string `mapstructure:"scheme" yaml:"scheme" json:"scheme"`
	DeleteSource bool   `mapstructure:"delete_source" yaml:"delete_source" json:"delete_source"`
}

// RotateConfig holds defaults for the rotate command.
type RotateConfig struct {
	Background string `mapstructure:"background" yaml:"background" json:"background"`
}

// MergeConfig holds defaults for the merge commands.
type MergeConfig struct {
	DeleteSource bool   `mapstructure:"delete_source" yaml:"delete_source" json:"delete_source"`
	PDFBackend   string `mapstructure:"pdf_backend" yaml:"pdf_backend" json:"pdf_backend"`
	UniqueSuffix bool   `mapstructure:"unique_suffix" yaml:"unique_suffix" json:"unique_suffix"`
	Lock         bool   `mapstructure:"lock" yaml:"lock" json:"lock"`
	LockDir      string `mapstructure:"lock_dir" yaml:"lock_dir" json:"lock_dir"`
}

// RendererConfig locates the IrfanView executable. Timeout is a Go
// duration string such as "10m".
type RendererConfig struct {
	Path    string `mapstructure:"path" yaml:"path" json:"path"`
	Wrapper string `mapstructure:"wrapper" yaml:"wrapper" json:"wrapper"`
	Timeout string `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile" json:"textfile"`
}
