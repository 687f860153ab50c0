package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/tiffkit/internal/batch"
	"github.com/MeKo-Tech/tiffkit/internal/config"
	"github.com/MeKo-Tech/tiffkit/internal/metrics"
	"github.com/MeKo-Tech/tiffkit/internal/renderer"
	"github.com/MeKo-Tech/tiffkit/internal/transform"
	"github.com/MeKo-Tech/tiffkit/internal/version"
)

// ErrPartialFailure is returned after the outcome has been printed when
// its result code is -1.
var ErrPartialFailure = errors.New("batch finished with invalid or failed files (result_code -1)")

// Option customizes a command tree. Tests use it to swap the renderer
// executable for an in-process fake.
type Option func(*app)

// WithExecutor runs the IrfanView command line through exec.
func WithExecutor(exec renderer.Executor) Option {
	return func(a *app) { a.executor = exec }
}

// WithOrchestratorOptions appends options to every orchestrator the
// commands build.
func WithOrchestratorOptions(opts ...batch.Option) Option {
	return func(a *app) { a.batchOpts = append(a.batchOpts, opts...) }
}

// app is the state shared by one command tree for one execution.
type app struct {
	cfgFile string
	cfg     *config.Config
	loader  *config.Loader
	logger  *slog.Logger
	metrics *metrics.Metrics

	executor  renderer.Executor
	batchOpts []batch.Option
}

// NewRootCommand builds a fresh tiffkit command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	a := &app{logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}

	rootCmd := &cobra.Command{
		Use:   "tiffkit",
		Short: "Batch conversion, compression, rotation and merging of scanned images",
		Long: `tiffkit batch-processes raster image files for archival workflows.

It converts images between formats, recompresses TIFFs losslessly, rotates
images in place and merges many files into a single multi-page TIFF or PDF.
Multi-page output is produced by the IrfanView command line (renderer.path)
or, for PDF, by the built-in pdfcpu backend.

Every batch command reports a result code of 0 when all inputs existed and
were processed, and -1 otherwise, together with the list of missing files.

Examples:
  tiffkit convert scans/ --dest archive/ --to tiff
  tiffkit compress archive/*.tiff --dest archive/ --scheme lzw
  tiffkit rotate page3.png --angle -90
  tiffkit merge pdf page1.png page2.png --dest out/ --format json`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.String())
				return nil
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, true)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/tiffkit, /etc/tiffkit)")
	flags.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("version", false, "print version information and exit")
	flags.StringP("format", "f", "text", "outcome format: text, json, yaml, csv")
	flags.StringP("output", "o", "", "write the outcome to this file instead of stdout")
	flags.String("metrics-textfile", "", "write Prometheus metrics to this file after the run")

	rootCmd.AddCommand(
		newConvertCommand(a),
		newCompressCommand(a),
		newRotateCommand(a),
		newMergeCommand(a),
		newConfigCommand(a),
	)

	return rootCmd
}

// GetRootCommand returns a fresh root command for testing purposes. It
// never calls os.Exit.
func GetRootCommand(opts ...Option) *cobra.Command {
	return NewRootCommand(opts...)
}

// Main runs tiffkit with args and returns the process exit code.
func Main(ctx context.Context, args []string, stdout, stderr io.Writer, opts ...Option) int {
	rootCmd := NewRootCommand(opts...)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

// setup loads configuration, applies persistent flag overrides and
// installs the logger.
func (a *app) setup(cmd *cobra.Command, validate bool) error {
	a.loader = config.NewLoader()
	cfg, err := a.loader.LoadWithFileWithoutValidation(a.cfgFile)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Verbose, _ = flags.GetBool("verbose")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("format") {
		cfg.Output.Format, _ = flags.GetString("format")
	}
	if flags.Changed("output") {
		cfg.Output.File, _ = flags.GetString("output")
	}
	if flags.Changed("metrics-textfile") {
		cfg.Metrics.Textfile, _ = flags.GetString("metrics-textfile")
	}

	if validate {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	a.cfg = cfg

	var logLevel slog.Level
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			logLevel = slog.LevelDebug
		case "warn":
			logLevel = slog.LevelWarn
		case "error":
			logLevel = slog.LevelError
		default:
			logLevel = slog.LevelInfo
		}
	}

	// Logs go to stderr so stdout carries only the outcome.
	a.logger = slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(a.logger)
	a.metrics = metrics.New()

	a.logger.Debug("configuration loaded", "file", a.loader.GetConfigFileUsed())
	return nil
}

// orchestrator builds a batch.Orchestrator from the loaded configuration.
func (a *app) orchestrator() (*batch.Orchestrator, error) {
	cfg := a.cfg

	bg, err := cfg.BackgroundColor()
	if err != nil {
		return nil, err
	}
	scheme, err := cfg.CompressionScheme()
	if err != nil {
		return nil, err
	}
	provider := transform.NewProvider(
		transform.WithBackground(bg),
		transform.WithCompression(scheme),
		transform.WithLogger(a.logger),
	)

	var subprocess renderer.Renderer
	if cfg.Renderer.Path != "" {
		timeout, err := cfg.RendererTimeout()
		if err != nil {
			return nil, err
		}
		ropts := []renderer.Option{
			renderer.WithWrapper(cfg.Renderer.Wrapper),
			renderer.WithTimeout(timeout),
			renderer.WithLogger(a.logger),
		}
		if a.executor != nil {
			ropts = append(ropts, renderer.WithExecutor(a.executor))
		}
		iv, err := renderer.NewIrfanView(cfg.Renderer.Path, ropts...)
		if err != nil {
			return nil, err
		}
		subprocess = iv
	}
	backend, err := cfg.PDFBackend()
	if err != nil {
		return nil, err
	}
	router := renderer.NewRouter(subprocess, renderer.NewPDFCPU(a.logger), backend)

	opts := []batch.Option{
		batch.WithProvider(provider),
		batch.WithRenderer(router),
		batch.WithLogger(a.logger),
		batch.WithMetrics(a.metrics),
		batch.WithUniqueSuffix(cfg.Merge.UniqueSuffix),
		batch.WithMergeLock(cfg.Merge.Lock, cfg.Merge.LockDir),
	}
	return batch.New(append(opts, a.batchOpts...)...), nil
}

// report prints the outcome and maps the result code onto the command
// error.
func (a *app) report(cmd *cobra.Command, out *batch.Outcome, runErr error) error {
	if out != nil {
		stdout := cmd.OutOrStdout()
		if err := out.Save(stdout, a.cfg.Output.Format, a.cfg.Output.File, isTerminal(stdout)); err != nil {
			return err
		}
	}
	a.exportMetrics()

	if runErr != nil {
		return runErr
	}
	if out != nil && out.ResultCode == batch.ResultPartialFailure {
		return ErrPartialFailure
	}
	return nil
}

func (a *app) exportMetrics() {
	if a.cfg.Metrics.Textfile == "" {
		return
	}
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.logger.Warn("failed to write metrics textfile", "file", a.cfg.Metrics.Textfile, "error", err)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
