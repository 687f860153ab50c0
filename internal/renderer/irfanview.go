package renderer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DefaultTimeout bounds a single renderer run.
const DefaultTimeout = 10 * time.Minute

const outputTailLines = 20

// Option configures an IrfanView renderer.
type Option func(*IrfanView)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(r *IrfanView) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// WithWrapper runs the renderer through a launcher such as wine.
func WithWrapper(wrapper string) Option {
	return func(r *IrfanView) {
		r.wrapper = strings.TrimSpace(wrapper)
	}
}

// WithTimeout bounds each run. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(r *IrfanView) {
		r.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *IrfanView) {
		if l != nil {
			r.logger = l
		}
	}
}

// IrfanView drives the IrfanView command line (i_view32.exe / i_view64.exe).
type IrfanView struct {
	binary  string
	wrapper string
	timeout time.Duration
	exec    Executor
	logger  *slog.Logger
}

// NewIrfanView constructs a renderer for the executable at binary. The
// executable is invoked by that path; PATH is neither consulted for it nor
// modified.
func NewIrfanView(binary string, opts ...Option) (*IrfanView, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, ErrNotConfigured
	}
	r := &IrfanView{
		binary:  binary,
		timeout: DefaultTimeout,
		exec:    commandExecutor{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// BuildArgs returns the renderer arguments for merging inputs into output:
// /multitif=(out,in1,...,inN) or /multipdf=(...), then /killmesoftly and
// /silent. Each path is one list element, so paths containing the list
// delimiters are rejected.
func BuildArgs(mode Mode, output string, inputs []string) ([]string, error) {
	var flag string
	switch mode {
	case ModeTIFF:
		flag = "/multitif"
	case ModePDF:
		flag = "/multipdf"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}
	if len(inputs) == 0 {
		return nil, errors.New("no input files")
	}

	list := make([]string, 0, len(inputs)+1)
	for _, p := range append([]string{output}, inputs...) {
		if strings.ContainsAny(p, ",()") {
			return nil, fmt.Errorf("%w: %q contains one of , ( )", ErrUnsafePath, p)
		}
		list = append(list, p)
	}

	return []string{
		flag + "=(" + strings.Join(list, ",") + ")",
		"/killmesoftly",
		"/silent",
	}, nil
}

// Command returns the executable and full argument vector for a merge,
// including the wrapper if one is configured.
func (r *IrfanView) Command(mode Mode, output string, inputs []string) (string, []string, error) {
	args, err := BuildArgs(mode, output, inputs)
	if err != nil {
		return "", nil, err
	}
	if r.wrapper != "" {
		return r.wrapper, append([]string{r.binary}, args...), nil
	}
	return r.binary, args, nil
}

// Merge runs the renderer once and waits for it. Only the process outcome
// is checked here; see Verify for the output probe.
func (r *IrfanView) Merge(ctx context.Context, mode Mode, output string, inputs []string) error {
	binary, args, err := r.Command(mode, output, inputs)
	if err != nil {
		return err
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	tail := newTailBuffer(outputTailLines)
	start := time.Now()
	r.logger.Info("running renderer", "binary", binary, "mode", mode.String(),
		"output", output, "inputs", len(inputs))

	runErr := r.exec.Run(ctx, binary, args, func(line string) {
		r.logger.Debug("renderer output", "line", line)
		tail.add(line)
	})

	elapsed := time.Since(start).Round(time.Millisecond)
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: timed out after %s: %s", ErrRendererFailed, r.timeout, tail)
	case ctx.Err() != nil:
		return fmt.Errorf("%w: %w", ErrRendererFailed, ctx.Err())
	case runErr != nil:
		if tail.String() != "" {
			return fmt.Errorf("%w: %w: %s", ErrRendererFailed, runErr, tail)
		}
		return fmt.Errorf("%w: %w", ErrRendererFailed, runErr)
	}

	r.logger.Info("renderer finished", "output", output, "duration", elapsed.String())
	return nil
}
