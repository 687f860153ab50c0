package testutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/image/tiff"

	"github.com/MeKo-Tech/tiffkit/internal/pdf"
)

// ErrFakeRendererExit is the error returned by FakeIrfanView when ExitErr
// is set without a specific error.
var ErrFakeRendererExit = errors.New("exit status 1")

// RendererCall records a single FakeIrfanView invocation.
type RendererCall struct {
	Binary string
	Args   []string
	Output string
	Inputs []string
}

// FakeIrfanView stands in for the IrfanView command line. It parses the
// /multitif=(...) and /multipdf=(...) argument and writes the output file
// the way the real program would. The TIFF it produces holds only the
// first input page, which is enough for header probes.
type FakeIrfanView struct {
	mu    sync.Mutex
	calls []RendererCall

	// Fail makes Run return ExitErr (or ErrFakeRendererExit) after
	// writing output, unless SkipOutput is also set.
	Fail    bool
	ExitErr error
	// SkipOutput leaves no output file behind.
	SkipOutput bool
	// EmptyOutput writes a zero byte output file.
	EmptyOutput bool
	// Lines are reported to the output callback before anything else.
	Lines []string
	// Block waits for context cancellation before returning.
	Block bool
}

// Run implements the renderer executor contract.
func (f *FakeIrfanView) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	call := RendererCall{Binary: binary, Args: append([]string(nil), args...)}
	mode, out, inputs, parseErr := parseMultiArg(args)
	call.Output, call.Inputs = out, inputs

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	for _, line := range f.Lines {
		if onOutput != nil {
			onOutput(line)
		}
	}
	if f.Block {
		<-ctx.Done()
		return ctx.Err()
	}
	if parseErr != nil {
		return parseErr
	}

	if !f.SkipOutput {
		if err := f.writeOutput(mode, out, inputs); err != nil {
			return err
		}
	}
	if f.Fail {
		if f.ExitErr != nil {
			return f.ExitErr
		}
		return ErrFakeRendererExit
	}
	return nil
}

// Calls returns the recorded invocations.
func (f *FakeIrfanView) Calls() []RendererCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RendererCall(nil), f.calls...)
}

func (f *FakeIrfanView) writeOutput(mode, out string, inputs []string) error {
	if f.EmptyOutput {
		return os.WriteFile(out, nil, 0o600)
	}
	if mode == "pdf" {
		return pdf.ImportImages(out, inputs)
	}

	img, err := imaging.Open(inputs[0])
	if err != nil {
		return err
	}
	fh, err := os.Create(out) //nolint:gosec // G304: test output path
	if err != nil {
		return err
	}
	if err := tiff.Encode(fh, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		_ = fh.Close()
		return err
	}
	return fh.Close()
}

// parseMultiArg reads the first /multitif=(...) or /multipdf=(...)
// argument.
func parseMultiArg(args []string) (string, string, []string, error) {
	for _, arg := range args {
		var mode string
		switch {
		case strings.HasPrefix(arg, "/multitif=("):
			mode = "tiff"
		case strings.HasPrefix(arg, "/multipdf=("):
			mode = "pdf"
		default:
			continue
		}
		body := strings.TrimSuffix(arg[len("/multitif=("):], ")")
		parts := strings.Split(body, ",")
		if len(parts) < 2 {
			return mode, "", nil, fmt.Errorf("malformed argument %q", arg)
		}
		return mode, parts[0], parts[1:], nil
	}
	return "", "", nil, fmt.Errorf("no multi-page argument in %v", args)
}
