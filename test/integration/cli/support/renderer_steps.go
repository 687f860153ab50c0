package support

import (
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// fakeRendererPath is what renderer.path points at; the executable is
// never started because the fake executor intercepts the call.
const fakeRendererPath = `C:\Program Files\IrfanView\i_view64.exe`

func (testCtx *TestContext) theRendererIsConfigured() error {
	return testCtx.SetEnv("TIFFKIT_RENDERER_PATH", fakeRendererPath)
}

func (testCtx *TestContext) theRendererWritesNoOutput() error {
	testCtx.Renderer.SkipOutput = true
	return nil
}

func (testCtx *TestContext) theRendererExitsWithAnError() error {
	testCtx.Renderer.Fail = true
	testCtx.Renderer.Lines = []string{"Can't load file"}
	return nil
}

func (testCtx *TestContext) theRendererShouldHaveBeenCalledTimes(n int) error {
	if got := len(testCtx.Renderer.Calls()); got != n {
		return fmt.Errorf("expected %d renderer runs, got %d", n, got)
	}
	return nil
}

// theRendererShouldHaveReceivedPagesInOrder compares input base names.
func (testCtx *TestContext) theRendererShouldHaveReceivedPagesInOrder(list string) error {
	calls := testCtx.Renderer.Calls()
	if len(calls) == 0 {
		return fmt.Errorf("renderer was not called")
	}
	last := calls[len(calls)-1]
	got := make([]string, len(last.Inputs))
	for i, in := range last.Inputs {
		got[i] = in[strings.LastIndexAny(in, `/\`)+1:]
	}
	if want := strings.Join(splitNames(list), ","); strings.Join(got, ",") != want {
		return fmt.Errorf("expected pages %s, got %s", want, strings.Join(got, ","))
	}
	return nil
}

// RegisterRendererSteps registers steps controlling the renderer fake.
func (testCtx *TestContext) RegisterRendererSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the renderer is configured$`, testCtx.theRendererIsConfigured)
	sc.Step(`^the renderer writes no output$`, testCtx.theRendererWritesNoOutput)
	sc.Step(`^the renderer exits with an error$`, testCtx.theRendererExitsWithAnError)
	sc.Step(`^the renderer should have been called (\d+) times?$`, testCtx.theRendererShouldHaveBeenCalledTimes)
	sc.Step(`^the renderer should have received pages "([^"]*)" in order$`, testCtx.theRendererShouldHaveReceivedPagesInOrder)
}
