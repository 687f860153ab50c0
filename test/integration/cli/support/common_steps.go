package support

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/tiffkit/cmd/tiffkit/cmd"
)

// iRunCommand executes a tiffkit command line in-process and stores the
// result. The leading "tiffkit" is optional.
func (testCtx *TestContext) iRunCommand(command string) error {
	command = testCtx.substituteVariables(command)
	testCtx.LastCommand = command
	testCtx.LastStartTime = time.Now()

	parts := strings.Fields(command)
	if len(parts) == 0 {
		return errors.New("empty command")
	}
	if parts[0] == "tiffkit" {
		parts = parts[1:]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var stdout, stderr bytes.Buffer
	testCtx.LastExitCode = cmd.Main(ctx, parts, &stdout, &stderr, cmd.WithExecutor(testCtx.Renderer))
	testCtx.LastOutput = stdout.String()
	testCtx.LastStderr = stderr.String()
	testCtx.LastDuration = time.Since(testCtx.LastStartTime)

	return nil
}

// theCommandShouldSucceed verifies the command succeeded.
func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed with exit code %d\nStdout: %s\nStderr: %s",
			testCtx.LastExitCode, testCtx.LastOutput, testCtx.LastStderr)
	}
	return nil
}

// theCommandShouldFail verifies the command failed.
func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command succeeded when it should have failed\nOutput: %s", testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldContain verifies stdout contains specific text.
func (testCtx *TestContext) theOutputShouldContain(expectedText string) error {
	expectedText = testCtx.substituteVariables(expectedText)
	if !strings.Contains(testCtx.LastOutput, expectedText) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s", expectedText, testCtx.LastOutput)
	}
	return nil
}

// theErrorShouldMention verifies stderr contains specific text.
func (testCtx *TestContext) theErrorShouldMention(errorText string) error {
	errorText = testCtx.substituteVariables(errorText)
	if !strings.Contains(testCtx.LastStderr, errorText) {
		return fmt.Errorf("error output does not mention '%s'\nActual stderr: %s", errorText, testCtx.LastStderr)
	}
	return nil
}

// report decodes the JSON outcome printed by the last command.
func (testCtx *TestContext) report() (map[string]interface{}, error) {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(testCtx.LastOutput)), &data); err != nil {
		return nil, fmt.Errorf("output is not valid JSON: %w\nOutput: %s", err, testCtx.LastOutput)
	}
	return data, nil
}

// theOutputShouldBeValidJSON verifies the output is a JSON outcome.
func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	_, err := testCtx.report()
	return err
}

// theResultCodeShouldBe checks result_code in the JSON outcome.
func (testCtx *TestContext) theResultCodeShouldBe(code int) error {
	data, err := testCtx.report()
	if err != nil {
		return err
	}
	got, ok := data["result_code"].(float64)
	if !ok {
		return fmt.Errorf("result_code missing from outcome: %v", data)
	}
	if int(got) != code {
		return fmt.Errorf("expected result_code %d, got %v", code, got)
	}
	return nil
}

// theInvalidFilePathsShouldBe checks invalid_file_paths in the JSON outcome.
func (testCtx *TestContext) theInvalidFilePathsShouldBe(expected string) error {
	data, err := testCtx.report()
	if err != nil {
		return err
	}
	expected = testCtx.substituteVariables(expected)
	if got := data["invalid_file_paths"]; got != expected {
		return fmt.Errorf("expected invalid_file_paths %q, got %v", expected, got)
	}
	return nil
}

// theFileStatusesShouldBe checks the per-file statuses in input order.
func (testCtx *TestContext) theFileStatusesShouldBe(expected string) error {
	data, err := testCtx.report()
	if err != nil {
		return err
	}
	files, _ := data["files"].([]interface{})
	statuses := make([]string, 0, len(files))
	for _, f := range files {
		entry, _ := f.(map[string]interface{})
		status, _ := entry["status"].(string)
		statuses = append(statuses, status)
	}
	if got := strings.Join(statuses, ","); got != expected {
		return fmt.Errorf("expected file statuses %q, got %q", expected, got)
	}
	return nil
}

// theExitCodeShouldBe checks the process exit code.
func (testCtx *TestContext) theExitCodeShouldBe(code string) error {
	want, err := strconv.Atoi(code)
	if err != nil {
		return err
	}
	if testCtx.LastExitCode != want {
		return fmt.Errorf("expected exit code %d, got %d\nStderr: %s", want, testCtx.LastExitCode, testCtx.LastStderr)
	}
	return nil
}

// theEnvironmentVariableIsSetTo sets a variable for the rest of the scenario.
func (testCtx *TestContext) theEnvironmentVariableIsSetTo(name, value string) error {
	return testCtx.SetEnv(name, testCtx.substituteVariables(value))
}

// RegisterCommonSteps registers command execution and outcome steps.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)
	sc.Step(`^the exit code should be (\d+)$`, testCtx.theExitCodeShouldBe)

	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)

	sc.Step(`^the result code should be (-?\d+)$`, testCtx.theResultCodeShouldBe)
	sc.Step(`^the invalid file paths should be "([^"]*)"$`, testCtx.theInvalidFilePathsShouldBe)
	sc.Step(`^the file statuses should be "([^"]*)"$`, testCtx.theFileStatusesShouldBe)

	sc.Step(`^the environment variable "([^"]*)" is set to "([^"]*)"$`, testCtx.theEnvironmentVariableIsSetTo)
}
