package batch

import (
	"strings"
	"time"
)

// ResultCode is the batch-level verdict.
type ResultCode int

const (
	// ResultSuccess means every input existed and every transform succeeded.
	ResultSuccess ResultCode = 0
	// ResultPartialFailure means at least one input was missing or failed.
	ResultPartialFailure ResultCode = -1
)

// FileStatus is the per-file verdict.
type FileStatus string

const (
	StatusOK     FileStatus = "ok"
	StatusFailed FileStatus = "failed"
)

// noInvalidPaths is what Descriptor reports when every input existed.
const noInvalidPaths = "None"

// FileResult records what happened to one valid input.
type FileResult struct {
	Source string     `json:"source" yaml:"source"`
	Output string     `json:"output,omitempty" yaml:"output,omitempty"`
	Status FileStatus `json:"status" yaml:"status"`
	Bytes  int64      `json:"bytes,omitempty" yaml:"bytes,omitempty"`
	Error  string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// FileError pairs a path with the error raised for it.
type FileError struct {
	Path  string `json:"path" yaml:"path"`
	Error string `json:"error" yaml:"error"`
}

// Outcome is the uniform result of a batch operation.
type Outcome struct {
	Operation         string        `json:"operation" yaml:"operation"`
	ResultCode        ResultCode    `json:"result_code" yaml:"result_code"`
	InvalidPaths      []string      `json:"invalid_paths" yaml:"invalid_paths"`
	Files             []FileResult  `json:"files" yaml:"files"`
	Output            string        `json:"output,omitempty" yaml:"output,omitempty"`
	Deleted           []string      `json:"deleted,omitempty" yaml:"deleted,omitempty"`
	MissingAtDeletion []string      `json:"missing_at_deletion,omitempty" yaml:"missing_at_deletion,omitempty"`
	DeletionFailures  []FileError   `json:"deletion_failures,omitempty" yaml:"deletion_failures,omitempty"`
	Error             string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration          time.Duration `json:"-" yaml:"-"`

	failed bool
}

// Descriptor is the stable two-field result surface.
type Descriptor struct {
	ResultCode       int    `json:"result_code" yaml:"result_code"`
	InvalidFilePaths string `json:"invalid_file_paths" yaml:"invalid_file_paths"`
}

func newOutcome(operation string, invalid []string) *Outcome {
	if invalid == nil {
		invalid = []string{}
	}
	return &Outcome{
		Operation:    operation,
		InvalidPaths: invalid,
		Files:        []FileResult{},
	}
}

// addFile appends a per-file result.
func (o *Outcome) addFile(fr FileResult) {
	if fr.Status != StatusOK {
		o.failed = true
	}
	o.Files = append(o.Files, fr)
}

// fail marks the whole operation as failed with err.
func (o *Outcome) fail(err error) {
	o.failed = true
	if err != nil {
		o.Error = err.Error()
	}
}

// finish sets ResultCode and Duration.
func (o *Outcome) finish(d time.Duration) {
	o.Duration = d
	if o.failed || len(o.InvalidPaths) > 0 {
		o.ResultCode = ResultPartialFailure
	} else {
		o.ResultCode = ResultSuccess
	}
}

// Succeeded returns the sources whose transform succeeded, in order.
func (o *Outcome) Succeeded() []string {
	var out []string
	for _, f := range o.Files {
		if f.Status == StatusOK {
			out = append(out, f.Source)
		}
	}
	return out
}

// Failed returns the per-file results that did not succeed.
func (o *Outcome) Failed() []FileResult {
	var out []FileResult
	for _, f := range o.Files {
		if f.Status != StatusOK {
			out = append(out, f)
		}
	}
	return out
}

// Descriptor returns the result code and the comma-joined invalid paths,
// or "None" when there are none.
func (o *Outcome) Descriptor() Descriptor {
	invalid := noInvalidPaths
	if len(o.InvalidPaths) > 0 {
		invalid = strings.Join(o.InvalidPaths, ",")
	}
	return Descriptor{
		ResultCode:       int(o.ResultCode),
		InvalidFilePaths: invalid,
	}
}
