package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by Format.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
)

// ValidFormats lists the accepted output formats.
var ValidFormats = []string{FormatText, FormatJSON, FormatYAML, FormatCSV}

// report is the serialized form of an Outcome: the outcome itself plus the
// two-field descriptor and a readable duration.
type report struct {
	Outcome          `yaml:",inline"`
	InvalidFilePaths string `json:"invalid_file_paths" yaml:"invalid_file_paths"`
	Duration         string `json:"duration" yaml:"duration"`
}

func newReport(o *Outcome) report {
	return report{
		Outcome:          *o,
		InvalidFilePaths: o.Descriptor().InvalidFilePaths,
		Duration:         o.Duration.Round(time.Millisecond).String(),
	}
}

// Format renders the outcome. pretty selects the rounded table style for
// text output on a terminal. Unknown formats fall back to text.
func (o *Outcome) Format(format string, pretty bool) (string, error) {
	switch format {
	case FormatJSON:
		bts, err := json.MarshalIndent(newReport(o), "", "  ")
		if err != nil {
			return "", err
		}
		return string(bts) + "\n", nil
	case FormatYAML:
		bts, err := yaml.Marshal(newReport(o))
		return string(bts), err
	case FormatCSV:
		return formatCSV(o)
	default:
		return formatText(o, pretty), nil
	}
}

// Save writes the formatted outcome to outputFile, or to w when
// outputFile is empty.
func (o *Outcome) Save(w io.Writer, format, outputFile string, pretty bool) error {
	output, err := o.Format(format, pretty && outputFile == "")
	if err != nil {
		return fmt.Errorf("failed to format outcome: %w", err)
	}
	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}
	_, err = io.WriteString(w, output)
	return err
}

func formatCSV(o *Outcome) (string, error) {
	rows := [][]string{{"source", "output", "status", "bytes", "error"}}
	for _, f := range o.Files {
		rows = append(rows, []string{f.Source, f.Output, string(f.Status), strconv.FormatInt(f.Bytes, 10), f.Error})
	}
	for _, p := range o.InvalidPaths {
		rows = append(rows, []string{p, "", "invalid", "0", "file not found"})
	}

	var output strings.Builder
	writer := csv.NewWriter(&output)
	if err := writer.WriteAll(rows); err != nil {
		return "", err
	}
	return output.String(), nil
}

func operationTitle(op string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(op, "_", " "))
}

func formatText(o *Outcome, pretty bool) string {
	tw := table.NewWriter()
	if pretty {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleLight)
	}
	tw.SetTitle("%s", operationTitle(o.Operation))
	tw.AppendHeader(table.Row{"Source", "Output", "Status", "Size", "Error"})
	for _, f := range o.Files {
		size := ""
		if f.Bytes > 0 {
			size = humanize.Bytes(uint64(f.Bytes))
		}
		tw.AppendRow(table.Row{f.Source, f.Output, string(f.Status), size, f.Error})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, WidthMax: 60},
	})

	var b strings.Builder
	b.WriteString(tw.Render())
	b.WriteString("\n")

	d := o.Descriptor()
	fmt.Fprintf(&b, "Result code: %d\n", d.ResultCode)
	if o.Output != "" {
		fmt.Fprintf(&b, "Output: %s\n", o.Output)
	}
	if o.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", o.Error)
	}
	if len(o.InvalidPaths) > 0 {
		b.WriteString("Invalid files:\n")
		for _, p := range o.InvalidPaths {
			fmt.Fprintf(&b, "  %s\n", p)
		}
	} else {
		fmt.Fprintf(&b, "Invalid files: %s\n", d.InvalidFilePaths)
	}
	if len(o.Deleted) > 0 {
		fmt.Fprintf(&b, "Deleted sources: %d\n", len(o.Deleted))
	}
	if len(o.MissingAtDeletion) > 0 {
		fmt.Fprintf(&b, "Missing at deletion: %s\n", strings.Join(o.MissingAtDeletion, ", "))
	}
	for _, f := range o.DeletionFailures {
		fmt.Fprintf(&b, "Could not delete %s: %s\n", f.Path, f.Error)
	}
	fmt.Fprintf(&b, "Duration: %s\n", o.Duration.Round(time.Millisecond))
	return b.String()
}
