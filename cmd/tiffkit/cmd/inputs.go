package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/MeKo-Tech/tiffkit/internal/batch"
)

// addInputFlags registers the flags shared by the batch commands that take
// a path list and write into a destination directory.
func addInputFlags(fs *pflag.FlagSet) {
	fs.StringP("dest", "d", "", "destination directory (must exist)")
	fs.Bool("delete-source", false, "delete each source file once its output has been written")
	fs.BoolP("recursive", "r", false, "recursively scan directory arguments")
	fs.StringSlice("include", nil, "file name patterns to include when scanning directories")
	fs.StringSlice("exclude", nil, "file name patterns to exclude when scanning directories")
}

// inputPaths expands directory arguments into the images they contain.
func inputPaths(cmd *cobra.Command, args []string) ([]string, error) {
	opts := batch.DiscoveryOptions{}
	opts.Recursive, _ = cmd.Flags().GetBool("recursive")
	opts.IncludePatterns, _ = cmd.Flags().GetStringSlice("include")
	opts.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")
	return batch.ExpandPaths(args, opts)
}

// destination returns the --dest directory. It is not created.
func destination(cmd *cobra.Command) (string, error) {
	dest, _ := cmd.Flags().GetString("dest")
	if dest == "" {
		return "", fmt.Errorf("--dest is required")
	}
	info, err := os.Stat(dest)
	if err != nil {
		return "", fmt.Errorf("destination directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("destination %s is not a directory", dest)
	}
	return dest, nil
}

// deleteSource resolves --delete-source against the configured default.
func deleteSource(cmd *cobra.Command, configured bool) bool {
	if cmd.Flags().Changed("delete-source") {
		v, _ := cmd.Flags().GetBool("delete-source")
		return v
	}
	return configured
}
