package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/tiffkit/internal/utils"
)

// DiscoveryOptions controls how directory arguments are expanded.
type DiscoveryOptions struct {
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string
}

// ExpandPaths turns command line arguments into a path list. Directories
// are replaced by the supported images they contain, in lexical order,
// filtered by the include and exclude patterns. Every other argument is
// kept verbatim, including paths that do not exist, so that validation
// can report them.
func ExpandPaths(args []string, opts DiscoveryOptions) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		files, err := discoverInDirectory(arg, opts)
		if err != nil {
			return nil, fmt.Errorf("cannot scan %s: %w", arg, err)
		}
		paths = append(paths, files...)
	}
	return paths, nil
}

// discoverInDirectory lists supported image files below dir.
func discoverInDirectory(dir string, opts DiscoveryOptions) ([]string, error) {
	var files []string

	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !opts.Recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if utils.IsSupportedImage(path) && shouldIncludeFile(path, opts.IncludePatterns, opts.ExcludePatterns) {
			files = append(files, path)
		}
		return nil
	}

	return files, filepath.WalkDir(dir, walkFn)
}

// shouldIncludeFile determines if a file should be included based on include/exclude patterns.
func shouldIncludeFile(path string, includePatterns, excludePatterns []string) bool {
	if matchesAnyPattern(path, excludePatterns) {
		return false
	}
	if len(includePatterns) == 0 {
		return true
	}
	return matchesAnyPattern(path, includePatterns)
}

// matchesAnyPattern checks if a file's base name matches any of the given patterns.
func matchesAnyPattern(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
