package batch

import "os"

// FileChecker reports whether a path currently exists.
type FileChecker interface {
	Exists(path string) bool
}

// OSFileChecker checks existence with os.Stat.
type OSFileChecker struct{}

// Exists reports whether os.Stat succeeds on path.
func (OSFileChecker) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Partition splits an input path list by existence. Both slices preserve
// input order and duplicates.
type Partition struct {
	Valid   []string
	Invalid []string
}

// PartitionPaths checks every path once against checker. A nil checker
// uses OSFileChecker.
func PartitionPaths(paths []string, checker FileChecker) Partition {
	if checker == nil {
		checker = OSFileChecker{}
	}
	p := Partition{
		Valid:   make([]string, 0, len(paths)),
		Invalid: []string{},
	}
	for _, path := range paths {
		if checker.Exists(path) {
			p.Valid = append(p.Valid, path)
		} else {
			p.Invalid = append(p.Invalid, path)
		}
	}
	return p
}
