package source

import (
	"path/filepath"

	"forge/common"
)

// Parse dispatches to the Fortran or C/C++ parser based on extension.
func Parse(path string) (*File, error) {
	ext := filepath.Ext(path)
	if common.FortranExtensions[ext] {
		return ParseFortran(path)
	}
	return ParseC(path)
}

// parseResult pairs a parsed file with its originating path, for channel
// delivery from ParseAll's fan-out goroutines.
type parseResult struct {
	file *File
	err  error
	path string
}

// ParseAll parses every path concurrently -- parsing is embarrassingly
// parallel per file with no cross-file ordering -- and applies
// scope to every resulting file. It returns the parsed files in the same
// order as paths, or the first error encountered.
func ParseAll(paths []string, scope Scope) ([]*File, error) {
	results := make(chan parseResult, len(paths))

	for _, p := range paths {
		go func(p string) {
			f, err := Parse(p)
			results <- parseResult{file: f, err: err, path: p}
		}(p)
	}

	byPath := make(map[string]*File, len(paths))
	var firstErr error
	for i := 0; i < len(paths); i++ {
		r := <-results
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		r.file.Scope = scope
		byPath[r.path] = r.file
	}

	if firstErr != nil {
		return nil, firstErr
	}

	out := make([]*File, 0, len(paths))
	for _, p := range paths {
		out = append(out, byPath[p])
	}
	return out, nil
}
