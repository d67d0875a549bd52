package source

import (
	"io/ioutil"
	"path/filepath"

	"forge/common"
)

// ExtraExtensions lets a manifest declare additional preprocessed Fortran
// extensions.
type ExtraExtensions struct {
	Fortran []string
}

// Scan enumerates candidate source files under root; assigning a scope to
// them is left to the caller.
// Hidden files are skipped; traversal is recursive when recursive is true.
// Paths already present in seen (keyed by canonical path) are dropped and
// seen is updated with every newly discovered path.
func Scan(root string, recursive bool, extra ExtraExtensions, seen map[string]bool) ([]string, error) {
	var out []string

	var walk func(dir string) error
	walk = func(dir string) error {
		entries, err := ioutil.ReadDir(dir)
		if err != nil {
			return err
		}

		for _, entry := range entries {
			name := entry.Name()
			if common.IsHidden(name) {
				continue
			}

			full := filepath.Join(dir, name)

			if entry.IsDir() {
				if recursive {
					if err := walk(full); err != nil {
						return err
					}
				}
				continue
			}

			if !matchesExtension(full, extra) {
				continue
			}

			canon, err := filepath.Abs(full)
			if err != nil {
				return err
			}
			canon = filepath.Clean(canon)

			if seen[canon] {
				continue
			}
			seen[canon] = true
			out = append(out, canon)
		}

		return nil
	}

	if err := walk(root); err != nil {
		return nil, err
	}

	return out, nil
}

func matchesExtension(path string, extra ExtraExtensions) bool {
	ext := filepath.Ext(path)

	if common.FortranExtensions[ext] || common.CExtensions[ext] {
		return true
	}

	for _, e := range extra.Fortran {
		if ext == e {
			return true
		}
	}

	return false
}
