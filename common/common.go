// Package common holds small, dependency-free helpers shared across the
// build driver: extension sets, the manifest file name, and path checks.
package common

import "path/filepath"

// ManifestFileName is the name of the package manifest file expected at the
// root of every package directory.
const ManifestFileName = "forge.toml"

// Version is the build driver's own version string, reported by `forge version`.
const Version = "0.1.0"

// FortranExtensions are the recognized free/fixed-form Fortran source
// extensions, not counting any user-declared preprocessed extensions.
var FortranExtensions = map[string]bool{
	".f90": true,
	".f":   true,
}

// CExtensions are the recognized C/C++ source and header extensions.
var CExtensions = map[string]bool{
	".c":   true,
	".h":   true,
	".cpp": true,
	".hpp": true,
}

// IsHidden reports whether the base name of path starts with a dot.
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return len(base) > 0 && base[0] == '.'
}
