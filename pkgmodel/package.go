// Package pkgmodel assembles manifests, resolved dependencies, and parsed
// sources into Package records, and combines those into the closed-world
// BuildModel passed to the target builder.
package pkgmodel

import (
	"fmt"
	"path/filepath"

	"forge/manifest"
	"forge/source"
)

// Package is a resolvable unit (root or dependency).
type Package struct {
	Name    string
	Version [3]int

	Sources []*source.File

	Features   manifest.Features
	Preprocess manifest.Preprocess

	EnforceModuleNames bool
	ModulePrefix       string
	MetaPackages       []string

	// Shared requests a SharedLib target alongside this package's Archive
	//.
	Shared             bool
	LibraryIncludeDirs []string

	Root   string
	IsRoot bool
}

// Assemble turns one resolved manifest (plus whether it is the build's root
// package) into a Package: it scans and parses the library, app, test, and
// example source directories the manifest declares, and assigns a Scope to
// every resulting SourceFile.
func Assemble(rp *manifest.ResolvedPackage, isRoot bool, includeTests bool) (*Package, error) {
	m := rp.Manifest

	pkg := &Package{
		Name:               m.Name,
		Version:            m.Version,
		Features:           m.Features,
		Preprocess:         m.Preprocess,
		EnforceModuleNames: m.EnforceModuleNames,
		ModulePrefix:       m.ModulePrefix,
		MetaPackages:       m.MetaPackages,
		Root:               m.Root,
		IsRoot:             isRoot,
	}

	seen := make(map[string]bool)

	if m.Library != nil {
		// A dependency's library sources are built like any other library
		//; only its non-library sources are skipped.
		files, err := scanAndParse(m, m.Library.SourceDir, source.ScopeLib, seen)
		if err != nil {
			return nil, err
		}
		pkg.Sources = append(pkg.Sources, files...)
		pkg.Shared = m.Library.Shared
		pkg.LibraryIncludeDirs = m.Library.IncludeDirs
	}

	if isRoot {
		for _, app := range m.Apps {
			files, err := scanAndParseExecutable(m, app, source.ScopeApp, seen)
			if err != nil {
				return nil, err
			}
			pkg.Sources = append(pkg.Sources, files...)
		}

		if includeTests {
			for _, test := range m.Tests {
				files, err := scanAndParseExecutable(m, test, source.ScopeTest, seen)
				if err != nil {
					return nil, err
				}
				pkg.Sources = append(pkg.Sources, files...)
			}
		}

		for _, ex := range m.Examples {
			files, err := scanAndParseExecutable(m, ex, source.ScopeExample, seen)
			if err != nil {
				return nil, err
			}
			pkg.Sources = append(pkg.Sources, files...)
		}
	} else {
		// Non-library sources of a dependency are parsed but marked
		// ScopeDep, which the target builder skips when forming build
		// targets.
		for _, app := range m.Apps {
			files, err := scanAndParseExecutable(m, app, source.ScopeDep, seen)
			if err != nil {
				return nil, err
			}
			pkg.Sources = append(pkg.Sources, files...)
		}
	}

	if err := validateModuleNames(pkg); err != nil {
		return nil, err
	}

	return pkg, nil
}

func scanAndParse(m *manifest.Manifest, relDir string, scope source.Scope, seen map[string]bool) ([]*source.File, error) {
	dir := filepath.Join(m.Root, relDir)
	paths, err := source.Scan(dir, true, source.ExtraExtensions{}, seen)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	return source.ParseAll(paths, scope)
}

func scanAndParseExecutable(m *manifest.Manifest, ex *manifest.ExecutableSection, scope source.Scope, seen map[string]bool) ([]*source.File, error) {
	files, err := scanAndParse(m, ex.SourceDir, scope, seen)
	if err != nil {
		return nil, err
	}

	foundProgram := false
	for _, f := range files {
		if f.UnitKind == source.UnitProgram {
			if ex.Name != "" {
				f.ExeName = ex.Name
			}
			f.LinkLibraries = append(f.LinkLibraries, ex.LinkLibraries...)
			foundProgram = true
		}
	}

	// If the manifest names a C/C++ file as this executable's `main` and no
	// Fortran `program` unit turned up among its sources, that C/C++ file is
	// the entry point instead.
	if !foundProgram && ex.Main != "" {
		mainBase := filepath.Base(ex.Main)
		for _, f := range files {
			if filepath.Base(f.Path) != mainBase {
				continue
			}
			if f.UnitKind != source.UnitCSource && f.UnitKind != source.UnitCppSource {
				continue
			}
			f.ExeName = ex.Name
			f.NonLanguageMain = true
			f.LinkLibraries = append(f.LinkLibraries, ex.LinkLibraries...)
		}
	}

	return files, nil
}
