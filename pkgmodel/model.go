package pkgmodel

import (
	"forge/manifest"
)

// BuildModel is the closed world passed to the target builder.
type BuildModel struct {
	RootPackageName string

	Packages []*Package // ordered list, root first, then deps in resolution order

	CompilerID string // e.g. "gfortran", informational; the compiler.Driver is constructed separately

	FortranFlags []string
	CFlags       []string
	CppFlags     []string
	LinkFlags    []string

	BuildPrefix string

	IncludeDirs     []string
	LinkLibraries   []string
	ExternalModules map[string]bool

	IncludeTests bool
}

// Build assembles resolved packages into a BuildModel: manifests + resolved
// deps feed the source scanner and parser (via Assemble, which calls
// source.Scan/ParseAll) to populate each Package's SourceFile entries.
func Build(resolved []*manifest.ResolvedPackage, buildPrefix string, includeTests bool, externalModules []string) (*BuildModel, error) {
	if len(resolved) == 0 {
		return nil, nil
	}

	model := &BuildModel{
		RootPackageName: resolved[0].Manifest.Name,
		BuildPrefix:     buildPrefix,
		IncludeTests:    includeTests,
		ExternalModules: make(map[string]bool),
	}

	for _, name := range externalModules {
		model.ExternalModules[name] = true
	}

	for i, rp := range resolved {
		pkg, err := Assemble(rp, i == 0, includeTests)
		if err != nil {
			return nil, err
		}
		model.Packages = append(model.Packages, pkg)

		model.IncludeDirs = append(model.IncludeDirs, pkg.Preprocess.IncludeDirs...)
	}

	return model, nil
}
