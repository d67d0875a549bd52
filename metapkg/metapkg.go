// Package metapkg is the small static table of meta-package flag providers
// (OpenMP/MPI/BLAS/HDF5), consulted by the target builder when composing
// per-target compile/link
// flags. Real meta-package resolution typically shells out to pkg-config or
// a vendor-specific wrapper script (mpif90 -show, etc.); this table covers
// the common cases directly and falls back to pkg-config only when asked
// for a name it doesn't recognize.
package metapkg

import (
	"os/exec"
	"strings"
)

// Provider supplies the compile and link flags a meta-package contributes.
type Provider interface {
	CompileFlags() []string
	LinkFlags() []string
}

type staticProvider struct {
	compile []string
	link    []string
}

func (p staticProvider) CompileFlags() []string { return p.compile }
func (p staticProvider) LinkFlags() []string     { return p.link }

var knownProviders = map[string]staticProvider{
	"openmp": {compile: []string{"-fopenmp"}, link: []string{"-fopenmp"}},
	"mpi":    {compile: []string{}, link: []string{"-lmpi", "-lmpi_mpifh"}},
	"blas":   {compile: []string{}, link: []string{"-lblas"}},
	"lapack": {compile: []string{}, link: []string{"-llapack"}},
	"hdf5":   {compile: []string{"-I/usr/include/hdf5/serial"}, link: []string{"-lhdf5_fortran", "-lhdf5"}},
}

// Lookup resolves name to a Provider, falling back to pkg-config when name
// is not one of the table's well-known meta-packages. ok is false if
// neither the table nor pkg-config recognizes name.
func Lookup(name string) (Provider, bool) {
	if p, ok := knownProviders[strings.ToLower(name)]; ok {
		return p, true
	}
	return pkgConfigLookup(name)
}

// pkgConfigLookup shells out to pkg-config for meta-packages the static
// table doesn't cover, the same fallback every build system in the pack
// eventually reaches for when a dependency isn't a first-class citizen
// (e.g. goplus-llar's pkgs/buildsys/cmake invoking an external tool for
// information it doesn't model itself).
func pkgConfigLookup(name string) (Provider, bool) {
	cflags, err := exec.Command("pkg-config", "--cflags", name).Output()
	if err != nil {
		return nil, false
	}
	libs, err := exec.Command("pkg-config", "--libs", name).Output()
	if err != nil {
		return nil, false
	}
	return staticProvider{
		compile: strings.Fields(string(cflags)),
		link:    strings.Fields(string(libs)),
	}, true
}
