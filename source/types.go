// Package source discovers and lightly parses source files: scanning
// directories for candidate files and extracting the module
// provide/use graph, include edges, and a content digest from each one
//.
package source

// UnitKind enumerates the kind of compilation unit a source file contains.
type UnitKind int

const (
	UnitUnknown UnitKind = iota
	UnitProgram
	UnitModule
	UnitSubmodule
	UnitSubprogram
	UnitCSource
	UnitCHeader
	UnitCppSource
)

// Scope enumerates which part of a package a file belongs to.
type Scope int

const (
	ScopeUnknown Scope = iota
	ScopeLib
	ScopeDep
	ScopeApp
	ScopeTest
	ScopeExample
)

// File represents one parsed source file on disk.
type File struct {
	Path     string // canonical absolute path
	UnitKind UnitKind
	Scope    Scope

	ProvidedModules map[string]bool
	UsedModules     map[string]bool
	ParentModules   []string
	IncludeDeps     []string

	ExeName       string
	LinkLibraries []string

	// NonLanguageMain is set when ExeName was assigned to a C/C++ source
	// because a manifest executable entry named it as the `main` file
	// directly, rather than because the file itself declared a Fortran
	// `program` unit -- the case where a C/C++ main is linked with a
	// Fortran driver.
	NonLanguageMain bool

	Digest uint64
}

// IsEntryPoint reports whether f is the executable entry point of its
// containing build group: either a Fortran `program` unit, or a C/C++ file
// explicitly named as an executable's `main` file in the manifest.
func (f *File) IsEntryPoint() bool {
	return f.UnitKind == UnitProgram || (f.NonLanguageMain && f.ExeName != "")
}

// NewFile returns an empty File rooted at path, ready for the parser to
// populate.
func NewFile(path string) *File {
	return &File{
		Path:            path,
		ProvidedModules: make(map[string]bool),
		UsedModules:     make(map[string]bool),
	}
}

// intrinsicModules are never tracked as used-module edges.
var intrinsicModules = map[string]bool{
	"iso_c_binding":     true,
	"iso_fortran_env":   true,
	"ieee_arithmetic":   true,
	"omp_lib":           true,
}

// IsIntrinsic reports whether name (already lowercased) is an intrinsic
// module name.
func IsIntrinsic(name string) bool {
	return intrinsicModules[name]
}
