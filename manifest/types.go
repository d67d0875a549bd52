// Package manifest decodes and validates the TOML package manifest and
// resolves its declared dependencies into an ordered package list.
package manifest

// Manifest is a package manifest as deserialized from forge.toml.
type Manifest struct {
	Name    string
	Version [3]int // semver triple, at most three components

	Library  *LibrarySection
	Apps     []*ExecutableSection
	Tests    []*ExecutableSection
	Examples []*ExecutableSection

	Dependencies []*Dependency

	Features   Features
	Preprocess Preprocess

	// MetaPackages names external meta-package flag providers (OpenMP, MPI,
	// BLAS, ...) this package's targets should link against; resolved
	// through the metapkg collaborator at flag-composition time.
	MetaPackages []string

	EnforceModuleNames bool
	ModulePrefix       string

	// Root is the absolute path to the directory containing forge.toml.
	Root string
}

// LibrarySection declares the library source directory and its include dirs.
type LibrarySection struct {
	SourceDir   string
	IncludeDirs []string

	// Shared requests a SharedLib target alongside the package's static
	// Archive; emitted only when the library is explicitly declared shared.
	Shared bool
}

// ExecutableSection declares one app/test/example entry.
type ExecutableSection struct {
	Name          string
	Main          string // path to the file containing the Program unit, relative to SourceDir
	SourceDir     string
	LinkLibraries []string
}

// Dependency is one declared dependency of the manifest, resolved either by
// a local path or by a pinned VCS reference. Fetching a VCS dependency is
// out of scope for the core (spec Non-goal); only dependencies with a local
// Path are resolved and built, and Resolve skips one that has only a URL.
type Dependency struct {
	Name    string
	Version string
	Path    string // local filesystem path, resolved relative to the manifest root
	URL     string // informational only; fetching is an external collaborator
}

// Features mirrors the Package.features the target builder reads from.
type Features struct {
	ImplicitTyping   bool
	ImplicitExternal bool
	SourceForm       SourceForm
}

// SourceForm enumerates the Fortran source form.
type SourceForm int

const (
	SourceFormDefault SourceForm = iota
	SourceFormFree
	SourceFormFixed
)

// Preprocess mirrors the Package.preprocess the target builder reads from.
type Preprocess struct {
	Defines      map[string]string
	IncludeDirs  []string
	EnabledLangs map[string]bool // "fortran", "c", "cpp"
}
