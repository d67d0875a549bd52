package pkgmodel

import (
	"testing"

	"forge/source"
)

func fileProviding(path string, mods ...string) *source.File {
	f := &source.File{Path: path, ProvidedModules: map[string]bool{}}
	for _, m := range mods {
		f.ProvidedModules[m] = true
	}
	return f
}

func TestValidateModuleNames_EnforcedPrefix(t *testing.T) {
	pkg := &Package{
		Name:               "demo",
		EnforceModuleNames: true,
		ModulePrefix:       "demo",
		Sources:            []*source.File{fileProviding("a.f90", "demo_a")},
	}
	if err := validateModuleNames(pkg); err != nil {
		t.Errorf("expected no error for a correctly prefixed module, got %v", err)
	}

	pkg.Sources = []*source.File{fileProviding("b.f90", "other_b")}
	if err := validateModuleNames(pkg); err == nil {
		t.Error("expected a ManifestError for a module missing the required prefix")
	}
}

func TestValidateModuleNames_NotEnforcedByDefault(t *testing.T) {
	pkg := &Package{
		Name:    "demo",
		Sources: []*source.File{fileProviding("b.f90", "anything_goes")},
	}
	if err := validateModuleNames(pkg); err != nil {
		t.Errorf("expected no error when EnforceModuleNames is false, got %v", err)
	}
}

func TestFindDuplicateModules(t *testing.T) {
	pkgA := &Package{Name: "a", Sources: []*source.File{fileProviding("a.f90", "shared")}}
	pkgB := &Package{Name: "b", Sources: []*source.File{fileProviding("b.f90", "shared")}}
	pkgC := &Package{Name: "c", Sources: []*source.File{fileProviding("c.f90", "unique")}}

	warnings := FindDuplicateModules([]*Package{pkgA, pkgB, pkgC})
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly 1", warnings)
	}
	if warnings[0].Module != "shared" {
		t.Errorf("warning module = %q, want shared", warnings[0].Module)
	}
	if len(warnings[0].Packages) != 2 {
		t.Errorf("warning packages = %v, want 2 owners", warnings[0].Packages)
	}
}
