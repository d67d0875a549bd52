package source

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// A single module source defines exactly one provided module and no
// used modules.
func TestParseFortran_SingleModule(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "m.f90", "module m\nend module m\n")

	f, err := ParseFortran(path)
	if err != nil {
		t.Fatalf("ParseFortran: %v", err)
	}

	if f.UnitKind != UnitModule {
		t.Fatalf("unit kind = %v, want UnitModule", f.UnitKind)
	}
	if !f.ProvidedModules["m"] {
		t.Fatalf("provided modules = %v, want {m}", f.ProvidedModules)
	}
	if len(f.UsedModules) != 0 {
		t.Fatalf("used modules = %v, want none", f.UsedModules)
	}
}

// An intrinsic module use does not appear in used_modules.
func TestParseFortran_IntrinsicModuleIgnored(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "x.f90", "module x\n  use iso_fortran_env\nend module x\n")

	f, err := ParseFortran(path)
	if err != nil {
		t.Fatalf("ParseFortran: %v", err)
	}

	if len(f.UsedModules) != 0 {
		t.Fatalf("used modules = %v, want none (intrinsic excluded)", f.UsedModules)
	}
}

// Explicit `intrinsic` qualifier is also excluded, even for a non-builtin name.
func TestParseFortran_ExplicitIntrinsicQualifier(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "y.f90", "module y\n  use, intrinsic :: custom_intrinsic\nend module y\n")

	f, err := ParseFortran(path)
	if err != nil {
		t.Fatalf("ParseFortran: %v", err)
	}

	if len(f.UsedModules) != 0 {
		t.Fatalf("used modules = %v, want none", f.UsedModules)
	}
}

// A module chain: b uses a and defines b.
func TestParseFortran_ModuleChain(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "b.f90", "module b\n  use a\nend module b\n")

	f, err := ParseFortran(path)
	if err != nil {
		t.Fatalf("ParseFortran: %v", err)
	}

	if !f.UsedModules["a"] {
		t.Fatalf("used modules = %v, want {a}", f.UsedModules)
	}
	if !f.ProvidedModules["b"] {
		t.Fatalf("provided modules = %v, want {b}", f.ProvidedModules)
	}
}

func TestParseFortran_Program(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "main.f90", "program main\n  use b\nend program main\n")

	f, err := ParseFortran(path)
	if err != nil {
		t.Fatalf("ParseFortran: %v", err)
	}

	if f.UnitKind != UnitProgram {
		t.Fatalf("unit kind = %v, want UnitProgram", f.UnitKind)
	}
	if f.ExeName != "main" {
		t.Fatalf("exe name = %q, want main", f.ExeName)
	}
	if !f.UsedModules["b"] {
		t.Fatalf("used modules = %v, want {b}", f.UsedModules)
	}
}

func TestParseFortran_SubmoduleParents(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "s.f90", "submodule (parent_mod:grandparent) sub_name\nend submodule\n")

	f, err := ParseFortran(path)
	if err != nil {
		t.Fatalf("ParseFortran: %v", err)
	}

	if f.UnitKind != UnitSubmodule {
		t.Fatalf("unit kind = %v, want UnitSubmodule", f.UnitKind)
	}
	if !f.ProvidedModules["sub_name"] {
		t.Fatalf("provided modules = %v, want {sub_name}", f.ProvidedModules)
	}
	if len(f.ParentModules) != 1 || f.ParentModules[0] != "parent_mod" {
		t.Fatalf("parent modules = %v, want [parent_mod]", f.ParentModules)
	}
}

func TestParseFortran_UseOnlyContinuation(t *testing.T) {
	dir := t.TempDir()
	src := "module m\n  use a, only: &\n    foo, bar\nend module m\n"
	path := writeTemp(t, dir, "m.f90", src)

	f, err := ParseFortran(path)
	if err != nil {
		t.Fatalf("ParseFortran: %v", err)
	}

	if !f.UsedModules["a"] {
		t.Fatalf("used modules = %v, want {a}", f.UsedModules)
	}
}

func TestParseFortran_IncludeDirective(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "m.f90", "module m\n  include \"defs.inc\"\nend module m\n")

	f, err := ParseFortran(path)
	if err != nil {
		t.Fatalf("ParseFortran: %v", err)
	}

	if len(f.IncludeDeps) != 1 || f.IncludeDeps[0] != "defs.inc" {
		t.Fatalf("include deps = %v, want [defs.inc]", f.IncludeDeps)
	}
}

func TestParseFortran_SelfUseAllowed(t *testing.T) {
	dir := t.TempDir()
	// A file that uses a module it also defines in the same file does not
	// record a used-module edge for that name.
	path := writeTemp(t, dir, "m.f90", "module m\n  use m\nend module m\n")

	f, err := ParseFortran(path)
	if err != nil {
		t.Fatalf("ParseFortran: %v", err)
	}

	if len(f.UsedModules) != 0 {
		t.Fatalf("used modules = %v, want none (self-use excluded)", f.UsedModules)
	}
}

func TestParseFortran_DigestStable(t *testing.T) {
	dir := t.TempDir()
	pathA := writeTemp(t, dir, "a.f90", "module a\nend module a\n")
	pathB := writeTemp(t, dir, "b.f90", "module a\r\nend module a\r\n")

	fa, err := ParseFortran(pathA)
	if err != nil {
		t.Fatalf("ParseFortran a: %v", err)
	}
	fb, err := ParseFortran(pathB)
	if err != nil {
		t.Fatalf("ParseFortran b: %v", err)
	}

	if fa.Digest != fb.Digest {
		t.Fatalf("digests differ across line-ending styles: %x vs %x", fa.Digest, fb.Digest)
	}
}
