package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func writePkg(t *testing.T, root, name string, depPaths ...string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}

	body := "[package]\nname = \"" + name + "\"\nversion = \"0.1.0\"\n\n[package.library]\nsource-dir = \"src\"\n"
	for _, dp := range depPaths {
		body += "\n[[package.dependencies]]\nname = \"dep\"\npath = \"" + dp + "\"\n"
	}
	writeManifest(t, dir, body)
	return dir
}

// A diamond dependency graph (root -> {b, c} -> a) must
// resolve with root first and a appearing exactly once, after both b and c.
func TestResolve_DiamondLinkOrder(t *testing.T) {
	root := t.TempDir()

	aDir := writePkg(t, root, "a")
	bDir := writePkg(t, root, "b", aDir)
	cDir := writePkg(t, root, "c", aDir)
	rootDir := filepath.Join(root, "root")
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeManifest(t, rootDir, `[package]
name = "root"
version = "0.1.0"

[package.library]
source-dir = "src"

[[package.dependencies]]
name = "b"
path = "`+bDir+`"

[[package.dependencies]]
name = "c"
path = "`+cDir+`"
`)

	resolved, err := Resolve(rootDir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	names := make([]string, len(resolved))
	for i, rp := range resolved {
		names[i] = rp.Manifest.Name
	}

	if names[0] != "root" {
		t.Fatalf("names[0] = %q, want root", names[0])
	}

	aCount, aIdx, bIdx, cIdx := 0, -1, -1, -1
	for i, n := range names {
		switch n {
		case "a":
			aCount++
			aIdx = i
		case "b":
			bIdx = i
		case "c":
			cIdx = i
		}
	}
	if aCount != 1 {
		t.Errorf("a appears %d times in link order, want exactly 1", aCount)
	}
	if aIdx < bIdx || aIdx < cIdx {
		t.Errorf("a must come after both b and c in link order; got order %v", names)
	}
}

func TestResolve_CycleIsFatal(t *testing.T) {
	root := t.TempDir()
	aDir := filepath.Join(root, "a")
	bDir := filepath.Join(root, "b")
	if err := os.MkdirAll(aDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(bDir, 0o755); err != nil {
		t.Fatal(err)
	}

	writeManifest(t, aDir, `[package]
name = "a"
version = "0.1.0"

[package.library]
source-dir = "src"

[[package.dependencies]]
name = "b"
path = "`+bDir+`"
`)
	writeManifest(t, bDir, `[package]
name = "b"
version = "0.1.0"

[package.library]
source-dir = "src"

[[package.dependencies]]
name = "a"
path = "`+aDir+`"
`)

	_, err := Resolve(aDir)
	if err == nil {
		t.Fatal("expected a CycleError for a<->b mutual dependency")
	}
}
