package schedule

import (
	"os"
	"path/filepath"
	"testing"

	"forge/cache"
	"forge/target"
)

// buildChain lays out a-object -> main-object -> executable, a shorter
// version of the chain TestSort_ModuleChain uses, with real files on disk so
// cache.Valid has something to stat.
func buildChain(t *testing.T, dir string) (g *target.Graph, roots []target.Handle, a, main, exe target.Handle) {
	t.Helper()
	g = &target.Graph{}

	a = newObj(g, dir, "a")
	main = newObj(g, dir, "main")
	g.Get(main).Dependencies = append(g.Get(main).Dependencies, target.Edge{To: a, Kind: target.Compile})

	exe = g.Add(&target.Target{
		Kind:       target.Executable,
		OutputFile: filepath.Join(dir, "main"),
		SourceIdx:  -1,
		PackageIdx: 0,
	})
	g.Get(exe).Dependencies = append(g.Get(exe).Dependencies, target.Edge{To: main, Kind: target.Compile})

	roots = []target.Handle{exe}
	return
}

// writeOutputsAndCache simulates a successful build of every target in g: it
// creates each target's output_file on disk and writes its current
// DigestExpected to the sibling cache file, the two preconditions
// cache.Valid checks.
func writeOutputsAndCache(t *testing.T, g *target.Graph) {
	t.Helper()
	for _, tg := range g.Targets {
		if err := os.WriteFile(tg.OutputFile, []byte("built"), 0o644); err != nil {
			t.Fatalf("WriteFile(%s): %v", tg.OutputFile, err)
		}
		if err := cache.Write(tg.OutputFile, tg.DigestExpected); err != nil {
			t.Fatalf("cache.Write(%s): %v", tg.OutputFile, err)
		}
	}
}

// TestSort_SecondBuildWithNoChangesIsEmpty covers spec.md §8 scenario S1 and
// invariant 4: once every target's output and cache file reflect a prior
// successful build and nothing upstream changed, a second Sort must mark
// every target skip and return an empty queue -- zero commands, the executor
// never invoked at all.
func TestSort_SecondBuildWithNoChangesIsEmpty(t *testing.T) {
	dir := t.TempDir()
	g, roots, _, _, _ := buildChain(t, dir)

	if _, err := Sort(g, roots); err != nil {
		t.Fatalf("first Sort: %v", err)
	}
	writeOutputsAndCache(t, g)

	for _, tg := range g.Targets {
		tg.Sorted, tg.Visiting, tg.Skip, tg.Region = false, false, false, 0
	}

	q, err := Sort(g, roots)
	if err != nil {
		t.Fatalf("second Sort: %v", err)
	}

	if len(q.Targets) != 0 {
		t.Fatalf("expected an empty queue on an unchanged rebuild, got %d targets", len(q.Targets))
	}
	for _, tg := range g.Targets {
		if !tg.Skip {
			t.Errorf("target %s should be marked skip on an unchanged rebuild", tg.OutputFile)
		}
	}
}

// TestSort_TouchedSourcePropagatesRebuild covers spec.md §8 invariant 5:
// editing one source file must force a rebuild of exactly that target and
// everything depending on it (here: main's object and the executable), while
// leaving an unrelated target (a's object) skip.
func TestSort_TouchedSourcePropagatesRebuild(t *testing.T) {
	dir := t.TempDir()
	g, roots, a, main, exe := buildChain(t, dir)

	if _, err := Sort(g, roots); err != nil {
		t.Fatalf("first Sort: %v", err)
	}
	writeOutputsAndCache(t, g)

	for _, tg := range g.Targets {
		tg.Sorted, tg.Visiting, tg.Skip, tg.Region = false, false, false, 0
	}

	// Simulate editing main's source: its content digest changes, which
	// changes its own DigestExpected and, transitively, the executable's --
	// but a's object is untouched and should stay skip.
	g.Get(main).SourceDigest ^= 0xff

	q, err := Sort(g, roots)
	if err != nil {
		t.Fatalf("second Sort: %v", err)
	}

	if g.Get(a).Skip != true {
		t.Errorf("a's object should still be skip; nothing about it changed")
	}
	if g.Get(main).Skip {
		t.Errorf("main's object should not be skip after its source changed")
	}
	if g.Get(exe).Skip {
		t.Errorf("the executable should not be skip once its dependency main needs rebuilding")
	}

	rebuilt := make(map[target.Handle]bool)
	for _, h := range q.Targets {
		rebuilt[h] = true
	}
	if rebuilt[a] {
		t.Errorf("a should not appear in the rebuild queue")
	}
	if !rebuilt[main] || !rebuilt[exe] {
		t.Errorf("main and the executable should both appear in the rebuild queue, got %v", q.Targets)
	}
}
