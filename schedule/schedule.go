// Package schedule implements the topological sorter: a recursive
// three-color depth-first search over the target graph that detects cycles,
// consults the cache package to mark up-to-date targets skip, and assigns
// each remaining target a schedule_region so the executor knows which
// targets may run in parallel.
//
// The three-color walk (white/grey/black via a visiting/sorted pair of
// marks) is the classic cycle-detecting DFS, applied here to every
// dependency edge (Compile and Link) of a target.Graph.
package schedule

import (
	"sort"

	"forge/builderr"
	"forge/cache"
	"forge/target"
)

// Queue is the region-ordered list of non-skip targets the executor walks,
// plus the boundary offsets separating one region from the next.
type Queue struct {
	Targets []target.Handle

	// RegionStart[i] is the index into Targets where region i begins.
	// len(RegionStart) is the number of non-empty regions.
	RegionStart []int
}

// Sort performs the full topological pass over g: cycle detection, skip propagation
// against the digest cache, and region assignment. roots are the target
// handles to start the DFS from (executables and top-level archives); any
// target unreachable from roots is left untouched (Region 0, Skip false) and
// excluded from the returned Queue, since nothing in the requested build
// depends on it.
func Sort(g *target.Graph, roots []target.Handle) (*Queue, error) {
	var order []target.Handle
	for _, r := range roots {
		if err := visit(g, r, &order); err != nil {
			return nil, err
		}
	}

	target.ComputeExpectedDigests(g, order)

	reached := make(map[target.Handle]bool, len(order))
	for _, h := range order {
		reached[h] = true
	}

	// skipFor consults each dependency's already-computed Skip, so it must
	// run in the same dependency-before-dependent order as the digest pass.
	for _, h := range order {
		t := g.Get(h)
		t.Skip = skipFor(g, t)
	}

	for _, h := range order {
		t := g.Get(h)
		t.Region = regionFor(g, t)
	}

	return buildQueue(g, reached), nil
}

// visit runs the three-color DFS from h, following both Compile and Link
// edges (anything t depends on must have its digest_expected computed first)
// and appends h to *order in post-order once every dependency has been
// visited -- the same post-order a recursive DFS produces for topological
// sort. A cycle is only possible along Compile edges in practice (the
// package resolver already rejects package-graph cycles, and archive/
// executable Link edges only ever point at already-built object/archive
// targets), but the
// visiting mark is checked for any edge kind to stay correct regardless.
func visit(g *target.Graph, h target.Handle, order *[]target.Handle) error {
	t := g.Get(h)
	if t.Sorted {
		return nil
	}
	if t.Visiting {
		return &builderr.CycleError{Kind: "target", Members: []string{t.OutputFile}}
	}

	t.Visiting = true
	for _, e := range t.Dependencies {
		if err := visit(g, e.To, order); err != nil {
			return err
		}
	}
	t.Visiting = false
	t.Sorted = true
	*order = append(*order, h)
	return nil
}

// skipFor reports whether t's cached digest is valid and every dependency is
// also skip: a target's skip also requires all compile-dependency targets
// to be skip, otherwise it is cleared. This spans
// every Dependencies edge, not only Edge{Kind: Compile}: an archive or
// executable's Link edges to its constituent objects are exactly the
// "compile dependencies" that formula means for an aggregate target -- an
// archive must not be marked skip while any object it contains still needs
// rebuilding, even though the edge that says so is labeled Link rather than
// Compile.
func skipFor(g *target.Graph, t *target.Target) bool {
	if !cache.Valid(t.OutputFile, t.DigestExpected) {
		return false
	}
	for _, e := range t.Dependencies {
		if !g.Get(e.To).Skip {
			return false
		}
	}
	return true
}

// regionFor computes 1 + max(region of every dependency), or 0 if t has
// none. Link edges participate here for the same reason they participate in
// skipFor: an archive's region must be strictly after every object target it
// links, and an executable's region must be strictly after the archives (and
// ultimately the objects) it links.
func regionFor(g *target.Graph, t *target.Target) int {
	max := -1
	for _, e := range t.Dependencies {
		if r := g.Get(e.To).Region; r > max {
			max = r
		}
	}
	return max + 1
}

// buildQueue collects every non-skip reached target, ordered by increasing
// Region and ties broken by stable output_file order, and
// records the index where each region begins.
func buildQueue(g *target.Graph, reached map[target.Handle]bool) *Queue {
	var handles []target.Handle
	for h := range reached {
		if !g.Get(h).Skip {
			handles = append(handles, h)
		}
	}

	sort.Slice(handles, func(i, j int) bool {
		ti, tj := g.Get(handles[i]), g.Get(handles[j])
		if ti.Region != tj.Region {
			return ti.Region < tj.Region
		}
		return ti.OutputFile < tj.OutputFile
	})

	q := &Queue{Targets: handles}
	lastRegion := -1
	for i, h := range handles {
		r := g.Get(h).Region
		if r != lastRegion {
			q.RegionStart = append(q.RegionStart, i)
			lastRegion = r
		}
	}
	return q
}

// RegionOf returns the sub-slice of q.Targets belonging to the region
// starting at q.RegionStart[regionIdx].
func (q *Queue) RegionOf(regionIdx int) []target.Handle {
	start := q.RegionStart[regionIdx]
	end := len(q.Targets)
	if regionIdx+1 < len(q.RegionStart) {
		end = q.RegionStart[regionIdx+1]
	}
	return q.Targets[start:end]
}

// NumRegions returns the number of non-empty regions in q.
func (q *Queue) NumRegions() int {
	return len(q.RegionStart)
}
