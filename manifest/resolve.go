package manifest

import (
	"fmt"

	"forge/builderr"
)

// ResolvedPackage pairs a loaded manifest with the packages it, in turn,
// depends on (already resolved), forming the package dependency graph that
// feeds link-order computation.
type ResolvedPackage struct {
	Manifest *Manifest
	DependsOn []*ResolvedPackage
}

// Resolve loads the manifest at rootPath and recursively resolves its
// path-based dependencies, returning the packages in reverse-post-order
// (root first; every package precedes the packages it depends on, so
// siblings end up in the reverse of their declaration order) as required by
// BuildModel.packages. Cycles in the package graph are fatal.
func Resolve(rootPath string) ([]*ResolvedPackage, error) {
	visited := make(map[string]*ResolvedPackage)
	var order []*ResolvedPackage
	visiting := make(map[string]bool)

	var walk func(path string) (*ResolvedPackage, error)
	walk = func(path string) (*ResolvedPackage, error) {
		if visiting[path] {
			return nil, &builderr.CycleError{Kind: "package", Members: []string{path}}
		}
		if rp, ok := visited[path]; ok {
			return rp, nil
		}
		visiting[path] = true
		defer delete(visiting, path)

		m, err := Load(path)
		if err != nil {
			return nil, err
		}

		rp := &ResolvedPackage{Manifest: m}
		visited[path] = rp

		for _, dep := range m.Dependencies {
			if dep.Path == "" {
				// Fetching non-local dependencies is an external
				// collaborator (spec Non-goal); skip silently here the way
				// a vendor-only resolver would treat an already-satisfied
				// remote dependency.
				continue
			}
			depRP, err := walk(dep.Path)
			if err != nil {
				if ce, ok := err.(*builderr.CycleError); ok {
					ce.Members = append(ce.Members, path)
					return nil, ce
				}
				return nil, fmt.Errorf("resolving dependency %s of %s: %w", dep.Name, m.Name, err)
			}
			rp.DependsOn = append(rp.DependsOn, depRP)
		}

		order = append(order, rp)
		return rp, nil
	}

	root, err := walk(rootPath)
	if err != nil {
		return nil, err
	}

	return linkOrder(root), nil
}

// linkOrder flattens the package dependency graph by reverse post-order
// depth-first traversal from root, breaking ties within one recursion level
// by first-encounter order, producing the transitive closure of an
// executable's packages in valid link order.
func linkOrder(root *ResolvedPackage) []*ResolvedPackage {
	var post []*ResolvedPackage
	seen := make(map[*ResolvedPackage]bool)

	var visit func(rp *ResolvedPackage)
	visit = func(rp *ResolvedPackage) {
		if seen[rp] {
			return
		}
		seen[rp] = true
		for _, dep := range rp.DependsOn {
			visit(dep)
		}
		post = append(post, rp)
	}
	visit(root)

	// reverse so that root comes first, dependencies in resolution order
	out := make([]*ResolvedPackage, len(post))
	for i, rp := range post {
		out[len(post)-1-i] = rp
	}
	return out
}
