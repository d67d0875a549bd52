package pkgmodel

import (
	"strings"

	"forge/builderr"
)

// validateModuleNames enforces the package's module-prefix rule when
// EnforceModuleNames is set. Enforcement is opt-in per package, not global.
func validateModuleNames(pkg *Package) error {
	if !pkg.EnforceModuleNames {
		return nil
	}

	prefix := strings.ToLower(pkg.ModulePrefix)

	for _, f := range pkg.Sources {
		for mod := range f.ProvidedModules {
			if !strings.HasPrefix(mod, prefix) {
				return &builderr.ManifestError{
					Path: f.Path,
					Msg:  "module \"" + mod + "\" does not begin with required prefix \"" + prefix + "\"",
				}
			}
		}
	}

	return nil
}

// DuplicateModuleWarning describes a module name provided by more than one
// package. Module-name uniqueness across packages is a warning, not a hard
// failure, unless the owning package opts into EnforceModuleNames.
type DuplicateModuleWarning struct {
	Module   string
	Packages []string
}

// FindDuplicateModules scans every package in the model for module names
// provided by more than one package.
func FindDuplicateModules(pkgs []*Package) []DuplicateModuleWarning {
	owners := make(map[string][]string)

	for _, pkg := range pkgs {
		for _, f := range pkg.Sources {
			for mod := range f.ProvidedModules {
				owners[mod] = append(owners[mod], pkg.Name)
			}
		}
	}

	var warnings []DuplicateModuleWarning
	for mod, pkgNames := range owners {
		if len(uniqueStrings(pkgNames)) > 1 {
			warnings = append(warnings, DuplicateModuleWarning{Module: mod, Packages: pkgNames})
		}
	}
	return warnings
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
