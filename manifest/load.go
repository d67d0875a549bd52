package manifest

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml"

	"forge/builderr"
	"forge/common"
)

// tomlManifest represents the manifest file as it is encoded in TOML.
type tomlManifest struct {
	Package *tomlPackage `toml:"package"`
}

// tomlPackage represents the `[package]` table.
type tomlPackage struct {
	Name                string             `toml:"name"`
	Version             string             `toml:"version"`
	EnforceModuleNames  bool               `toml:"enforce-module-names"`
	ModulePrefix        string             `toml:"module-prefix,omitempty"`
	ImplicitTyping      bool               `toml:"implicit-typing"`
	ImplicitExternal    bool               `toml:"implicit-external"`
	SourceForm          string             `toml:"source-form,omitempty"`
	Library             *tomlLibrary       `toml:"library,omitempty"`
	Executable          []*tomlExecutable  `toml:"executable,omitempty"`
	Test                []*tomlExecutable  `toml:"test,omitempty"`
	Example             []*tomlExecutable  `toml:"example,omitempty"`
	Dependencies        []*tomlDependency  `toml:"dependencies,omitempty"`
	Preprocess          *tomlPreprocess    `toml:"preprocess,omitempty"`
	MetaPackages        []string           `toml:"meta-packages,omitempty"`
}

type tomlLibrary struct {
	SourceDir   string   `toml:"source-dir,omitempty"`
	IncludeDirs []string `toml:"include-dirs,omitempty"`
	Shared      bool     `toml:"shared,omitempty"`
}

type tomlExecutable struct {
	Name          string   `toml:"name"`
	Main          string   `toml:"main,omitempty"`
	SourceDir     string   `toml:"source-dir,omitempty"`
	LinkLibraries []string `toml:"link-libraries,omitempty"`
}

type tomlDependency struct {
	Name    string `toml:"name"`
	Version string `toml:"version,omitempty"`
	Path    string `toml:"path,omitempty"`
	Url     string `toml:"url,omitempty"`
}

type tomlPreprocess struct {
	Defines      map[string]string `toml:"defines,omitempty"`
	IncludeDirs  []string          `toml:"include-dirs,omitempty"`
	EnabledLangs []string          `toml:"enabled-langs,omitempty"`
}

// Load reads and validates the manifest at path/forge.toml. path is the
// absolute path to the package's root directory.
func Load(path string) (*Manifest, error) {
	manifestPath := filepath.Join(path, common.ManifestFileName)

	f, err := os.Open(manifestPath)
	if err != nil {
		return nil, &builderr.FileNotFound{Path: manifestPath}
	}
	defer f.Close()

	buf, err := ioutil.ReadAll(f)
	if err != nil {
		return nil, err
	}

	tm := &tomlManifest{}
	if err := toml.Unmarshal(buf, tm); err != nil {
		return nil, &builderr.ManifestError{Path: manifestPath, Msg: err.Error()}
	}

	if tm.Package == nil {
		return nil, &builderr.ManifestError{Path: manifestPath, Msg: "missing [package] table"}
	}

	return fromTOML(path, tm.Package)
}

func fromTOML(root string, tp *tomlPackage) (*Manifest, error) {
	if tp.Name == "" {
		return nil, &builderr.ManifestError{Path: root, Msg: "missing package name"}
	}

	ver, err := parseSemver(tp.Version)
	if err != nil {
		return nil, &builderr.ManifestError{Path: root, Msg: err.Error()}
	}

	m := &Manifest{
		Name:               tp.Name,
		Version:            ver,
		Root:               root,
		EnforceModuleNames: tp.EnforceModuleNames,
		ModulePrefix:       tp.ModulePrefix,
		MetaPackages:       tp.MetaPackages,
		Features: Features{
			ImplicitTyping:   tp.ImplicitTyping,
			ImplicitExternal: tp.ImplicitExternal,
			SourceForm:       parseSourceForm(tp.SourceForm),
		},
	}

	if m.ModulePrefix == "" {
		m.ModulePrefix = m.Name
	}

	if tp.Library != nil {
		m.Library = &LibrarySection{
			SourceDir:   defaultDir(tp.Library.SourceDir, "src"),
			IncludeDirs: tp.Library.IncludeDirs,
			Shared:      tp.Library.Shared,
		}
	}

	m.Apps = convertExecutables(tp.Executable, "app")
	m.Tests = convertExecutables(tp.Test, "test")
	m.Examples = convertExecutables(tp.Example, "example")

	for _, d := range tp.Dependencies {
		dep := &Dependency{Name: d.Name, Version: d.Version, URL: d.Url}
		if d.Path != "" {
			if filepath.IsAbs(d.Path) {
				dep.Path = d.Path
			} else {
				dep.Path = filepath.Join(root, d.Path)
			}
		}
		m.Dependencies = append(m.Dependencies, dep)
	}

	if tp.Preprocess != nil {
		m.Preprocess.Defines = tp.Preprocess.Defines
		m.Preprocess.IncludeDirs = tp.Preprocess.IncludeDirs
		if len(tp.Preprocess.EnabledLangs) > 0 {
			m.Preprocess.EnabledLangs = make(map[string]bool)
			for _, l := range tp.Preprocess.EnabledLangs {
				m.Preprocess.EnabledLangs[l] = true
			}
		}
	}

	return m, nil
}

func convertExecutables(list []*tomlExecutable, kindDefaultDir string) []*ExecutableSection {
	var out []*ExecutableSection
	for _, e := range list {
		out = append(out, &ExecutableSection{
			Name:          e.Name,
			Main:          e.Main,
			SourceDir:     defaultDir(e.SourceDir, kindDefaultDir),
			LinkLibraries: e.LinkLibraries,
		})
	}
	return out
}

func defaultDir(declared, fallback string) string {
	if declared == "" {
		return fallback
	}
	return declared
}

func parseSourceForm(s string) SourceForm {
	switch strings.ToLower(s) {
	case "free":
		return SourceFormFree
	case "fixed":
		return SourceFormFixed
	default:
		return SourceFormDefault
	}
}

// parseSemver parses a version string of at most three dot-separated
// components into a fixed [3]int triple.
func parseSemver(s string) ([3]int, error) {
	var v [3]int
	if s == "" {
		return v, nil
	}
	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return v, fmt.Errorf("version %q has more than three components", s)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return v, fmt.Errorf("invalid version component %q in %q", p, s)
		}
		v[i] = n
	}
	return v, nil
}
