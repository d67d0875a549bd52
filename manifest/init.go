package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"

	"forge/common"
)

// IsValidIdentifier reports whether idstr is a valid package/module name:
// starting with a letter or underscore, followed by letters, digits, or
// underscores.
func IsValidIdentifier(idstr string) bool {
	if idstr == "" {
		return false
	}
	if !(idstr[0] == '_' || ('a' <= idstr[0] && idstr[0] <= 'z') || ('A' <= idstr[0] && idstr[0] <= 'Z')) {
		return false
	}
	for _, c := range idstr[1:] {
		if c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
			continue
		}
		return false
	}
	return true
}

// Init creates a new manifest file with a default library layout at path.
func Init(name, path string, withApp bool) error {
	manifestPath := filepath.Join(path, common.ManifestFileName)

	if _, err := os.Stat(manifestPath); err == nil {
		return errors.New("manifest file already exists")
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("manifest check failed: %w", err)
	}

	if !IsValidIdentifier(name) {
		return errors.New("package name must be a valid identifier")
	}

	tp := &tomlPackage{
		Name:    name,
		Version: "0.1.0",
		Library: &tomlLibrary{SourceDir: "src"},
	}

	if withApp {
		tp.Executable = []*tomlExecutable{{
			Name:      name,
			Main:      "main.f90",
			SourceDir: "app",
		}}
	}

	f, err := os.Create(manifestPath)
	if err != nil {
		return fmt.Errorf("error creating manifest file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(&tomlManifest{Package: tp}); err != nil {
		return fmt.Errorf("error encoding manifest TOML: %w", err)
	}

	return nil
}
