// Package install implements the installer: copying a build's executables
// and archives to an install prefix's bin/ and lib/ directories via
// os.MkdirAll and a straightforward copy-then-close loop.
package install

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"forge/target"
)

// Prefix is an install destination: executables land in <prefix>/bin,
// archives and shared libraries in <prefix>/lib.
type Prefix struct {
	Root string
}

// Install copies every Executable, Archive, and SharedLib target in g to
// prefix, skipping targets with no build output on disk (a target the
// scheduler marked skip may never have been rebuilt, but if its output
// already exists from a previous build that is still a valid install
// candidate).
func Install(g *target.Graph, prefix Prefix) error {
	binDir := filepath.Join(prefix.Root, "bin")
	libDir := filepath.Join(prefix.Root, "lib")

	for _, t := range g.Targets {
		dest, ok := destFor(t, binDir, libDir)
		if !ok {
			continue
		}
		if _, err := os.Stat(t.OutputFile); err != nil {
			continue
		}
		if err := copyFile(t.OutputFile, dest); err != nil {
			return fmt.Errorf("installing %s: %w", t.OutputFile, err)
		}
	}
	return nil
}

func destFor(t *target.Target, binDir, libDir string) (string, bool) {
	switch t.Kind {
	case target.Executable:
		return filepath.Join(binDir, filepath.Base(t.OutputFile)), true
	case target.Archive, target.SharedLib:
		return filepath.Join(libDir, filepath.Base(t.OutputFile)), true
	default:
		return "", false
	}
}

func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}

	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	return out.Chmod(info.Mode())
}
