// Package builderr defines the error taxonomy of the build driver: the
// fatal/non-fatal split described by the error-handling design, expressed as
// plain Go error values instead of a push-to-logger side channel.
package builderr

import "fmt"

// FileNotFound reports that a path the build expected to exist is missing.
type FileNotFound struct {
	Path string
}

func (e *FileNotFound) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

// ParseError reports an unreadable or unrecognizable source file.
type ParseError struct {
	Path   string
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Msg)
}

// ManifestError reports an invalid manifest declaration or conflicting scope.
type ManifestError struct {
	Path string
	Msg  string
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("manifest error in %s: %s", e.Path, e.Msg)
}

// CycleError reports a cycle among the named targets, modules, or packages.
type CycleError struct {
	Kind    string // "module", "target", or "package"
	Members []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s dependency cycle: %v", e.Kind, e.Members)
}

// MissingModuleError reports that a used module has no provider in the model
// and is not declared external.
type MissingModuleError struct {
	Consumer string
	Module   string
}

func (e *MissingModuleError) Error() string {
	return fmt.Sprintf("%s: no provider found for used module %q", e.Consumer, e.Module)
}

// TargetFailure reports a non-fatal failure of a single target's compile,
// archive, or link step. Target failures accumulate; they do not abort the
// whole build immediately, but they stop new regions from being scheduled.
type TargetFailure struct {
	Stage      string // "compile", "archive", or "link"
	OutputFile string
	ExitCode   int
	LogPath    string
	Cause      error
}

func (e *TargetFailure) Error() string {
	return fmt.Sprintf("%s failed for %s (exit %d): see %s", e.Stage, e.OutputFile, e.ExitCode, e.LogPath)
}

func (e *TargetFailure) Unwrap() error { return e.Cause }

// Report aggregates the fatal-or-not outcome of one build invocation: the
// first fatal error encountered (if any) plus every accumulated non-fatal
// target failure.
type Report struct {
	Fatal    error
	Failures []*TargetFailure
}

// Success reports whether the build completed with no fatal error and no
// accumulated target failures.
func (r *Report) Success() bool {
	return r.Fatal == nil && len(r.Failures) == 0
}

// ExitCode returns the process exit code implied by this report.
func (r *Report) ExitCode() int {
	if r.Success() {
		return 0
	}
	return 1
}
