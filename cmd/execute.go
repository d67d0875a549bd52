// Package cmd implements the CLI driver: subcommand parsing and dispatch
// into the core build/schedule/executor pipeline, using olive's
// NewCLI/AddSubcommand/AddPrimaryArg/AddSelectorArg shape for the
// build/run/test/clean/install/new commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	osexec "os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ComedicChimera/olive"

	"forge/builderr"
	"forge/common"
	"forge/compiledb"
	"forge/compiler"
	"forge/console"
	"forge/executor"
	"forge/install"
	"forge/manifest"
	"forge/pkgmodel"
	"forge/schedule"
	"forge/target"
)

// Execute runs the `forge` CLI: it parses os.Args and dispatches to the
// matching subcommand handler.
func Execute() {
	cli := olive.NewCLI("forge", "forge builds and manages Fortran-flavored systems projects", true)

	profileArg := cli.AddSelectorArg("profile", "p", "the build profile", false, []string{"release", "debug"})
	profileArg.SetDefaultValue("release")

	fcArg := cli.AddStringArg("fc", "", "the Fortran compiler to invoke", false)
	fcArg.SetDefaultValue("gfortran")
	ccArg := cli.AddStringArg("cc", "", "the C compiler to invoke", false)
	ccArg.SetDefaultValue("gcc")
	cxxArg := cli.AddStringArg("cxx", "", "the C++ compiler to invoke", false)
	cxxArg.SetDefaultValue("g++")

	buildCmd := cli.AddSubcommand("build", "compile the package at the given path", true)
	buildCmd.AddPrimaryArg("path", "the path to the package to build", false)
	buildCmd.AddFlag("dry-run", "n", "record compile commands without running the compiler")
	buildCmd.AddFlag("tests", "t", "include test executables in the build")

	runCmd := cli.AddSubcommand("run", "build then run an executable", true)
	runCmd.AddPrimaryArg("name", "the executable to run", true)
	runCmd.AddStringArg("path", "", "the path to the package to build", false)

	testCmd := cli.AddSubcommand("test", "build and run every test executable", true)
	testCmd.AddPrimaryArg("path", "the path to the package to build", false)

	cleanCmd := cli.AddSubcommand("clean", "remove build artifacts", true)
	cleanCmd.AddPrimaryArg("path", "the path to the package to clean", false)

	installCmd := cli.AddSubcommand("install", "build then install to a prefix", true)
	installCmd.AddPrimaryArg("path", "the path to the package to build", false)
	installCmd.AddStringArg("prefix", "", "the install prefix", false)

	newCmd := cli.AddSubcommand("new", "create a new package", true)
	newCmd.AddPrimaryArg("name", "the name of the new package", true)
	newCmd.AddFlag("app", "a", "generate an app/ executable entry in addition to the library")

	cli.AddSubcommand("version", "print the forge version", false)

	result, err := olive.ParseArgs(cli, os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "usage error: %v\n", err)
		os.Exit(1)
	}

	opts := globalOptions{
		profile: stringArg(result, "profile", "release"),
		fc:      stringArg(result, "fc", "gfortran"),
		cc:      stringArg(result, "cc", "gcc"),
		cxx:     stringArg(result, "cxx", "g++"),
	}

	subcmdName, subResult, _ := result.Subcommand()
	var exitCode int
	switch subcmdName {
	case "build":
		exitCode = execBuild(subResult, opts)
	case "run":
		exitCode = execRun(subResult, opts)
	case "test":
		exitCode = execTest(subResult, opts)
	case "clean":
		exitCode = execClean(subResult)
	case "install":
		exitCode = execInstall(subResult, opts)
	case "new":
		exitCode = execNew(subResult)
	case "version":
		fmt.Println(common.Version)
	default:
		fmt.Fprintln(os.Stderr, "expected a subcommand")
		exitCode = 1
	}

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

type globalOptions struct {
	profile string
	fc, cc, cxx string
}

func stringArg(result *olive.ArgParseResult, name, fallback string) string {
	if v, ok := result.Arguments[name]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

// session bundles everything one command invocation needs: the resolved
// model, the target graph and its roots, a compiler driver/archiver pair,
// and the explicit
// BuildSession collaborators (console + command table), matching Design
// Notes §9's decision to thread these as values instead of package-level
// singletons.
type session struct {
	model    *pkgmodel.BuildModel
	graph    *target.Graph
	roots    []target.Handle
	driver   compiler.Driver
	archiver compiler.Archiver
	con      *console.Console
	db       *compiledb.Table
}

func prepare(path string, opts globalOptions, includeTests bool) (*session, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	resolved, err := manifest.Resolve(absPath)
	if err != nil {
		return nil, err
	}

	buildPrefix := filepath.Join(absPath, "build")
	model, err := pkgmodel.Build(resolved, buildPrefix, includeTests, nil)
	if err != nil {
		return nil, err
	}
	if model == nil {
		return nil, fmt.Errorf("no packages resolved at %s", absPath)
	}

	driver, err := compiler.NewDriver(opts.fc, opts.cc, opts.cxx)
	if err != nil {
		return nil, err
	}
	archiver := compiler.NewArchiver("ar")

	profileFlags := driver.DefaultFlags(profileFor(opts.profile))
	model.FortranFlags = append(append([]string{}, profileFlags...), model.FortranFlags...)
	model.CFlags = append(append([]string{}, profileFlags...), model.CFlags...)
	model.CppFlags = append(append([]string{}, profileFlags...), model.CppFlags...)

	g, roots, err := target.Build(model, driver)
	if err != nil {
		return nil, err
	}

	con := console.New(console.Auto)
	enforcing := make(map[string]*pkgmodel.Package)
	for _, p := range model.Packages {
		if p.EnforceModuleNames {
			enforcing[p.Name] = p
		}
	}
	for _, w := range pkgmodel.FindDuplicateModules(model.Packages) {
		msg := fmt.Sprintf("module %q is provided by more than one package: %v", w.Module, w.Packages)
		for _, name := range w.Packages {
			if p, ok := enforcing[name]; ok {
				return nil, &builderr.ManifestError{Path: p.Root, Msg: msg}
			}
		}
		con.Warn("forge", msg)
	}

	return &session{
		model:    model,
		graph:    g,
		roots:    roots,
		driver:   driver,
		archiver: archiver,
		con:      con,
		db:       compiledb.NewTable(),
	}, nil
}

// runBuild performs the sort + execute + compile_commands.json pass shared
// by build/run/test/install, returning the non-fatal builderr.Report (a nil
// error from this function means the sort itself succeeded; check
// report.Success() for the actual build outcome).
func runBuild(sess *session, dryRun bool) (*builderr.Report, error) {
	q, err := schedule.Sort(sess.graph, sess.roots)
	if err != nil {
		return nil, err
	}

	var regionMu sync.Mutex
	currentRegion := -1
	report := executor.Run(context.Background(), sess.graph, q, sess.driver, sess.archiver, sess.db, executor.Options{
		DryRun: dryRun,
		OnEvent: func(ev executor.Event) {
			regionMu.Lock()
			if ev.Region != currentRegion {
				if currentRegion >= 0 {
					sess.con.EndRegion(true)
				}
				sess.con.BeginRegion(ev.Region, len(q.RegionOf(ev.Region)))
				currentRegion = ev.Region
			}
			regionMu.Unlock()

			if ev.Started {
				sess.con.TargetStarted(ev.OutputFile)
				return
			}
			sess.con.TargetDone(ev.OutputFile, ev.Failed)
			if ev.Failed && ev.LogPath != "" {
				if contents, err := os.ReadFile(ev.LogPath); err == nil {
					sess.con.PrintLog(ev.OutputFile, contents)
				}
			}
		},
	})
	if currentRegion >= 0 {
		sess.con.EndRegion(report.Success())
	}

	if err := sess.db.WriteFile(filepath.Join(sess.model.BuildPrefix, "compile_commands.json")); err != nil {
		sess.con.Warn("forge", "failed to write compile_commands.json: "+err.Error())
	}

	sess.con.Summary(report.Success(), len(report.Failures))
	return report, nil
}

func execBuild(result *olive.ArgParseResult, opts globalOptions) int {
	path := primaryOrDot(result)
	sess, err := prepare(path, opts, result.HasFlag("tests"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "forge: %v\n", err)
		return 1
	}

	report, err := runBuild(sess, result.HasFlag("dry-run"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "forge: %v\n", err)
		return 1
	}
	return report.ExitCode()
}

func execRun(result *olive.ArgParseResult, opts globalOptions) int {
	name, _ := result.PrimaryArg()
	path := stringArg(result, "path", ".")

	sess, err := prepare(path, opts, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "forge: %v\n", err)
		return 1
	}

	report, err := runBuild(sess, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "forge: %v\n", err)
		return 1
	}
	if !report.Success() {
		return report.ExitCode()
	}

	exePath, ok := findExecutable(sess.graph, name)
	if !ok {
		fmt.Fprintf(os.Stderr, "forge: no executable named %q\n", name)
		return 1
	}

	return runExecutable(exePath)
}

func execTest(result *olive.ArgParseResult, opts globalOptions) int {
	path := primaryOrDot(result)
	sess, err := prepare(path, opts, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "forge: %v\n", err)
		return 1
	}

	report, err := runBuild(sess, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "forge: %v\n", err)
		return 1
	}
	if !report.Success() {
		return report.ExitCode()
	}

	testDir := filepath.Join(sess.model.BuildPrefix, "test")
	failures := 0
	for _, t := range sess.graph.Targets {
		if t.Kind != target.Executable {
			continue
		}
		rel, err := filepath.Rel(testDir, t.OutputFile)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		if code := runExecutable(t.OutputFile); code != 0 {
			failures++
		}
	}
	if failures > 0 {
		return 1
	}
	return 0
}

func execClean(result *olive.ArgParseResult) int {
	path := primaryOrDot(result)
	absPath, err := filepath.Abs(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "forge: %v\n", err)
		return 1
	}
	if err := os.RemoveAll(filepath.Join(absPath, "build")); err != nil {
		fmt.Fprintf(os.Stderr, "forge: %v\n", err)
		return 1
	}
	return 0
}

func execInstall(result *olive.ArgParseResult, opts globalOptions) int {
	path := primaryOrDot(result)
	prefix := stringArg(result, "prefix", defaultPrefix())

	sess, err := prepare(path, opts, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "forge: %v\n", err)
		return 1
	}

	report, err := runBuild(sess, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "forge: %v\n", err)
		return 1
	}
	if !report.Success() {
		return report.ExitCode()
	}

	if err := install.Install(sess.graph, install.Prefix{Root: prefix}); err != nil {
		fmt.Fprintf(os.Stderr, "forge: %v\n", err)
		return 1
	}
	return 0
}

func execNew(result *olive.ArgParseResult) int {
	name, _ := result.PrimaryArg()
	workDir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "forge: %v\n", err)
		return 1
	}

	dest := filepath.Join(workDir, name)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "forge: %v\n", err)
		return 1
	}

	if err := manifest.Init(name, dest, result.HasFlag("app")); err != nil {
		fmt.Fprintf(os.Stderr, "forge: %v\n", err)
		return 1
	}
	return 0
}

func primaryOrDot(result *olive.ArgParseResult) string {
	if p, ok := result.PrimaryArg(); ok && p != "" {
		return p
	}
	return "."
}

func profileFor(name string) compiler.Profile {
	if name == "debug" {
		return compiler.Debug
	}
	return compiler.Release
}

func defaultPrefix() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local")
	}
	return "/usr/local"
}

// runExecutable runs path with stdio wired to the current process's own
// streams
// and returns the process's exit code.
func runExecutable(path string) int {
	proc := osexec.Command(path)
	proc.Stdin = os.Stdin
	proc.Stdout = os.Stdout
	proc.Stderr = os.Stderr
	if err := proc.Run(); err != nil {
		if exitErr, ok := err.(*osexec.ExitError); ok {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "forge: %v\n", err)
		return 1
	}
	return 0
}

func findExecutable(g *target.Graph, name string) (string, bool) {
	for _, t := range g.Targets {
		if t.Kind == target.Executable && filepath.Base(t.OutputFile) == name {
			return t.OutputFile, true
		}
	}
	return "", false
}
