// Package executor implements the region-by-region dispatcher: it walks a
// schedule.Queue one region at a time, running every target in a region
// concurrently (bounded by an errgroup limit) and enforcing a strict
// happens-before barrier between regions before the next one starts.
package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"forge/builderr"
	"forge/cache"
	"forge/compiledb"
	"forge/compiler"
	"forge/schedule"
	"forge/target"
)

// Event is one progress notification emitted as targets start and finish,
// consumed by the console package.
type Event struct {
	OutputFile string
	Region     int
	Started    bool
	Failed     bool
	ExitCode   int
	LogPath    string
}

// Options configures one Run.
type Options struct {
	Jobs   int // 0 means runtime.GOMAXPROCS(0)
	DryRun bool
	OnEvent func(Event)
}

// Run walks q region by region, invoking driver/archiver for every non-skip
// target, returning an aggregate builderr.Report. Regions after the first
// failing one are never started; workers already running in a failing
// region are allowed to finish.
func Run(ctx context.Context, g *target.Graph, q *schedule.Queue, driver compiler.Driver, archiver compiler.Archiver, db *compiledb.Table, opts Options) *builderr.Report {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	report := &builderr.Report{}

	for ri := 0; ri < q.NumRegions(); ri++ {
		region := q.RegionOf(ri)

		eg, egctx := errgroup.WithContext(ctx)
		eg.SetLimit(min(jobs, len(region)))

		var mu sync.Mutex
		var failures []*builderr.TargetFailure

		for _, h := range region {
			h := h
			eg.Go(func() error {
				if opts.OnEvent != nil {
					opts.OnEvent(Event{OutputFile: g.Get(h).OutputFile, Region: ri, Started: true})
				}

				failure := runOne(egctx, g, h, driver, archiver, db, opts.DryRun)

				if opts.OnEvent != nil {
					ev := Event{OutputFile: g.Get(h).OutputFile, Region: ri}
					if failure != nil {
						ev.Failed = true
						ev.ExitCode = failure.ExitCode
						ev.LogPath = failure.LogPath
					}
					opts.OnEvent(ev)
				}

				if failure != nil {
					mu.Lock()
					failures = append(failures, failure)
					mu.Unlock()
				}
				return nil
			})
		}

		eg.Wait()

		if len(failures) > 0 {
			sort.Slice(failures, func(i, j int) bool { return failures[i].OutputFile < failures[j].OutputFile })
			report.Failures = append(report.Failures, failures...)
			return report // no region after a failing one is scheduled
		}
	}

	return report
}

// runOne assembles and runs the command for one target, writing its log
// and, on success, its digest cache entry and compile_commands record. In
// dry-run mode nothing is run and no log or digest is written; only the
// compile_commands record is added.
func runOne(ctx context.Context, g *target.Graph, h target.Handle, driver compiler.Driver, archiver compiler.Archiver, db *compiledb.Table, dryRun bool) *builderr.TargetFailure {
	t := g.Get(h)

	if err := os.MkdirAll(filepath.Dir(t.OutputFile), 0o755); err != nil {
		return &builderr.TargetFailure{Stage: stageFor(t.Kind), OutputFile: t.OutputFile, ExitCode: -1, Cause: err}
	}
	logPath := t.OutputFile + ".log"

	if dryRun {
		recordCommand(db, t, driver)
		return nil
	}

	exitCode, err := dispatch(ctx, g, t, driver, archiver, logPath)
	if err != nil {
		return &builderr.TargetFailure{Stage: stageFor(t.Kind), OutputFile: t.OutputFile, ExitCode: exitCode, LogPath: logPath, Cause: err}
	}
	if exitCode != 0 {
		return &builderr.TargetFailure{Stage: stageFor(t.Kind), OutputFile: t.OutputFile, ExitCode: exitCode, LogPath: logPath}
	}

	if err := cache.Write(t.OutputFile, t.DigestExpected); err != nil {
		return &builderr.TargetFailure{Stage: stageFor(t.Kind), OutputFile: t.OutputFile, ExitCode: 0, LogPath: logPath, Cause: err}
	}
	recordCommand(db, t, driver)
	return nil
}

func dispatch(ctx context.Context, g *target.Graph, t *target.Target, driver compiler.Driver, archiver compiler.Archiver, logPath string) (int, error) {
	src := t.SourcePath
	flags := allFlags(t)

	switch t.Kind {
	case target.FortranObject:
		return driver.CompileFortran(ctx, src, t.OutputFile, flags, logPath)
	case target.CObject:
		return driver.CompileC(ctx, src, t.OutputFile, flags, logPath)
	case target.CppObject:
		return driver.CompileCpp(ctx, src, t.OutputFile, flags, logPath)
	case target.Archive:
		return archiver.Archive(ctx, linkInputs(g, t), t.OutputFile, len(t.Dependencies) > 64, logPath)
	case target.Executable:
		return driver.LinkExecutable(ctx, linkInputs(g, t), t.OutputFile, t.LinkFlags, logPath)
	case target.SharedLib:
		return driver.LinkShared(ctx, linkInputs(g, t), t.OutputFile, t.LinkFlags, logPath)
	default:
		return -1, fmt.Errorf("executor: unhandled target kind %s", t.Kind)
	}
}

func linkInputs(g *target.Graph, t *target.Target) []string {
	var ins []string
	for _, e := range t.Dependencies {
		if e.Kind == target.Link || e.Kind == target.Compile {
			ins = append(ins, g.Get(e.To).OutputFile)
		}
	}
	return ins
}

func allFlags(t *target.Target) []string {
	var flags []string
	flags = append(flags, t.CompileFlags...)
	flags = append(flags, t.IncludeFlags...)
	flags = append(flags, t.PreprocessDefs...)
	return flags
}

func recordCommand(db *compiledb.Table, t *target.Target, driver compiler.Driver) {
	if db == nil {
		return
	}
	var bin string
	switch t.Kind {
	case target.FortranObject:
		bin = driver.FortranBinary()
	case target.CObject:
		bin = driver.CBinary()
	case target.CppObject:
		bin = driver.CppBinary()
	default:
		return // compile_commands.json only ever records compile steps
	}
	db.Add(compiledb.Command{
		Directory: filepath.Dir(t.OutputFile),
		File:      t.SourcePath,
		Arguments: append([]string{bin}, append(allFlags(t), t.SourcePath)...),
	})
}

func stageFor(k target.Kind) string {
	switch k {
	case target.Archive:
		return "archive"
	case target.Executable, target.SharedLib:
		return "link"
	default:
		return "compile"
	}
}
