// Package console implements the progress/console component: a Pretty mode
// with pterm spinners and colored banners, grounded
// directly on logging/display.go's style variables and
// displayBeginPhase/displayEndPhase spinner lifecycle, and a Plain mode that
// falls back to one line per event for non-interactive output (piped logs,
// CI, MSYS ptys that pterm's cursor control mishandles). Mode selection is
// grounded on logging/logger.go's mutex-guarded dispatch, generalized from a
// single global logger to an explicit Console value threaded through the
// build session (Design Notes §9: no module-level singleton).
package console

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

var (
	successColorFG = pterm.FgLightGreen
	successStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	warnColorFG    = pterm.FgYellow
	warnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	errorColorFG   = pterm.FgRed
	errorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	infoColorFG    = successColorFG
)

// Mode selects how progress is rendered.
type Mode int

const (
	// Auto picks Pretty when stdout is a real (non-MSYS) terminal, Plain
	// otherwise.
	Auto Mode = iota
	Pretty
	Plain
)

// Console is the explicit, non-global progress/message sink threaded
// through one build session; every write goes through mu so concurrent
// executor workers never interleave partial lines.
type Console struct {
	mu   sync.Mutex
	mode Mode

	label       string
	regionTotal int
	started     int

	// multi and spinners implement spec.md §4.8's "sticky line per target":
	// one pterm spinner per in-flight target, all attached to the same
	// MultiPrinter so they each own a stable terminal row instead of fighting
	// over one.
	multi    *pterm.MultiPrinter
	spinners map[string]*pterm.SpinnerPrinter
}

// New resolves mode (expanding Auto against the current stdout) and returns
// a ready Console.
func New(mode Mode) *Console {
	if mode == Auto {
		mode = detectMode()
	}
	return &Console{mode: mode}
}

// detectMode assumes a plain isatty check for Pretty mode, with an
// MSYS-pty carve-out: go-isatty.IsCygwinTerminal catches the mintty/MSYS2
// consoles where ANSI cursor movement is unreliable even though the fd is
// an interactive pty.
func detectMode() Mode {
	fd := os.Stdout.Fd()
	if isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return Pretty
	}
	return Plain
}

// Info prints an informational message with tag as a colored prefix.
func (c *Console) Info(tag, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == Pretty {
		successStyleBG.Print(tag)
		infoColorFG.Println(" " + msg)
	} else {
		fmt.Printf("[%s] %s\n", tag, msg)
	}
}

// Warn prints a warning message.
func (c *Console) Warn(tag, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == Pretty {
		warnStyleBG.Print(tag)
		warnColorFG.Println(" " + msg)
	} else {
		fmt.Printf("[%s] warning: %s\n", tag, msg)
	}
}

// Error prints an error message.
func (c *Console) Error(tag string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == Pretty {
		errorStyleBG.Print(tag)
		errorColorFG.Println(" " + err.Error())
	} else {
		fmt.Printf("[%s] error: %s\n", tag, err.Error())
	}
}

// BeginRegion starts one schedule region of numTargets: in Pretty mode it
// opens a MultiPrinter so every target started within the region gets its
// own sticky spinner line; in Plain mode it just prints a header line.
func (c *Console) BeginRegion(regionIdx, numTargets int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.label = fmt.Sprintf("region %d", regionIdx)
	c.regionTotal = numTargets
	c.started = 0

	if c.mode == Pretty {
		mp := pterm.DefaultMultiPrinter
		printer, _ := mp.Start()
		c.multi = printer
		c.spinners = make(map[string]*pterm.SpinnerPrinter, numTargets)
	} else {
		fmt.Printf("== %s: %d targets ==\n", c.label, numTargets)
	}
}

// TargetStarted opens outputFile's own sticky line, labeled
// "<pkg>.<basename> [k/N]" per spec.md §4.8, yellow while it compiles.
func (c *Console) TargetStarted(outputFile string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started++
	label := fmt.Sprintf("%s [%d/%d]", targetLabel(outputFile), c.started, c.regionTotal)

	if c.mode != Pretty || c.multi == nil {
		if c.mode == Plain {
			fmt.Printf("-> %s\n", label)
		}
		return
	}

	spinner, _ := pterm.DefaultSpinner.WithWriter(c.multi.NewWriter()).WithStyle(pterm.NewStyle(warnColorFG)).Start(label)
	c.spinners[outputFile] = spinner
}

// TargetDone reports that outputFile finished, either successfully or with
// the given failure, closing its sticky line green/red in Pretty mode.
func (c *Console) TargetDone(outputFile string, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != Pretty {
		if failed {
			fmt.Printf("FAIL %s\n", outputFile)
		} else {
			fmt.Printf("ok   %s\n", outputFile)
		}
		return
	}

	spinner, ok := c.spinners[outputFile]
	if !ok {
		return
	}
	label := targetLabel(outputFile)
	if failed {
		spinner.Fail(label + " failed")
	} else {
		spinner.Success(label + " done")
	}
	delete(c.spinners, outputFile)
}

// EndRegion closes the MultiPrinter opened by BeginRegion, once every
// target's own sticky line has already resolved via TargetDone.
func (c *Console) EndRegion(success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != Pretty || c.multi == nil {
		return
	}
	c.multi.Stop()
	c.multi = nil
	c.spinners = nil
}

// targetLabel derives spec.md §4.8's "<pkg>.<basename>" from a target's
// output path: build-directory layout (§6) always nests a target under its
// owning package's directory, so the parent directory name is the package.
func targetLabel(outputFile string) string {
	pkg := filepath.Base(filepath.Dir(outputFile))
	base := strings.TrimSuffix(filepath.Base(outputFile), filepath.Ext(outputFile))
	return pkg + "." + base
}

// Summary prints the final pass/fail line, mirroring
// displayCompilationFinished's error/warning count formatting.
func (c *Console) Summary(success bool, failureCount int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != Pretty {
		if success {
			fmt.Println("build succeeded")
		} else {
			fmt.Printf("build failed (%d target(s))\n", failureCount)
		}
		return
	}

	if success {
		successColorFG.Print("All done! ")
		fmt.Println("(0 failures)")
		return
	}

	errorColorFG.Print("Build failed. ")
	fmt.Printf("(%d failure%s)\n", failureCount, plural(failureCount))
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// PrintLog echoes a failed target's captured log to the console, prefixed
// with a divider so it stands out against surrounding progress output
//.
func (c *Console) PrintLog(outputFile string, contents []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("log for %s:\n", outputFile)
	fmt.Println(string(contents))
	fmt.Println(strings.Repeat("-", 40))
}
