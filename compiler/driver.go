package compiler

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Profile selects a default flag set.
type Profile int

const (
	Release Profile = iota
	Debug
)

// Driver is the compiler abstraction: one instance is chosen once at
// BuildModel construction time and threaded through the executor, never
// switched on per call.
type Driver interface {
	CompileFortran(ctx context.Context, src, out string, flags []string, logPath string) (exitCode int, err error)
	CompileC(ctx context.Context, src, out string, flags []string, logPath string) (exitCode int, err error)
	CompileCpp(ctx context.Context, src, out string, flags []string, logPath string) (exitCode int, err error)
	LinkExecutable(ctx context.Context, objs []string, out string, flags []string, logPath string) (exitCode int, err error)
	LinkShared(ctx context.Context, objs []string, out string, flags []string, logPath string) (exitCode int, err error)

	ModuleOutputFlag(dir string) []string
	IncludeFlag(dir string) []string
	FeatureFlag(feature string) []string
	DefaultFlags(profile Profile) []string
	CheckFlagsSupported(tokens []string) bool

	VendorID() Vendor
	IsGNU() bool
	IsIntel() bool

	// FortranBinary, CBinary, and CppBinary name the executable each
	// Compile*/Link* call above shells out to, for compile_commands.json's
	// "arguments" array, which must begin with the compiler executable
	//.
	FortranBinary() string
	CBinary() string
	CppBinary() string
}

// Archiver is the archiver abstraction.
type Archiver interface {
	Archive(ctx context.Context, objs []string, out string, useResponseFile bool, logPath string) (exitCode int, err error)
}

// genericDriver implements Driver for every vendor the identify() table
// recognizes: the flag vocabulary differs (module-output flag, include
// flag, default flags) but the invocation shape is identical, so a single
// struct parameterized by vendor-specific flag strings covers all of them
// rather than one type per vendor.
type genericDriver struct {
	fortranBin string
	cBin       string
	cxxBin     string

	vendor Vendor

	moduleOutputFlag string // e.g. "-J" for gfortran, "-module " for ifort
	includeFlagToken string // e.g. "-I"
}

// NewDriver constructs a Driver for the compiler found at fortranBin (the C
// and C++ companions are derived by the caller, per-package, from manifest
// configuration or left to the same toolchain's gcc/g++), probing it with
// identify() to pick the vendor. Used by the CLI driver, which only ever
// knows a binary name/path, never a vendor, until it has run the probe.
func NewDriver(fortranBin, cBin, cxxBin string) (Driver, error) {
	return newVendorDriver(identify(fortranBin), fortranBin, cBin, cxxBin), nil
}

// newVendorDriver builds a genericDriver for a known vendor, skipping
// identify()'s version probe entirely.
func newVendorDriver(vendor Vendor, fortranBin, cBin, cxxBin string) Driver {
	return &genericDriver{
		fortranBin:       fortranBin,
		cBin:             cBin,
		cxxBin:           cxxBin,
		vendor:           vendor,
		moduleOutputFlag: moduleOutputFlagFor(vendor),
		includeFlagToken: "-I",
	}
}

// NewGNU constructs a Driver for the GNU compiler collection (gfortran/gcc/
// g++) without probing: the vendor is already known.
func NewGNU(fortranBin, cBin, cxxBin string) Driver {
	return newVendorDriver(GCC, fortranBin, cBin, cxxBin)
}

// NewIntelClassic constructs a Driver for the classic Intel compilers
// (ifort/icc).
func NewIntelClassic(fortranBin, cBin, cxxBin string) Driver {
	return newVendorDriver(IntelClassic, fortranBin, cBin, cxxBin)
}

// NewIntelLLVM constructs a Driver for the LLVM-based Intel oneAPI compilers
// (ifx/icx).
func NewIntelLLVM(fortranBin, cBin, cxxBin string) Driver {
	return newVendorDriver(IntelLLVM, fortranBin, cBin, cxxBin)
}

// NewNVHPC constructs a Driver for the NVIDIA HPC SDK (nvfortran).
func NewNVHPC(fortranBin, cBin, cxxBin string) Driver {
	return newVendorDriver(NVHPC, fortranBin, cBin, cxxBin)
}

// NewNAG constructs a Driver for the NAG Fortran Compiler.
func NewNAG(fortranBin, cBin, cxxBin string) Driver {
	return newVendorDriver(NAG, fortranBin, cBin, cxxBin)
}

// NewLFortran constructs a Driver for LFortran.
func NewLFortran(fortranBin, cBin, cxxBin string) Driver {
	return newVendorDriver(LFortran, fortranBin, cBin, cxxBin)
}

// NewFlangLLVM constructs a Driver for LLVM Flang.
func NewFlangLLVM(fortranBin, cBin, cxxBin string) Driver {
	return newVendorDriver(FlangLLVM, fortranBin, cBin, cxxBin)
}

// NewCray constructs a Driver for the Cray Compiling Environment.
func NewCray(fortranBin, cBin, cxxBin string) Driver {
	return newVendorDriver(Cray, fortranBin, cBin, cxxBin)
}

func moduleOutputFlagFor(v Vendor) string {
	switch v {
	case IntelClassic, IntelLLVM:
		return "-module "
	case NAG:
		return "-mdir "
	case Cray:
		return "-em -J"
	default:
		return "-J"
	}
}

// identify runs bin with each candidate probe flag and matches the captured
// output against versionTable, stopping at the first match.
func identify(bin string) Vendor {
	tried := make(map[string]string)
	for _, p := range versionTable {
		out, ok := tried[p.probeFlag]
		if !ok {
			out = runVersionProbe(bin, p.probeFlag)
			tried[p.probeFlag] = out
		}
		if strings.Contains(out, p.needle) {
			return p.vendor
		}
	}
	return Unknown
}

func runVersionProbe(bin, flag string) string {
	cmd := exec.Command(bin, flag)
	out, _ := cmd.CombinedOutput()
	return string(out)
}

func (d *genericDriver) VendorID() Vendor { return d.vendor }
func (d *genericDriver) IsGNU() bool      { return d.vendor.IsGNU() }
func (d *genericDriver) IsIntel() bool    { return d.vendor.IsIntel() }

func (d *genericDriver) FortranBinary() string { return d.fortranBin }
func (d *genericDriver) CBinary() string       { return d.cBin }
func (d *genericDriver) CppBinary() string     { return d.cxxBin }

func (d *genericDriver) ModuleOutputFlag(dir string) []string {
	if strings.Contains(d.moduleOutputFlag, " ") {
		parts := strings.Fields(d.moduleOutputFlag)
		return append(parts, dir)
	}
	return []string{d.moduleOutputFlag + dir}
}

func (d *genericDriver) IncludeFlag(dir string) []string {
	return []string{d.includeFlagToken + dir}
}

func (d *genericDriver) FeatureFlag(feature string) []string {
	switch feature {
	case "openmp":
		if d.vendor.IsIntel() {
			return []string{"-Qopenmp"}
		}
		return []string{"-fopenmp"}
	case "implicit-none":
		if d.vendor.IsIntel() {
			return []string{"-implicitnone"}
		}
		return []string{"-fimplicit-none"}
	case "free-form":
		if d.vendor.IsIntel() {
			return []string{"-free"}
		}
		return []string{"-ffree-form"}
	case "fixed-form":
		if d.vendor.IsIntel() {
			return []string{"-fixed"}
		}
		return []string{"-ffixed-form"}
	case "non-language-main":
		// A C/C++ file named as an executable's `main` gets linked with the
		// Fortran driver (so the Fortran runtime initializes); the driver
		// must be told its own `main` is not present.
		if d.vendor.IsIntel() {
			return []string{"-nofor-main"}
		}
		return nil
	default:
		return nil
	}
}

func (d *genericDriver) DefaultFlags(profile Profile) []string {
	switch profile {
	case Debug:
		if d.vendor.IsIntel() {
			return []string{"-g", "-O0", "-check", "bounds"}
		}
		return []string{"-g", "-O0", "-fcheck=bounds"}
	default:
		if d.vendor.IsIntel() {
			return []string{"-O2"}
		}
		return []string{"-O2"}
	}
}

func (d *genericDriver) CheckFlagsSupported(tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}
	cmd := exec.Command(d.fortranBin, append(tokens, "-c", "-x", "f95", os.DevNull)...)
	return cmd.Run() == nil
}

func (d *genericDriver) CompileFortran(ctx context.Context, src, out string, flags []string, logPath string) (int, error) {
	return runTool(ctx, d.fortranBin, append(append([]string{"-c", "-o", out}, flags...), src), logPath)
}

func (d *genericDriver) CompileC(ctx context.Context, src, out string, flags []string, logPath string) (int, error) {
	return runTool(ctx, d.cBin, append(append([]string{"-c", "-o", out}, flags...), src), logPath)
}

func (d *genericDriver) CompileCpp(ctx context.Context, src, out string, flags []string, logPath string) (int, error) {
	return runTool(ctx, d.cxxBin, append(append([]string{"-c", "-o", out}, flags...), src), logPath)
}

func (d *genericDriver) LinkExecutable(ctx context.Context, objs []string, out string, flags []string, logPath string) (int, error) {
	args := append([]string{"-o", out}, objs...)
	args = append(args, flags...)
	return runTool(ctx, d.fortranBin, args, logPath)
}

func (d *genericDriver) LinkShared(ctx context.Context, objs []string, out string, flags []string, logPath string) (int, error) {
	args := append([]string{"-shared", "-o", out}, objs...)
	args = append(args, flags...)
	return runTool(ctx, d.fortranBin, args, logPath)
}

// runTool invokes bin with args, capturing combined stdout+stderr into
// logPath, and reports the process exit code.
func runTool(ctx context.Context, bin string, args []string, logPath string) (int, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	out, runErr := cmd.CombinedOutput()

	if err := os.WriteFile(logPath, out, 0o644); err != nil {
		return -1, fmt.Errorf("writing log %s: %w", logPath, err)
	}

	if runErr == nil {
		return 0, nil
	}
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return -1, runErr
}
