// Package compiler implements the compiler/archiver abstraction as a Go
// interface with a single concrete implementation parameterized by vendor,
// chosen once when a Driver is constructed rather than scattering vendor switches
// through the executor (Design Notes §9). The per-vendor flag tables and
// version-string matching are grounded on
// other_examples/daedaleanai-dbt__cc.go's Toolchain (binary name + flag
// composition held together in one struct) and goplus-llar/pkgs/gnu's
// version-string handling style.
package compiler

// Vendor identifies which compiler family a Driver was built for.
type Vendor int

const (
	Unknown Vendor = iota
	GCC
	IntelClassic
	IntelLLVM
	NVHPC
	NAG
	LFortran
	FlangLLVM
	IBMXL
	Cray
)

func (v Vendor) String() string {
	switch v {
	case GCC:
		return "GCC"
	case IntelClassic:
		return "IntelClassic"
	case IntelLLVM:
		return "IntelLLVM"
	case NVHPC:
		return "NVHPC"
	case NAG:
		return "NAG"
	case LFortran:
		return "LFortran"
	case FlangLLVM:
		return "FlangLLVM"
	case IBMXL:
		return "IBMXL"
	case Cray:
		return "Cray"
	default:
		return "Unknown"
	}
}

// IsGNU reports whether v is the GNU compiler collection.
func (v Vendor) IsGNU() bool { return v == GCC }

// IsIntel reports whether v is either Intel compiler generation.
func (v Vendor) IsIntel() bool { return v == IntelClassic || v == IntelLLVM }

// versionPattern pairs a substring found in `<binary> --version` (or, for
// vendors that don't honor --version, an equivalent probe flag) output with
// the Vendor it identifies. Matched in table order, so more specific
// substrings should precede more general ones.
type versionPattern struct {
	probeFlag string
	needle    string
	vendor    Vendor
}

var versionTable = []versionPattern{
	{"--version", "GNU Fortran", GCC},
	{"--version", "GNU C", GCC},
	{"--version", "ifx (IFX)", IntelLLVM},
	{"--version", "ifort (IFORT)", IntelClassic},
	{"--version", "icx (ICX)", IntelLLVM},
	{"--version", "icc (ICC)", IntelClassic},
	{"--version", "nvfortran", NVHPC},
	{"-V", "NAG Fortran Compiler", NAG},
	{"--version", "LFortran", LFortran},
	{"--version", "flang-new", FlangLLVM},
	{"--version", "flang version", FlangLLVM},
	{"-qversion", "IBM XL Fortran", IBMXL},
	{"-V", "Cray Fortran", Cray},
	{"-V", "Cray C", Cray},
}
