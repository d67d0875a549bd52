package compiler

import "testing"

func TestModuleOutputFlag_PerVendor(t *testing.T) {
	cases := []struct {
		vendor Vendor
		dir    string
		want   []string
	}{
		{GCC, "/tmp/mod", []string{"-J/tmp/mod"}},
		{IntelClassic, "/tmp/mod", []string{"-module", "/tmp/mod"}},
		{NAG, "/tmp/mod", []string{"-mdir", "/tmp/mod"}},
		{Cray, "/tmp/mod", []string{"-em", "-J", "/tmp/mod"}},
	}
	for _, c := range cases {
		d := &genericDriver{vendor: c.vendor, moduleOutputFlag: moduleOutputFlagFor(c.vendor)}
		got := d.ModuleOutputFlag(c.dir)
		if !equalStrings(got, c.want) {
			t.Errorf("%s.ModuleOutputFlag(%q) = %v, want %v", c.vendor, c.dir, got, c.want)
		}
	}
}

func TestFeatureFlag_OpenMPVendorSpecific(t *testing.T) {
	gnu := &genericDriver{vendor: GCC}
	if got := gnu.FeatureFlag("openmp"); !equalStrings(got, []string{"-fopenmp"}) {
		t.Errorf("GCC FeatureFlag(openmp) = %v, want [-fopenmp]", got)
	}

	intel := &genericDriver{vendor: IntelLLVM}
	if got := intel.FeatureFlag("openmp"); !equalStrings(got, []string{"-Qopenmp"}) {
		t.Errorf("IntelLLVM FeatureFlag(openmp) = %v, want [-Qopenmp]", got)
	}

	if got := gnu.FeatureFlag("nonsense"); got != nil {
		t.Errorf("FeatureFlag(unknown) = %v, want nil", got)
	}
}

func TestDefaultFlags_DebugVsRelease(t *testing.T) {
	gnu := &genericDriver{vendor: GCC}
	if got := gnu.DefaultFlags(Debug); !equalStrings(got, []string{"-g", "-O0", "-fcheck=bounds"}) {
		t.Errorf("GCC DefaultFlags(Debug) = %v", got)
	}
	if got := gnu.DefaultFlags(Release); !equalStrings(got, []string{"-O2"}) {
		t.Errorf("GCC DefaultFlags(Release) = %v", got)
	}
}

func TestVendorPredicates(t *testing.T) {
	if !GCC.IsGNU() {
		t.Error("GCC.IsGNU() should be true")
	}
	if GCC.IsIntel() {
		t.Error("GCC.IsIntel() should be false")
	}
	if !IntelClassic.IsIntel() || !IntelLLVM.IsIntel() {
		t.Error("both Intel generations should report IsIntel() true")
	}
}

func TestPerVendorConstructors_SetVendorWithoutProbing(t *testing.T) {
	cases := []struct {
		name   string
		driver Driver
		want   Vendor
	}{
		{"NewGNU", NewGNU("gfortran", "gcc", "g++"), GCC},
		{"NewIntelClassic", NewIntelClassic("ifort", "icc", "icpc"), IntelClassic},
		{"NewIntelLLVM", NewIntelLLVM("ifx", "icx", "icpx"), IntelLLVM},
		{"NewNVHPC", NewNVHPC("nvfortran", "nvc", "nvc++"), NVHPC},
		{"NewNAG", NewNAG("nagfor", "gcc", "g++"), NAG},
		{"NewLFortran", NewLFortran("lfortran", "gcc", "g++"), LFortran},
		{"NewFlangLLVM", NewFlangLLVM("flang-new", "clang", "clang++"), FlangLLVM},
		{"NewCray", NewCray("crayftn", "craycc", "crayCC"), Cray},
	}
	for _, c := range cases {
		if got := c.driver.VendorID(); got != c.want {
			t.Errorf("%s().VendorID() = %s, want %s", c.name, got, c.want)
		}
		if c.driver.FortranBinary() == "" {
			t.Errorf("%s() did not retain its fortran binary name", c.name)
		}
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
