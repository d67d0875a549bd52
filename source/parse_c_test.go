package source

import "testing"

func TestParseC_QuotedIncludeOnly(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "thing.c", "#include \"defs.h\"\n#include <stdio.h>\nint main() { return 0; }\n")

	f, err := ParseC(path)
	if err != nil {
		t.Fatalf("ParseC: %v", err)
	}

	if f.UnitKind != UnitCSource {
		t.Fatalf("unit kind = %v, want UnitCSource", f.UnitKind)
	}
	if len(f.IncludeDeps) != 1 || f.IncludeDeps[0] != "defs.h" {
		t.Fatalf("include deps = %v, want [defs.h] (angle-bracket ignored)", f.IncludeDeps)
	}
}
