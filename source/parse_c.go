package source

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"forge/builderr"
)

// ParseC lightly parses a C, C++, or header file: it only extracts quoted
// `#include` edges and the content digest -- angle-bracket includes are
// ignored for dependency tracking.
func ParseC(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &builderr.FileNotFound{Path: path}
	}

	f := NewFile(path)
	f.Digest = ComputeDigest(raw)
	f.UnitKind = unitKindForExtension(path)

	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for sc.Scan() {
		trimmed := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(trimmed, "#include") {
			continue
		}
		if inc, ok := parseHashInclude(trimmed); ok {
			f.IncludeDeps = append(f.IncludeDeps, inc)
		}
	}

	if err := sc.Err(); err != nil {
		return nil, &builderr.ParseError{Path: path, Msg: err.Error()}
	}

	return f, nil
}

func unitKindForExtension(path string) UnitKind {
	switch filepath.Ext(path) {
	case ".c":
		return UnitCSource
	case ".h", ".hpp":
		return UnitCHeader
	case ".cpp":
		return UnitCppSource
	default:
		return UnitUnknown
	}
}
