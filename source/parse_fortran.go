package source

import (
	"bufio"
	"bytes"
	"os"
	"strings"

	"forge/builderr"
)

// ParseFortran reads and lightly parses a Fortran source file, extracting
// the unit kind, provided/used modules, parent modules, include deps, and
// content digest. All identifier comparisons are case-insensitive.
func ParseFortran(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &builderr.FileNotFound{Path: path}
	}

	f := NewFile(path)
	f.Digest = ComputeDigest(raw)

	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	sawExecutableContent := false

	// pendingContinuation accumulates the tokens of a `use ... only:` line
	// being continued across `&` line-continuation markers -- the only
	// continuation form this parser handles.
	var pendingContinuation []string
	inContinuation := false

	for sc.Scan() {
		lineNo++
		line := stripComment(sc.Text())
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if inContinuation {
			cont, rest := continues(trimmed)
			pendingContinuation = append(pendingContinuation, tokenize(rest)...)
			if cont {
				continue
			}
			inContinuation = false
			processUseTokens(f, pendingContinuation, path, lineNo)
			pendingContinuation = nil
			continue
		}

		toks := tokenize(trimmed)
		if len(toks) == 0 {
			continue
		}

		lower0 := strings.ToLower(toks[0])

		switch lower0 {
		case "module":
			if len(toks) >= 2 && strings.ToLower(toks[1]) == "procedure" {
				// `module procedure` is not a module declaration.
				sawExecutableContent = true
				continue
			}
			if len(toks) < 2 {
				continue
			}
			name := strings.ToLower(toks[1])
			f.ProvidedModules[name] = true
			if f.UnitKind == UnitUnknown {
				f.UnitKind = UnitModule
			}

		case "submodule":
			parents, subName, ok := parseSubmodule(toks)
			if !ok {
				continue
			}
			// Only the parent named first in the parentheses is recorded.
			if len(parents) > 0 {
				f.ParentModules = append(f.ParentModules, parents[0])
			}
			f.ProvidedModules[strings.ToLower(subName)] = true
			f.UnitKind = UnitSubmodule

		case "program":
			if len(toks) < 2 {
				continue
			}
			f.UnitKind = UnitProgram
			f.ExeName = toks[1]

		case "use":
			cont, rest := continues(trimmed)
			useToks := tokenize(rest)
			if cont {
				inContinuation = true
				pendingContinuation = useToks
				continue
			}
			processUseTokens(f, useToks, path, lineNo)

		case "include":
			if inc, ok := parseQuotedArg(toks, 1); ok {
				f.IncludeDeps = append(f.IncludeDeps, inc)
			}

		case "end":
			// `end ...` closes a unit; it is not executable content.

		default:
			if strings.HasPrefix(trimmed, "#include") {
				if inc, ok := parseHashInclude(trimmed); ok {
					f.IncludeDeps = append(f.IncludeDeps, inc)
				}
				continue
			}
			// Any other top-level token sequence is executable content,
			// which downgrades a Module unit to Subprogram.
			sawExecutableContent = true
		}
	}

	if err := sc.Err(); err != nil {
		return nil, &builderr.ParseError{Path: path, Line: lineNo, Msg: err.Error()}
	}

	if f.UnitKind == UnitModule && sawExecutableContent {
		f.UnitKind = UnitSubprogram
	} else if f.UnitKind == UnitUnknown && sawExecutableContent {
		f.UnitKind = UnitSubprogram
	}

	return f, nil
}

// stripComment removes everything from the first unquoted `!` onward.
func stripComment(line string) string {
	inSingle, inDouble := false, false
	for i, c := range line {
		switch c {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case '!':
			if !inSingle && !inDouble {
				return line[:i]
			}
		}
	}
	return line
}

// tokenize splits a line into blank-separated tokens, keeping parens and
// commas as their own tokens so declarations like `submodule (a:b) c` split
// cleanly.
func tokenize(line string) []string {
	var toks []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}

	inString := false
	var quote rune
	for _, c := range line {
		if inString {
			cur.WriteRune(c)
			if c == quote {
				inString = false
			}
			continue
		}
		switch c {
		case '"', '\'':
			flush()
			inString = true
			quote = c
			cur.WriteRune(c)
		case '(', ')', ',', ':':
			flush()
			toks = append(toks, string(c))
		case ' ', '\t':
			flush()
		default:
			cur.WriteRune(c)
		}
	}
	flush()

	return toks
}

// continues checks a continuation-line fragment for a trailing `&` and
// returns the content with it stripped.
func continues(trimmed string) (bool, string) {
	if strings.HasSuffix(trimmed, "&") {
		return true, strings.TrimSuffix(trimmed, "&")
	}
	return false, trimmed
}

// parseSubmodule parses `submodule ( parent [: grandparent] ) name`.
func parseSubmodule(toks []string) (parents []string, name string, ok bool) {
	// toks[0] == "submodule"
	i := 1
	if i >= len(toks) || toks[i] != "(" {
		return nil, "", false
	}
	i++
	var parentChain []string
	for i < len(toks) && toks[i] != ")" {
		if toks[i] != ":" {
			parentChain = append(parentChain, toks[i])
		}
		i++
	}
	if i >= len(toks) {
		return nil, "", false
	}
	i++ // skip ")"
	if i >= len(toks) {
		return nil, "", false
	}
	return parentChain, toks[i], true
}

// processUseTokens handles a (possibly continued) `use` statement's tokens.
func processUseTokens(f *File, toks []string, path string, lineNo int) {
	// toks[0] == "use"
	i := 1
	intrinsic := false

	if i < len(toks) && toks[i] == "," {
		i++
		if i < len(toks) && strings.EqualFold(toks[i], "intrinsic") {
			intrinsic = true
			i++
			if i < len(toks) && toks[i] == ":" {
				i++
			}
			if i < len(toks) && toks[i] == ":" {
				i++
			}
		}
	}

	if i >= len(toks) {
		return
	}

	name := strings.ToLower(toks[i])

	if intrinsic || IsIntrinsic(name) {
		return
	}

	if f.ProvidedModules[name] {
		// A file may use a module it also defines in the same file.
		return
	}

	f.UsedModules[name] = true
}

// parseQuotedArg extracts a quoted string argument at token index idx (the
// token itself will include the surrounding quote characters, since
// tokenize keeps quoted segments intact).
func parseQuotedArg(toks []string, idx int) (string, bool) {
	if idx >= len(toks) {
		return "", false
	}
	return unquote(toks[idx])
}

func unquote(tok string) (string, bool) {
	if len(tok) >= 2 {
		if (tok[0] == '"' && tok[len(tok)-1] == '"') || (tok[0] == '\'' && tok[len(tok)-1] == '\'') {
			return tok[1 : len(tok)-1], true
		}
	}
	return "", false
}

// parseHashInclude extracts the quoted filename from a C-style
// `#include "file"` line; angle-bracket includes are ignored for dependency
// tracking.
func parseHashInclude(trimmed string) (string, bool) {
	start := strings.Index(trimmed, "\"")
	if start < 0 {
		return "", false
	}
	end := strings.Index(trimmed[start+1:], "\"")
	if end < 0 {
		return "", false
	}
	return trimmed[start+1 : start+1+end], true
}
