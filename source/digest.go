package source

import (
	"bufio"
	"bytes"
	"hash/fnv"
	"strings"
)

// tabWidth is the tab stop width used for digest normalization.
const tabWidth = 8

// ComputeDigest returns the 64-bit FNV-1a fingerprint of raw after
// tab-expansion and line normalization. Normalization
// means: split on \n (dropping a \r that ends a line, so \r\n and \n are
// equivalent; a lone \r is not a line break), expand tabs to the next
// multiple of tabWidth columns, and rejoin with a single \n -- so \n versus
// \r\n line endings, and tabs versus the spaces they expand to, do not
// affect the digest of otherwise-identical content.
func ComputeDigest(raw []byte) uint64 {
	h := fnv.New64a()

	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	first := true
	for sc.Scan() {
		if !first {
			h.Write([]byte{'\n'})
		}
		first = false
		h.Write([]byte(expandTabs(sc.Text())))
	}

	return h.Sum64()
}

// expandTabs replaces each tab with spaces up to the next tabWidth-column
// stop.
func expandTabs(line string) string {
	if !strings.Contains(line, "\t") {
		return line
	}

	var b strings.Builder
	col := 0
	for _, c := range line {
		if c == '\t' {
			spaces := tabWidth - (col % tabWidth)
			b.WriteString(strings.Repeat(" ", spaces))
			col += spaces
		} else {
			b.WriteRune(c)
			col++
		}
	}
	return b.String()
}
