package maincmd

import "strings"

// bufferWriter collects everything written to it so Disasm can fuzzy-filter
// the disassembly output line by line before printing it.
type bufferWriter struct {
	b strings.Builder
}

func (w *bufferWriter) Write(p []byte) (int, error) { return w.b.Write(p) }

// Lines splits the buffered output on newlines, dropping a trailing empty
// line left by the final "\n" compiler.Disassemble always writes.
func (w *bufferWriter) Lines() []string {
	lines := strings.Split(w.b.String(), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}
