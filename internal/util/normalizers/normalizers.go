package normalizers

import (
	"strings"
)

const Indentation = `  `

type source struct {
	string
}

// LongDesc normalizes a command's long description following
// a convention
func LongDesc(s string) string {
	return source{s}.trim().string
}

// Examples normalizes a command's examples following
// a convention
func Examples(s string) string {
	if len(s) == 0 {
		return s
	}
	return source{s}.trim().indent().string
}

// SingleLine collapses runs of whitespace, including newlines, into single spaces.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (s source) trim() source {
	s.string = strings.TrimSpace(s.string)
	return s
}

func (s source) indent() source {
	lines := strings.Split(s.string, "\n")
	indented := make([]string, 0, len(lines))
	for _, line := range lines {
		indented = append(indented, Indentation+strings.TrimSpace(line))
	}
	s.string = strings.Join(indented, "\n")
	return s
}
