// Package dedent removes the common indentation that embedded command blocks
// inherit from the surrounding Go source.
package dedent

import "strings"

// String strips the margin of the first non-blank line from every line of raw.
//
// Blank lines before the first content line are dropped. A line indented less
// than the margin loses only the whitespace it has. Text after the final
// newline is kept. Input whose first content line is flush is returned as is,
// and input with no content at all yields "".
func String(raw string) string {
	start, margin, ok := firstContentLine(raw)
	if !ok {
		return ""
	}
	if margin == 0 {
		return raw
	}

	var b strings.Builder
	b.Grow(len(raw) - start)
	rest := raw[start:]
	for rest != "" {
		line, tail, found := strings.Cut(rest, "\n")
		b.WriteString(trimMargin(line, margin))
		if found {
			b.WriteByte('\n')
		}
		rest = tail
	}
	return b.String()
}

// Margin reports the indentation String would strip from raw.
func Margin(raw string) int {
	_, margin, _ := firstContentLine(raw)
	return margin
}

func firstContentLine(raw string) (start, margin int, ok bool) {
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '\n':
			start = i + 1
			margin = 0
		case ' ', '\t':
			margin++
		default:
			return start, margin, true
		}
	}
	return 0, 0, false
}

func trimMargin(line string, margin int) string {
	n := 0
	for n < margin && n < len(line) && (line[n] == ' ' || line[n] == '\t') {
		n++
	}
	return line[n:]
}
