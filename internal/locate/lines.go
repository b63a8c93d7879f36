package locate

import "strings"

// LineAt returns the 1-based line number of offset and the full text of that line.
func LineAt(text string, offset int) (int, string) {
	offset = min(max(offset, 0), len(text))
	line := strings.Count(text[:offset], "\n") + 1
	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1
	lineEnd := len(text)
	if i := strings.IndexByte(text[offset:], '\n'); i >= 0 {
		lineEnd = offset + i
	}
	return line, strings.TrimSuffix(text[lineStart:lineEnd], "\r")
}
