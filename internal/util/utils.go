package util

import (
	"bytes"
	"fmt"
	"strings"
)

// GetContextLines renders up to two lines before errorLine plus the line
// itself, with a caret under errorCol. Lines and columns are 1-based.
func GetContextLines(src string, errorLine, errorCol int) string {
	var result bytes.Buffer

	lines := strings.Split(src, "\n")
	if errorLine < 1 || errorLine > len(lines) {
		return ""
	}

	startLine := errorLine - 2
	if startLine < 1 {
		startLine = 1
	}

	for i := startLine; i <= errorLine; i++ {
		lineContent := lines[i-1]
		if i != errorLine {
			result.WriteString(fmt.Sprintf("     %3d | %s\n", i, lineContent))
			continue
		}
		margin := fmt.Sprintf("  >  %3d | ", i)
		result.WriteString(fmt.Sprintf("%s%s\n", margin, lineContent))

		col := errorCol - 1
		if col < 0 {
			col = 0
		}
		if col > len(lineContent) {
			col = len(lineContent)
		}
		result.WriteString(replaceVisibleWithSpaces(margin + lineContent[:col]))
		result.WriteString("^ here")
	}

	return result.String()
}

// replaceVisibleWithSpaces keeps tabs so the caret lines up.
func replaceVisibleWithSpaces(s string) string {
	var buf bytes.Buffer
	for _, c := range s {
		if c == '\t' {
			buf.WriteRune('\t')
		} else {
			buf.WriteRune(' ')
		}
	}
	return buf.String()
}
