package object

import (
	"bytes"
	"fmt"
	"mika/internal/util"
)

// RenderError formats a runtime error for the terminal, quoting src around
// the failing position when it is known.
func RenderError(rtErr *RuntimeError, src string) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s: %s\n", rtErr.Kind, rtErr.Message)

	if !rtErr.Position.IsZero() && src != "" {
		buf.WriteString("\n")
		buf.WriteString(util.GetContextLines(src, rtErr.Position.Line, rtErr.Position.Column))
		buf.WriteString("\n")
	}

	for _, frame := range rtErr.StackTrace {
		fmt.Fprintf(&buf, "\n  at [%3d:%3d] %s", frame.Position.Line, frame.Position.Column, frame.Function)
	}

	return buf.String()
}
