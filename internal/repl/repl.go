// Package repl is the interactive prompt. Every line runs against one
// persistent interpreter, so definitions carry over between lines.
package repl

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"mika/internal/evaluator"
	"mika/internal/object"
	"mika/internal/parser"

	"github.com/peterh/liner"
)

const (
	PROMPT          = ">> "
	CONTINUE_PROMPT = ".. "
)

// Start reads lines until EOF or exit(). historyPath may be empty.
func Start(interp *evaluator.Interpreter, out io.Writer, historyPath string) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(completer(interp))

	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(historyPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	for {
		src, ok := readInput(ln)
		if !ok {
			fmt.Fprintln(out)
			return nil
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))

		if err := Eval(interp, src, out); err != nil {
			return err
		}
	}
}

// readInput keeps prompting while the input so far is an unterminated block.
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := PROMPT
		if b.Len() > 0 {
			prompt = CONTINUE_PROMPT
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// ctrl-c drops the pending input
			return "", true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		if _, err := parser.Parse(b.String()); err != nil && incomplete(err) {
			continue
		}
		return b.String(), true
	}
}

func incomplete(err error) bool {
	var perrs parser.Errors
	if !errors.As(err, &perrs) {
		return false
	}
	for _, msg := range perrs {
		if strings.Contains(msg, "unterminated") {
			return true
		}
	}
	return false
}

// Eval runs one chunk of input and writes its value or its errors to out.
// Only an exit() request is returned; everything else is reported and the
// session continues.
func Eval(interp *evaluator.Interpreter, src string, out io.Writer) error {
	program, err := parser.Parse(src)
	if err != nil {
		var perrs parser.Errors
		if errors.As(err, &perrs) {
			printParserErrors(out, perrs)
		} else {
			fmt.Fprintln(out, err)
		}
		return nil
	}
	if err := interp.Resolve(program); err != nil {
		fmt.Fprintln(out, err)
		return nil
	}

	result, err := interp.Interpret(program)
	if err != nil {
		if rtErr, ok := object.AsRuntimeError(err); ok {
			io.WriteString(out, object.RenderError(rtErr, src))
			io.WriteString(out, "\n")
			return nil
		}
		slog.Debug("repl input stopped the session", slog.Any("error", err))
		return err
	}
	if result != nil && result != object.UNDEFINED {
		io.WriteString(out, result.Inspect())
		io.WriteString(out, "\n")
	}
	return nil
}

func printParserErrors(out io.Writer, msgs []string) {
	io.WriteString(out, " parser errors:\n")
	for _, msg := range msgs {
		io.WriteString(out, "\t"+msg+"\n")
	}
}

// completer offers global names that extend the last word of the line.
func completer(interp *evaluator.Interpreter) liner.Completer {
	return func(line string) []string {
		start := strings.LastIndexFunc(line, func(r rune) bool {
			return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
		}) + 1
		prefix := line[start:]
		if prefix == "" {
			return nil
		}
		var matches []string
		for _, name := range interp.Globals().Names() {
			if strings.HasPrefix(name, prefix) {
				matches = append(matches, line[:start]+name)
			}
		}
		return matches
	}
}
