package repl

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"mika/internal/evaluator"
	"mika/internal/foreign"
	"mika/internal/parser"
	"mika/internal/runtime"
	"mika/internal/util"

	"github.com/stretchr/testify/require"
)

func newInterpreter(t *testing.T) (*evaluator.Interpreter, *bytes.Buffer) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	var buf bytes.Buffer
	return evaluator.New(runtime.NewRuntime(ctx, util.DefaultConfiguration()), &buf), &buf
}

func TestEvalKeepsState(t *testing.T) {
	interp, buf := newInterpreter(t)

	require.NoError(t, Eval(interp, "var x = 40;", buf))
	require.NoError(t, Eval(interp, "fun add(n) { return x + n; }", buf))
	require.NoError(t, Eval(interp, "add(2)", buf))
	require.Equal(t, "42\n", buf.String())
}

func TestEvalReportsErrors(t *testing.T) {
	interp, buf := newInterpreter(t)

	require.NoError(t, Eval(interp, "var = 1;", buf))
	require.Contains(t, buf.String(), "parser errors")

	buf.Reset()
	require.NoError(t, Eval(interp, "return 1;", buf))
	require.Contains(t, buf.String(), "top-level")

	buf.Reset()
	require.NoError(t, Eval(interp, "nope;", buf))
	require.Contains(t, buf.String(), "ReferenceError")

	err := Eval(interp, "exit(4);", buf)
	var exit *foreign.ExitError
	require.True(t, errors.As(err, &exit))
	require.Equal(t, 4, exit.Code)
}

func TestIncompleteInput(t *testing.T) {
	_, err := parser.Parse("fun f() {")
	require.True(t, incomplete(err))

	_, err = parser.Parse("var = 1;")
	require.False(t, incomplete(err))
}

func TestCompleter(t *testing.T) {
	interp, buf := newInterpreter(t)
	require.NoError(t, Eval(interp, "var lengthy = 1;", buf))

	got := completer(interp)("print len")
	require.Equal(t, []string{"print length", "print lengthy"}, got)
	require.Nil(t, completer(interp)("print "))
}
