package object

import (
	"bytes"
	"errors"
	"fmt"
	"mika/internal/token"
)

type ErrorKind int

const (
	GenericError ErrorKind = iota
	UndefinedBinding
	ReferenceError
	ArityError
	TypeError
	PropertyError
	ClassError
	GeneratorError
	// ThrowError carries a value raised by a throw statement.
	ThrowError
)

var errorKindNames = map[ErrorKind]string{
	GenericError:     "RuntimeError",
	UndefinedBinding: "UndefinedBinding",
	ReferenceError:   "ReferenceError",
	ArityError:       "ArityError",
	TypeError:        "TypeError",
	PropertyError:    "PropertyError",
	ClassError:       "ClassError",
	GeneratorError:   "GeneratorError",
	ThrowError:       "Error",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

type StackFrame struct {
	Function string
	Position token.Position
}

// RuntimeError is the single error family raised by evaluation. It is the
// only error a script try/catch intercepts.
type RuntimeError struct {
	Kind     ErrorKind
	Message  string
	Position token.Position
	// Payload is the thrown value for ThrowError.
	Payload    Object
	StackTrace []StackFrame
}

func (re *RuntimeError) Error() string {
	if re.Position.IsZero() {
		return fmt.Sprintf("%s: %s", re.Kind, re.Message)
	}
	return fmt.Sprintf("[line %d:%d] %s: %s", re.Position.Line, re.Position.Column, re.Kind, re.Message)
}

// Trace renders the error with the frames it unwound through.
func (re *RuntimeError) Trace() string {
	var out bytes.Buffer
	out.WriteString(re.Error())
	for _, frame := range re.StackTrace {
		fmt.Fprintf(&out, "\n    at %s", frame.Function)
		if !frame.Position.IsZero() {
			fmt.Fprintf(&out, " (%d:%d)", frame.Position.Line, frame.Position.Column)
		}
	}
	return out.String()
}

// Value is what a catch clause binds: the message.
func (re *RuntimeError) Value() Object {
	return &String{Value: re.Message}
}

// At records pos unless the error already carries a location.
func (re *RuntimeError) At(pos token.Position) *RuntimeError {
	if re.Position.IsZero() {
		re.Position = pos
	}
	return re
}

func (re *RuntimeError) PushFrame(function string, pos token.Position) {
	re.StackTrace = append(re.StackTrace, StackFrame{Function: function, Position: pos})
}

func newError(kind ErrorKind, format string, a ...interface{}) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, a...)}
}

func NewError(format string, a ...interface{}) *RuntimeError {
	return newError(GenericError, format, a...)
}

func NewUndefinedBinding(name string) *RuntimeError {
	return newError(UndefinedBinding, "Undefined variable '%s'.", name)
}

func NewReferenceError(name string) *RuntimeError {
	return newError(ReferenceError, "%s is not defined", name)
}

func NewArityError(name string, expected, got int) *RuntimeError {
	return newError(ArityError, "%s expected %d arguments but got %d.", name, expected, got)
}

func NewTypeError(format string, a ...interface{}) *RuntimeError {
	return newError(TypeError, format, a...)
}

func NewPropertyError(format string, a ...interface{}) *RuntimeError {
	return newError(PropertyError, format, a...)
}

func NewClassError(format string, a ...interface{}) *RuntimeError {
	return newError(ClassError, format, a...)
}

func NewGeneratorError(format string, a ...interface{}) *RuntimeError {
	return newError(GeneratorError, format, a...)
}

// NewThrow wraps a script value raised by throw.
func NewThrow(payload Object) *RuntimeError {
	return &RuntimeError{Kind: ThrowError, Message: payload.Inspect(), Payload: payload}
}

// AsRuntimeError unwraps err into the runtime error family.
func AsRuntimeError(err error) (*RuntimeError, bool) {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// IsKind reports whether err is a runtime error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	re, ok := AsRuntimeError(err)
	return ok && re.Kind == kind
}
