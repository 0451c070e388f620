package evaluator

import "mika/internal/object"

type CompletionKind int

const (
	Normal CompletionKind = iota
	Return
	Yield
	Break
	Continue
)

var completionNames = [...]string{"normal", "return", "yield", "break", "continue"}

func (k CompletionKind) String() string { return completionNames[k] }

// Completion is how a statement finished. Non-normal kinds unwind the
// enclosing statements until something consumes them: loops take Break and
// Continue, calls take Return, generators take Yield.
type Completion struct {
	Kind  CompletionKind
	Value object.Object
}

var normal = Completion{Kind: Normal}

func returning(value object.Object) Completion {
	return Completion{Kind: Return, Value: value}
}

// suspension carries a yielded value out of expression evaluation up to the
// statement that contains it, where it becomes a Yield completion.
type suspension struct {
	value object.Object
}

func (s *suspension) Error() string { return "generator suspended" }
