package lexer

import (
	"fmt"

	"github.com/walteh/safetmpl/pkg/position"
)

// Kind identifies the lexical category of a token.
type Kind int

const (
	KindText Kind = iota
	KindVariable
	KindIfStart
	KindElse
	KindIfEnd
	KindForStart
	KindForEnd
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindVariable:
		return "variable"
	case KindIfStart:
		return "if"
	case KindElse:
		return "else"
	case KindIfEnd:
		return "endif"
	case KindForStart:
		return "for"
	case KindForEnd:
		return "endfor"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Token is a single lexical unit of a template. Text holds the trimmed
// payload of a marker (the expression of a variable, the condition of an if,
// the header of a for) and is empty for structural markers like else/endif.
// Span covers the token's full extent in the source, marker delimiters
// included.
type Token struct {
	Kind Kind
	Text string
	Span position.Span
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%s", t.Kind, t.Text, t.Span)
}

// Error is a lexical error with the span of the offending construct.
type Error struct {
	Msg  string
	Span position.Span
}

func (e *Error) Error() string {
	return e.Msg
}

func newError(msg string, start, end int) *Error {
	return &Error{Msg: msg, Span: position.NewSpan(start, end)}
}
