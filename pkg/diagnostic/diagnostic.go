// Package diagnostic validates templates without rendering them, reporting
// structured problems with line/column ranges.
package diagnostic

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/walteh/safetmpl/pkg/lexer"
	"github.com/walteh/safetmpl/pkg/parser"
	"github.com/walteh/safetmpl/pkg/position"
	"gitlab.com/tozd/go/errors"
)

// Severity is the severity level of a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a single problem found in a template.
type Diagnostic struct {
	Message  string
	Severity Severity
	Range    position.Range
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.Range.Start.Line+1, d.Range.Start.Character+1, d.Severity, d.Message)
}

// Validate tokenizes and parses the template, collecting structural problems
// without producing any output. A clean template yields an empty slice.
func Validate(ctx context.Context, template string) []Diagnostic {
	tokens, err := lexer.Tokenize(template)
	if err != nil {
		lexErr := &lexer.Error{}
		if errors.As(err, &lexErr) {
			return []Diagnostic{{
				Message:  lexErr.Msg,
				Severity: SeverityError,
				Range:    lexErr.Span.RangeIn(template),
			}}
		}
		return []Diagnostic{{Message: err.Error(), Severity: SeverityError}}
	}

	if _, err := parser.Parse(tokens); err != nil {
		parseErr := &parser.Error{}
		if errors.As(err, &parseErr) {
			return []Diagnostic{{
				Message:  parseErr.Msg,
				Severity: SeverityError,
				Range:    parseErr.Span().RangeIn(template),
			}}
		}
		return []Diagnostic{{Message: err.Error(), Severity: SeverityError}}
	}

	zerolog.Ctx(ctx).Debug().Int("tokens", len(tokens)).Msg("template validated")
	return []Diagnostic{}
}
