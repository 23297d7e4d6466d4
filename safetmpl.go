// Package safetmpl renders text templates with variable interpolation,
// conditionals and loops against a caller-supplied context, HTML-escaping
// every interpolated value. The pipeline is tokenize -> parse -> evaluate;
// Compile splits the parse-once step from evaluate-many rendering.
package safetmpl

import (
	"context"

	"github.com/walteh/safetmpl/pkg/ast"
	"github.com/walteh/safetmpl/pkg/lexer"
	"github.com/walteh/safetmpl/pkg/parser"
	"github.com/walteh/safetmpl/pkg/render"
	"gitlab.com/tozd/go/errors"
)

// Template is a compiled template. The underlying tree is immutable, so a
// single Template may render concurrently as long as each call supplies its
// own data map.
type Template struct {
	nodes []ast.Node
}

// Compile tokenizes and parses the template once, returning a reusable
// renderer bound to the resulting tree.
func Compile(template string) (*Template, error) {
	tokens, err := lexer.Tokenize(template)
	if err != nil {
		return nil, wrapError(err)
	}

	nodes, err := parser.Parse(tokens)
	if err != nil {
		return nil, wrapError(err)
	}

	return &Template{nodes: nodes}, nil
}

// Render evaluates the compiled template against data. A nil data map is
// treated as empty.
func (t *Template) Render(ctx context.Context, data map[string]any) (string, error) {
	out, err := render.Evaluate(ctx, t.nodes, data)
	if err != nil {
		return "", wrapError(err)
	}
	return out, nil
}

// Render runs the full pipeline in one call.
func Render(ctx context.Context, template string, data map[string]any) (string, error) {
	t, err := Compile(template)
	if err != nil {
		return "", err
	}
	return t.Render(ctx, data)
}

// wrapError turns pipeline errors into the public message form. Errors that
// carry a source position keep their message and gain an " at position
// <start>-<end>" suffix; everything else gets the generic prefix.
func wrapError(err error) error {
	lexErr := &lexer.Error{}
	if errors.As(err, &lexErr) {
		return errors.Errorf("%w at position %s", err, lexErr.Span)
	}

	parseErr := &parser.Error{}
	if errors.As(err, &parseErr) {
		return errors.Errorf("%w at position %s", err, parseErr.Span())
	}

	return errors.Errorf("Template rendering failed: %w", err)
}
