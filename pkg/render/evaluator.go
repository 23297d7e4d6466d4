// Package render walks a parsed template tree against a context and
// produces the final output string. Interpolated values are HTML-escaped;
// loop bodies see a derived, shadowed view of the enclosing context.
package render

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/safetmpl/pkg/ast"
	"github.com/walteh/safetmpl/pkg/expr"
	"gitlab.com/tozd/go/errors"
)

// MaxEvalDepth bounds recursion during evaluation. The parser enforces its
// own nesting limit, so this only trips on trees built by hand.
const MaxEvalDepth = 64

// EvalError is an evaluation failure scoped to a node: a blocked expression,
// an invalid expression, or a non-iterable loop target.
type EvalError struct {
	Msg        string
	Expression string
	cause      error
}

func (e *EvalError) Error() string {
	return e.Msg
}

func (e *EvalError) Unwrap() error {
	return e.cause
}

// Evaluate renders the node sequence against data. The caller's map is never
// mutated; loop iterations get a fresh derived copy. A nil data map is
// treated as empty.
func Evaluate(ctx context.Context, nodes []ast.Node, data map[string]any) (string, error) {
	if data == nil {
		data = map[string]any{}
	}

	var sb strings.Builder
	if err := evalNodes(ctx, nodes, data, 0, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func evalNodes(ctx context.Context, nodes []ast.Node, scope map[string]any, depth int, sb *strings.Builder) error {
	if depth > MaxEvalDepth {
		return &EvalError{Msg: "Maximum evaluation depth exceeded"}
	}

	for _, node := range nodes {
		switch n := node.(type) {
		case *ast.TextNode:
			sb.WriteString(n.Value)

		case *ast.VariableNode:
			if err := evalVariable(ctx, n, scope, sb); err != nil {
				return err
			}

		case *ast.IfNode:
			if err := evalIf(ctx, n, scope, depth, sb); err != nil {
				return err
			}

		case *ast.ForNode:
			if err := evalFor(ctx, n, scope, depth, sb); err != nil {
				return err
			}

		default:
			return &EvalError{Msg: fmt.Sprintf("unknown node type %T", node)}
		}
	}
	return nil
}

func evalVariable(ctx context.Context, n *ast.VariableNode, scope map[string]any, sb *strings.Builder) error {
	val, err := safeEvaluate(n.Expression, scope)
	if err != nil {
		secErr := &expr.SecurityError{}
		if errors.As(err, &secErr) {
			return &EvalError{Msg: err.Error(), Expression: n.Expression, cause: err}
		}
		synErr := &expr.SyntaxError{}
		if errors.As(err, &synErr) {
			return &EvalError{Msg: fmt.Sprintf("Invalid expression: %s", n.Expression), Expression: n.Expression, cause: err}
		}
		// One bad variable should not fail an otherwise-good page:
		// unexpected failures render as empty and go to the log.
		zerolog.Ctx(ctx).Warn().
			Str("expression", n.Expression).
			Err(err).
			Msg("expression evaluation failed, rendering empty")
		return nil
	}

	if val == nil {
		return nil
	}
	sb.WriteString(EscapeHTML(expr.Stringify(val)))
	return nil
}

func evalIf(ctx context.Context, n *ast.IfNode, scope map[string]any, depth int, sb *strings.Builder) error {
	val, err := safeEvaluate(n.Condition, scope)
	if err != nil {
		secErr := &expr.SecurityError{}
		if errors.As(err, &secErr) {
			return &EvalError{Msg: err.Error(), Expression: n.Condition, cause: err}
		}
		return &EvalError{Msg: fmt.Sprintf("failed to evaluate if condition: %s", n.Condition), Expression: n.Condition, cause: err}
	}

	if expr.Truthy(val) {
		return evalNodes(ctx, n.Body, scope, depth+1, sb)
	}
	return evalNodes(ctx, n.ElseBody, scope, depth+1, sb)
}

func evalFor(ctx context.Context, n *ast.ForNode, scope map[string]any, depth int, sb *strings.Builder) error {
	val, err := safeEvaluate(n.Iterable, scope)
	if err != nil {
		secErr := &expr.SecurityError{}
		if errors.As(err, &secErr) {
			return &EvalError{Msg: err.Error(), Expression: n.Iterable, cause: err}
		}
		return &EvalError{Msg: fmt.Sprintf("failed to evaluate loop iterable: %s", n.Iterable), Expression: n.Iterable, cause: err}
	}

	// A nullish iterable renders nothing.
	if val == nil {
		return nil
	}

	items, ok := toSequence(val)
	if !ok {
		return &EvalError{Msg: fmt.Sprintf("Cannot iterate over non-iterable value: %s", n.Iterable), Expression: n.Iterable}
	}

	length := len(items)
	for i, item := range items {
		derived := make(map[string]any, len(scope)+3)
		for k, v := range scope {
			derived[k] = v
		}
		derived[n.Item] = item
		if n.Index != "" {
			derived[n.Index] = i
		}
		derived["loop"] = map[string]any{
			"index":  i,
			"index0": i,
			"index1": i + 1,
			"first":  i == 0,
			"last":   i == length-1,
			"length": length,
		}

		if err := evalNodes(ctx, n.Body, derived, depth+1, sb); err != nil {
			return err
		}
	}
	return nil
}

// safeEvaluate shields the render from panics in expression evaluation, e.g.
// reflection on hostile context values.
func safeEvaluate(expression string, scope map[string]any) (val any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic during expression evaluation: %v", r)
		}
	}()
	return expr.Evaluate(expression, scope)
}

// toSequence normalizes an iterable: slices and arrays element-by-element,
// strings per character.
func toSequence(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case string:
		items := make([]any, 0, len(x))
		for _, r := range x {
			items = append(items, string(r))
		}
		return items, true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = rv.Index(i).Interface()
		}
		return items, true
	case reflect.String:
		return toSequence(rv.String())
	}
	return nil, false
}
