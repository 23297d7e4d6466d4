// Package expr evaluates the restricted expression language used by variable
// interpolations, if conditions and for iterables. Expressions resolve
// against a caller-supplied context map and nothing else: there is no access
// to ambient state, no function calls and no assignment.
package expr

import (
	"strings"
)

// Evaluate resolves an expression against the context. Plain dotted property
// paths take a fast tier that performs direct stepwise lookup; everything
// else is screened against the denylist and then interpreted by the
// restricted grammar. A missing path resolves to nil, not an error.
func Evaluate(expression string, context map[string]any) (any, error) {
	trimmed := strings.TrimSpace(expression)
	if trimmed == "" {
		return nil, &SyntaxError{Expr: expression, Reason: "empty expression"}
	}
	if context == nil {
		context = map[string]any{}
	}

	if IsPath(trimmed) {
		// A path headed by "global" only resolves when the context itself
		// declares that key; otherwise it is a probe for the ambient
		// global object.
		if head := pathHead(trimmed); head == "global" {
			if _, ok := context["global"]; !ok {
				return nil, &SecurityError{Expr: trimmed, Pattern: "global access"}
			}
		}
		return LookupPath(trimmed, context), nil
	}

	if pattern, ok := denied(trimmed, context); ok {
		return nil, &SecurityError{Expr: trimmed, Pattern: pattern}
	}

	node, err := parseExpression(trimmed)
	if err != nil {
		return nil, err
	}

	val, err := evalNode(node, context)
	if err != nil {
		return nil, &SyntaxError{Expr: trimmed, Reason: err.Error()}
	}
	return val, nil
}

func pathHead(path string) string {
	for i := 0; i < len(path); i++ {
		if path[i] == '.' || path[i] == '[' {
			return path[:i]
		}
	}
	return path
}
