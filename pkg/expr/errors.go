package expr

import (
	"fmt"
)

// SecurityError reports an expression that matched the denylist. It is always
// fatal: there is no silent-degrade path for a blocked expression.
type SecurityError struct {
	Expr    string
	Pattern string
}

func (e *SecurityError) Error() string {
	return "Access to dangerous globals is not allowed"
}

// SyntaxError reports an expression the restricted grammar cannot parse or
// evaluate.
type SyntaxError struct {
	Expr   string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("Invalid expression: %s", e.Expr)
}
