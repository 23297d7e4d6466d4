package expr

import (
	"fmt"
	"math"
	"strconv"
)

// The general tier models expressions as a small formal grammar: literals,
// identifiers, property/index access with literal keys, unary !/- and a fixed
// set of binary operators. The AST is interpreted directly against a closed
// binding set (the context's own keys), never handed to any ambient
// evaluation facility.

type exprNode interface {
	exprNode()
}

type litNode struct {
	val any
}

type identNode struct {
	name string
}

type memberNode struct {
	obj exprNode
	key string
}

type unaryNode struct {
	op      string
	operand exprNode
}

type binaryNode struct {
	op  string
	lhs exprNode
	rhs exprNode
}

func (*litNode) exprNode()    {}
func (*identNode) exprNode()  {}
func (*memberNode) exprNode() {}
func (*unaryNode) exprNode()  {}
func (*binaryNode) exprNode() {}

const maxParenDepth = 64

type exprParser struct {
	src    string
	tokens []token
	pos    int
	depth  int
}

func parseExpression(src string) (exprNode, error) {
	tokens, err := scanTokens(src)
	if err != nil {
		return nil, &SyntaxError{Expr: src, Reason: err.Error()}
	}

	p := &exprParser{src: src, tokens: tokens}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tkEOF {
		return nil, p.errorf("unexpected %q", p.peek().text)
	}
	return node, nil
}

func (p *exprParser) errorf(format string, args ...any) error {
	return &SyntaxError{Expr: p.src, Reason: fmt.Sprintf(format, args...)}
}

func (p *exprParser) peek() token {
	return p.tokens[p.pos]
}

func (p *exprParser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tkEOF {
		p.pos++
	}
	return tok
}

func (p *exprParser) acceptOp(ops ...string) (string, bool) {
	tok := p.peek()
	if tok.kind != tkOp {
		return "", false
	}
	for _, op := range ops {
		if tok.text == op {
			p.next()
			return op, true
		}
	}
	return "", false
}

func (p *exprParser) parseOr() (exprNode, error) {
	lhs, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.acceptOp("||"); !ok {
			return lhs, nil
		}
		rhs, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		lhs = &binaryNode{op: "||", lhs: lhs, rhs: rhs}
	}
}

func (p *exprParser) parseAnd() (exprNode, error) {
	lhs, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.acceptOp("&&"); !ok {
			return lhs, nil
		}
		rhs, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		lhs = &binaryNode{op: "&&", lhs: lhs, rhs: rhs}
	}
}

func (p *exprParser) parseEquality() (exprNode, error) {
	lhs, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("==", "!=")
		if !ok {
			return lhs, nil
		}
		rhs, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		lhs = &binaryNode{op: op, lhs: lhs, rhs: rhs}
	}
}

func (p *exprParser) parseComparison() (exprNode, error) {
	lhs, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("<=", ">=", "<", ">")
		if !ok {
			return lhs, nil
		}
		rhs, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		lhs = &binaryNode{op: op, lhs: lhs, rhs: rhs}
	}
}

func (p *exprParser) parseAdditive() (exprNode, error) {
	lhs, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("+", "-")
		if !ok {
			return lhs, nil
		}
		rhs, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		lhs = &binaryNode{op: op, lhs: lhs, rhs: rhs}
	}
}

func (p *exprParser) parseTerm() (exprNode, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("*", "/", "%")
		if !ok {
			return lhs, nil
		}
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		lhs = &binaryNode{op: op, lhs: lhs, rhs: rhs}
	}
}

func (p *exprParser) parseUnary() (exprNode, error) {
	if op, ok := p.acceptOp("!", "-"); ok {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: op, operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *exprParser) parsePostfix() (exprNode, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.acceptOp("."); ok {
			tok := p.next()
			switch tok.kind {
			case tkIdent:
				node = &memberNode{obj: node, key: tok.text}
			case tkNumber:
				node = &memberNode{obj: node, key: tok.text}
			default:
				return nil, p.errorf("expected property name after '.'")
			}
			continue
		}
		if _, ok := p.acceptOp("["); ok {
			tok := p.next()
			var key string
			switch tok.kind {
			case tkNumber:
				key = strconv.Itoa(int(tok.num))
			case tkString:
				key = tok.text
			default:
				// Only literal keys may appear in brackets.
				return nil, p.errorf("bracket keys must be numeric or string literals")
			}
			if _, ok := p.acceptOp("]"); !ok {
				return nil, p.errorf("expected ']'")
			}
			node = &memberNode{obj: node, key: key}
			continue
		}
		return node, nil
	}
}

func (p *exprParser) parsePrimary() (exprNode, error) {
	tok := p.peek()
	switch tok.kind {
	case tkNumber:
		p.next()
		return &litNode{val: tok.num}, nil
	case tkString:
		p.next()
		return &litNode{val: tok.text}, nil
	case tkIdent:
		p.next()
		switch tok.text {
		case "true":
			return &litNode{val: true}, nil
		case "false":
			return &litNode{val: false}, nil
		case "null", "undefined":
			return &litNode{val: nil}, nil
		case "NaN":
			return &litNode{val: math.NaN()}, nil
		}
		return &identNode{name: tok.text}, nil
	case tkOp:
		if tok.text == "(" {
			p.depth++
			if p.depth > maxParenDepth {
				return nil, p.errorf("expression too deeply nested")
			}
			p.next()
			node, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if _, ok := p.acceptOp(")"); !ok {
				return nil, p.errorf("expected ')'")
			}
			p.depth--
			return node, nil
		}
	}
	return nil, p.errorf("unexpected %q", tok.text)
}

func evalNode(node exprNode, context map[string]any) (any, error) {
	switch n := node.(type) {
	case *litNode:
		return n.val, nil

	case *identNode:
		// Closed binding set: only the context's own keys resolve;
		// anything else is simply undefined.
		return context[n.name], nil

	case *memberNode:
		obj, err := evalNode(n.obj, context)
		if err != nil {
			return nil, err
		}
		return step(obj, n.key), nil

	case *unaryNode:
		operand, err := evalNode(n.operand, context)
		if err != nil {
			return nil, err
		}
		switch n.op {
		case "!":
			return !Truthy(operand), nil
		case "-":
			return -toNumber(operand), nil
		}
		return nil, fmt.Errorf("unknown unary operator %q", n.op)

	case *binaryNode:
		return evalBinary(n, context)
	}
	return nil, fmt.Errorf("unknown expression node %T", node)
}

func evalBinary(n *binaryNode, context map[string]any) (any, error) {
	lhs, err := evalNode(n.lhs, context)
	if err != nil {
		return nil, err
	}

	// Short-circuit operators return operand values, not booleans.
	switch n.op {
	case "&&":
		if !Truthy(lhs) {
			return lhs, nil
		}
		return evalNode(n.rhs, context)
	case "||":
		if Truthy(lhs) {
			return lhs, nil
		}
		return evalNode(n.rhs, context)
	}

	rhs, err := evalNode(n.rhs, context)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case "==":
		return looseEquals(lhs, rhs), nil
	case "!=":
		return !looseEquals(lhs, rhs), nil
	case "<", "<=", ">", ">=":
		return compareValues(n.op, lhs, rhs), nil
	case "+":
		if isStringy(lhs) || isStringy(rhs) {
			return Stringify(lhs) + Stringify(rhs), nil
		}
		return toNumber(lhs) + toNumber(rhs), nil
	case "-":
		return toNumber(lhs) - toNumber(rhs), nil
	case "*":
		return toNumber(lhs) * toNumber(rhs), nil
	case "/":
		return toNumber(lhs) / toNumber(rhs), nil
	case "%":
		return math.Mod(toNumber(lhs), toNumber(rhs)), nil
	}
	return nil, fmt.Errorf("unknown binary operator %q", n.op)
}

func isStringy(v any) bool {
	_, ok := v.(string)
	return ok
}

func looseEquals(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return as == bs
		}
	}
	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			return ab == bb
		}
	}
	af, aok := asNumber(a)
	bf, bok := asNumber(b)
	if aok && bok {
		return af == bf
	}
	return false
}

func compareValues(op string, a, b any) bool {
	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			switch op {
			case "<":
				return as < bs
			case "<=":
				return as <= bs
			case ">":
				return as > bs
			case ">=":
				return as >= bs
			}
		}
	}

	af := toNumber(a)
	bf := toNumber(b)
	if math.IsNaN(af) || math.IsNaN(bf) {
		return false
	}
	switch op {
	case "<":
		return af < bf
	case "<=":
		return af <= bf
	case ">":
		return af > bf
	case ">=":
		return af >= bf
	}
	return false
}
