// Package parser builds a template AST from the lexer's token stream,
// enforcing block matching and nesting depth.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/walteh/safetmpl/pkg/ast"
	"github.com/walteh/safetmpl/pkg/lexer"
	"github.com/walteh/safetmpl/pkg/position"
)

// MaxNestingDepth bounds block nesting so pathological templates fail with a
// parse error instead of exhausting the stack.
const MaxNestingDepth = 64

// Error is a structural parse error carrying the offending token.
type Error struct {
	Msg   string
	Token lexer.Token
}

func (e *Error) Error() string {
	return e.Msg
}

// Span returns the source span of the offending token.
func (e *Error) Span() position.Span {
	return e.Token.Span
}

// forHeaderRe matches the two accepted loop headers:
// "item in expr" and "item, index in expr".
var forHeaderRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)(?:\s*,\s*([A-Za-z_][A-Za-z0-9_]*))?\s+in\s+(\S.*)$`)

// Parse consumes the token sequence and returns the template tree. An empty
// token stream yields an empty tree.
func Parse(tokens []lexer.Token) ([]ast.Node, error) {
	p := &parser{tokens: tokens}

	nodes, err := p.parseNodes(0)
	if err != nil {
		return nil, err
	}

	// parseNodes only stops early on a block terminator; at the top level
	// any terminator is dangling.
	if !p.eof() {
		tok := p.peek()
		switch tok.Kind {
		case lexer.KindElse:
			return nil, &Error{Msg: "Unexpected else statement", Token: tok}
		case lexer.KindIfEnd:
			return nil, &Error{Msg: "Unexpected endif statement", Token: tok}
		case lexer.KindForEnd:
			return nil, &Error{Msg: "Unexpected endfor statement", Token: tok}
		default:
			return nil, &Error{Msg: fmt.Sprintf("Unexpected token: %s", tok.Kind), Token: tok}
		}
	}

	return nodes, nil
}

type parser struct {
	tokens []lexer.Token
	pos    int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) peek() lexer.Token {
	return p.tokens[p.pos]
}

func (p *parser) next() lexer.Token {
	tok := p.tokens[p.pos]
	p.pos++
	return tok
}

// parseNodes consumes tokens until it reaches a block terminator (else,
// endif, endfor) or the end of the stream. The enclosing construct is
// responsible for consuming the terminator it expects.
func (p *parser) parseNodes(depth int) ([]ast.Node, error) {
	nodes := []ast.Node{}

	for !p.eof() {
		tok := p.peek()
		switch tok.Kind {
		case lexer.KindText:
			p.next()
			nodes = append(nodes, &ast.TextNode{Value: tok.Text})

		case lexer.KindVariable:
			p.next()
			nodes = append(nodes, &ast.VariableNode{Expression: tok.Text})

		case lexer.KindIfStart:
			node, err := p.parseIf(depth)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)

		case lexer.KindForStart:
			node, err := p.parseFor(depth)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)

		case lexer.KindElse, lexer.KindIfEnd, lexer.KindForEnd:
			return nodes, nil

		default:
			return nil, &Error{Msg: fmt.Sprintf("Unexpected token: %s", tok.Kind), Token: tok}
		}
	}

	return nodes, nil
}

func (p *parser) parseIf(depth int) (ast.Node, error) {
	if depth+1 > MaxNestingDepth {
		return nil, &Error{Msg: "Maximum block nesting depth exceeded", Token: p.peek()}
	}

	start := p.next()

	condition := strings.TrimSpace(start.Text)
	if condition == "" {
		return nil, &Error{Msg: "Empty if condition", Token: start}
	}

	body, err := p.parseNodes(depth + 1)
	if err != nil {
		return nil, err
	}

	elseBody := []ast.Node{}
	if !p.eof() && p.peek().Kind == lexer.KindElse {
		p.next()
		elseBody, err = p.parseNodes(depth + 1)
		if err != nil {
			return nil, err
		}
	}

	if p.eof() || p.peek().Kind != lexer.KindIfEnd {
		return nil, &Error{Msg: "Unmatched if statement", Token: start}
	}
	p.next()

	return &ast.IfNode{Condition: condition, Body: body, ElseBody: elseBody}, nil
}

func (p *parser) parseFor(depth int) (ast.Node, error) {
	if depth+1 > MaxNestingDepth {
		return nil, &Error{Msg: "Maximum block nesting depth exceeded", Token: p.peek()}
	}

	start := p.next()

	m := forHeaderRe.FindStringSubmatch(strings.TrimSpace(start.Text))
	if m == nil {
		return nil, &Error{Msg: "Invalid for loop syntax", Token: start}
	}
	item, index, iterable := m[1], m[2], strings.TrimSpace(m[3])

	body, err := p.parseNodes(depth + 1)
	if err != nil {
		return nil, err
	}

	if p.eof() || p.peek().Kind != lexer.KindForEnd {
		return nil, &Error{Msg: "Unmatched for loop", Token: start}
	}
	p.next()

	return &ast.ForNode{Item: item, Index: index, Iterable: iterable, Body: body}, nil
}
