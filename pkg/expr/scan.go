package expr

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tkNumber tokenKind = iota
	tkString
	tkIdent
	tkOp
	tkEOF
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

// twoCharOps are matched before single-character operators. Three-character
// forms (=== and !==) are folded onto their two-character equivalents.
var threeCharOps = []string{"===", "!=="}

var twoCharOps = []string{"==", "!=", "<=", ">=", "&&", "||"}

const singleCharOps = "+-*/%<>!()[].,"

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// scanTokens splits an expression into tokens for the restricted grammar.
func scanTokens(src string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(src) {
		c := src[i]

		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			i++
			continue
		}

		if isDigit(c) {
			start := i
			for i < len(src) && isDigit(src[i]) {
				i++
			}
			if i+1 < len(src) && src[i] == '.' && isDigit(src[i+1]) {
				i++
				for i < len(src) && isDigit(src[i]) {
					i++
				}
			}
			text := src[start:i]
			num, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("bad number literal %q", text)
			}
			tokens = append(tokens, token{kind: tkNumber, text: text, num: num, pos: start})
			continue
		}

		if c == '\'' || c == '"' {
			start := i
			quote := c
			i++
			var sb strings.Builder
			closed := false
			for i < len(src) {
				if src[i] == '\\' && i+1 < len(src) {
					switch src[i+1] {
					case 'n':
						sb.WriteByte('\n')
					case 't':
						sb.WriteByte('\t')
					case 'r':
						sb.WriteByte('\r')
					default:
						sb.WriteByte(src[i+1])
					}
					i += 2
					continue
				}
				if src[i] == quote {
					closed = true
					i++
					break
				}
				sb.WriteByte(src[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated string literal")
			}
			tokens = append(tokens, token{kind: tkString, text: sb.String(), pos: start})
			continue
		}

		if isIdentStart(c) {
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tkIdent, text: src[start:i], pos: start})
			continue
		}

		matched := false
		for _, op := range threeCharOps {
			if strings.HasPrefix(src[i:], op) {
				tokens = append(tokens, token{kind: tkOp, text: op[:2], pos: i})
				i += 3
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		for _, op := range twoCharOps {
			if strings.HasPrefix(src[i:], op) {
				tokens = append(tokens, token{kind: tkOp, text: op, pos: i})
				i += 2
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		if strings.IndexByte(singleCharOps, c) >= 0 {
			tokens = append(tokens, token{kind: tkOp, text: string(c), pos: i})
			i++
			continue
		}

		return nil, fmt.Errorf("unexpected character %q", string(c))
	}

	tokens = append(tokens, token{kind: tkEOF, pos: len(src)})
	return tokens, nil
}
