// Package lexer turns a raw template string into a flat sequence of typed
// tokens with source spans. It is purely lexical: block nesting is only
// sanity-checked for mismatched end-tag kinds, full matching is the parser's
// job.
package lexer

import (
	"fmt"
	"strings"

	"github.com/walteh/safetmpl/pkg/position"
)

const (
	openRaw    = "{{{"
	closeRaw   = "}}}"
	openVar    = "{{"
	closeVar   = "}}"
	openBlock  = "{%"
	closeBlock = "%}"
)

// Tokenize converts template into tokens. It fails with *Error on malformed
// marker syntax: unclosed or empty markers, unknown or mismatched block tags,
// and the unsupported raw-HTML triple-brace form.
func Tokenize(template string) ([]Token, error) {
	if err := checkClosed(template); err != nil {
		return nil, err
	}

	tokens, err := scan(template)
	if err != nil {
		return nil, err
	}

	if err := checkBalanced(tokens); err != nil {
		return nil, err
	}

	return tokens, nil
}

// checkClosed is the lookahead pass: every opening marker must have a closing
// one before end of input. Escaped braces are not markers.
func checkClosed(template string) error {
	i := 0
	for i < len(template) {
		if isEscapedBrace(template, i) {
			i += 2
			continue
		}
		if strings.HasPrefix(template[i:], openVar) {
			rel := strings.Index(template[i+2:], closeVar)
			if rel < 0 {
				return newError("Unclosed variable expression", i, len(template))
			}
			i += 2 + rel + 2
			continue
		}
		if strings.HasPrefix(template[i:], openBlock) {
			rel := strings.Index(template[i+2:], closeBlock)
			if rel < 0 {
				return newError("Unclosed block expression", i, len(template))
			}
			i += 2 + rel + 2
			continue
		}
		i++
	}
	return nil
}

func isEscapedBrace(template string, i int) bool {
	return template[i] == '\\' && i+1 < len(template) &&
		(template[i+1] == '{' || template[i+1] == '}')
}

func scan(template string) ([]Token, error) {
	var tokens []Token
	var text strings.Builder
	textStart := 0

	flush := func(end int) {
		if text.Len() > 0 {
			tokens = append(tokens, Token{
				Kind: KindText,
				Text: text.String(),
				Span: position.NewSpan(textStart, end),
			})
			text.Reset()
		}
	}

	i := 0
	for i < len(template) {
		if isEscapedBrace(template, i) {
			if text.Len() == 0 {
				textStart = i
			}
			text.WriteByte(template[i+1])
			i += 2
			continue
		}

		if strings.HasPrefix(template[i:], openRaw) {
			end := i + len(openRaw)
			if rel := strings.Index(template[i:], closeRaw); rel >= 0 {
				end = i + rel + len(closeRaw)
			}
			return nil, newError("Raw HTML not supported", i, end)
		}

		if strings.HasPrefix(template[i:], openVar) {
			flush(i)
			rel := strings.Index(template[i+2:], closeVar)
			if rel < 0 {
				return nil, newError("Unclosed variable expression", i, len(template))
			}
			end := i + 2 + rel + 2
			payload := strings.TrimSpace(template[i+2 : i+2+rel])
			if payload == "" {
				return nil, newError("Empty variable expression", i, end)
			}
			tokens = append(tokens, Token{
				Kind: KindVariable,
				Text: payload,
				Span: position.NewSpan(i, end),
			})
			i = end
			continue
		}

		if strings.HasPrefix(template[i:], openBlock) {
			flush(i)
			tok, end, err := scanBlock(template, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = end
			continue
		}

		if text.Len() == 0 {
			textStart = i
		}
		text.WriteByte(template[i])
		i++
	}
	flush(len(template))

	return tokens, nil
}

func scanBlock(template string, start int) (Token, int, error) {
	rel := strings.Index(template[start+2:], closeBlock)
	if rel < 0 {
		return Token{}, 0, newError("Unclosed block expression", start, len(template))
	}
	end := start + 2 + rel + 2
	span := position.NewSpan(start, end)

	payload := strings.TrimSpace(template[start+2 : start+2+rel])
	if payload == "" {
		return Token{}, 0, newError("Empty block expression", start, end)
	}

	keyword := payload
	rest := ""
	if idx := strings.IndexAny(payload, " \t\r\n"); idx >= 0 {
		keyword = payload[:idx]
		rest = strings.TrimSpace(payload[idx+1:])
	}

	switch keyword {
	case "if":
		if rest == "" {
			return Token{}, 0, newError("Empty if condition", start, end)
		}
		return Token{Kind: KindIfStart, Text: rest, Span: span}, end, nil
	case "for":
		if rest == "" {
			return Token{}, 0, newError("Empty for expression", start, end)
		}
		return Token{Kind: KindForStart, Text: rest, Span: span}, end, nil
	case "else", "endif", "endfor":
		if rest != "" {
			return Token{}, 0, newError(fmt.Sprintf("Unexpected argument to '%s' tag", keyword), start, end)
		}
		kind := KindElse
		switch keyword {
		case "endif":
			kind = KindIfEnd
		case "endfor":
			kind = KindForEnd
		}
		return Token{Kind: kind, Span: span}, end, nil
	default:
		return Token{}, 0, newError(fmt.Sprintf("Unknown block tag: %s", keyword), start, end)
	}
}

// checkBalanced rejects end tags whose kind does not match the innermost open
// block. A dangling start or a stray end with nothing open is left for the
// parser to report.
func checkBalanced(tokens []Token) error {
	var stack []Kind
	for _, tok := range tokens {
		switch tok.Kind {
		case KindIfStart, KindForStart:
			stack = append(stack, tok.Kind)
		case KindIfEnd:
			if len(stack) > 0 {
				if stack[len(stack)-1] != KindIfStart {
					return &Error{Msg: "Mismatched block tags", Span: tok.Span}
				}
				stack = stack[:len(stack)-1]
			}
		case KindForEnd:
			if len(stack) > 0 {
				if stack[len(stack)-1] != KindForStart {
					return &Error{Msg: "Mismatched block tags", Span: tok.Span}
				}
				stack = stack[:len(stack)-1]
			}
		}
	}
	return nil
}
