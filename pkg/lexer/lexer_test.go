package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/safetmpl/pkg/lexer"
	"github.com/walteh/safetmpl/pkg/position"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     []lexer.Token
	}{
		{
			name:     "plain text only",
			template: "just some text",
			want: []lexer.Token{
				{Kind: lexer.KindText, Text: "just some text", Span: position.NewSpan(0, 14)},
			},
		},
		{
			name:     "empty template",
			template: "",
			want:     nil,
		},
		{
			name:     "variable with surrounding text",
			template: "Hello {{ name }}!",
			want: []lexer.Token{
				{Kind: lexer.KindText, Text: "Hello ", Span: position.NewSpan(0, 6)},
				{Kind: lexer.KindVariable, Text: "name", Span: position.NewSpan(6, 16)},
				{Kind: lexer.KindText, Text: "!", Span: position.NewSpan(16, 17)},
			},
		},
		{
			name:     "variable whitespace is trimmed",
			template: "{{   user.name   }}",
			want: []lexer.Token{
				{Kind: lexer.KindVariable, Text: "user.name", Span: position.NewSpan(0, 19)},
			},
		},
		{
			name:     "if else endif",
			template: "{% if ok %}a{% else %}b{% endif %}",
			want: []lexer.Token{
				{Kind: lexer.KindIfStart, Text: "ok", Span: position.NewSpan(0, 11)},
				{Kind: lexer.KindText, Text: "a", Span: position.NewSpan(11, 12)},
				{Kind: lexer.KindElse, Span: position.NewSpan(12, 22)},
				{Kind: lexer.KindText, Text: "b", Span: position.NewSpan(22, 23)},
				{Kind: lexer.KindIfEnd, Span: position.NewSpan(23, 34)},
			},
		},
		{
			name:     "for loop",
			template: "{% for item in items %}{{ item }}{% endfor %}",
			want: []lexer.Token{
				{Kind: lexer.KindForStart, Text: "item in items", Span: position.NewSpan(0, 23)},
				{Kind: lexer.KindVariable, Text: "item", Span: position.NewSpan(23, 33)},
				{Kind: lexer.KindForEnd, Span: position.NewSpan(33, 45)},
			},
		},
		{
			name:     "escaped braces become literal text",
			template: `\{\{ not a marker \}\}`,
			want: []lexer.Token{
				{Kind: lexer.KindText, Text: "{{ not a marker }}", Span: position.NewSpan(0, 22)},
			},
		},
		{
			name:     "single braces are plain text",
			template: "a { b } c",
			want: []lexer.Token{
				{Kind: lexer.KindText, Text: "a { b } c", Span: position.NewSpan(0, 9)},
			},
		},
		{
			name:     "whitespace in text is preserved",
			template: "  {{ x }}  ",
			want: []lexer.Token{
				{Kind: lexer.KindText, Text: "  ", Span: position.NewSpan(0, 2)},
				{Kind: lexer.KindVariable, Text: "x", Span: position.NewSpan(2, 9)},
				{Kind: lexer.KindText, Text: "  ", Span: position.NewSpan(9, 11)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := lexer.Tokenize(tt.template)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name     string
		template string
		wantMsg  string
	}{
		{
			name:     "unclosed variable",
			template: "Hello {{ name",
			wantMsg:  "Unclosed variable expression",
		},
		{
			name:     "unclosed block",
			template: "{% if ok",
			wantMsg:  "Unclosed block expression",
		},
		{
			name:     "empty variable",
			template: "{{ }}",
			wantMsg:  "Empty variable expression",
		},
		{
			name:     "empty block",
			template: "{% %}",
			wantMsg:  "Empty block expression",
		},
		{
			name:     "if without condition",
			template: "{% if %}x{% endif %}",
			wantMsg:  "Empty if condition",
		},
		{
			name:     "for without header",
			template: "{% for %}x{% endfor %}",
			wantMsg:  "Empty for expression",
		},
		{
			name:     "raw html triple braces",
			template: "{{{ html }}}",
			wantMsg:  "Raw HTML not supported",
		},
		{
			name:     "mismatched if closed by endfor",
			template: "{% if ok %}x{% endfor %}",
			wantMsg:  "Mismatched block tags",
		},
		{
			name:     "mismatched for closed by endif",
			template: "{% for x in xs %}x{% endif %}",
			wantMsg:  "Mismatched block tags",
		},
		{
			name:     "mismatched nested blocks",
			template: "{% for x in xs %}{% if x %}{% endfor %}{% endif %}",
			wantMsg:  "Mismatched block tags",
		},
		{
			name:     "unknown block tag",
			template: "{% include header %}",
			wantMsg:  "Unknown block tag: include",
		},
		{
			name:     "else with arguments",
			template: "{% if a %}{% else b %}{% endif %}",
			wantMsg:  "Unexpected argument to 'else' tag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lexer.Tokenize(tt.template)
			require.Error(t, err)

			lexErr := &lexer.Error{}
			require.ErrorAs(t, err, &lexErr)
			assert.Equal(t, tt.wantMsg, lexErr.Msg)
		})
	}
}

func TestTokenizeErrorSpans(t *testing.T) {
	_, err := lexer.Tokenize("ok {{ broken")
	require.Error(t, err)

	lexErr := &lexer.Error{}
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, position.NewSpan(3, 12), lexErr.Span)
}

func TestTokenizeSpansAreOrdered(t *testing.T) {
	template := "a{{ b }}c{% if d %}e{% endif %}f"
	tokens, err := lexer.Tokenize(template)
	require.NoError(t, err)

	prevEnd := 0
	for _, tok := range tokens {
		assert.GreaterOrEqual(t, tok.Span.Start, prevEnd, "token %s out of order", tok)
		assert.Greater(t, tok.Span.End, tok.Span.Start, "token %s has empty span", tok)
		prevEnd = tok.Span.End
	}
	assert.Equal(t, len(template), prevEnd)
}
