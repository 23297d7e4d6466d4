package safetmpl_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/safetmpl"
)

func TestRender(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		template string
		data     map[string]any
		want     string
	}{
		{
			name:     "hello world",
			template: "Hello {{ name }}!",
			data:     map[string]any{"name": "World"},
			want:     "Hello World!",
		},
		{
			name:     "for loop",
			template: "{% for item in items %}{{ item }} {% endfor %}",
			data:     map[string]any{"items": []any{"a", "b"}},
			want:     "a b ",
		},
		{
			name:     "nil context",
			template: "static {{ missing }} text",
			data:     nil,
			want:     "static  text",
		},
		{
			name:     "escaped braces",
			template: `\{\{ literal \}\}`,
			data:     nil,
			want:     "{{ literal }}",
		},
		{
			name:     "conditional with else",
			template: "{% if admin %}admin{% else %}guest{% endif %}",
			data:     map[string]any{"admin": false},
			want:     "guest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := safetmpl.Render(ctx, tt.template, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderLiteralRoundTrip(t *testing.T) {
	ctx := context.Background()

	templates := []string{
		"",
		"plain",
		"multi\nline\ttext",
		"no markers & no escapes < >",
	}
	contexts := []map[string]any{
		nil,
		{},
		{"v": "value"},
	}

	for _, template := range templates {
		for _, data := range contexts {
			got, err := safetmpl.Render(ctx, template, data)
			require.NoError(t, err)
			assert.Equal(t, template, got)
		}
	}
}

func TestRenderErrorMessages(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		template string
		data     map[string]any
		want     string
	}{
		{
			name:     "lex error carries position",
			template: "{{ unclosed",
			want:     "Unclosed variable expression at position 0-11",
		},
		{
			name:     "parse error carries position",
			template: "ab{% endif %}",
			want:     "Unexpected endif statement at position 2-13",
		},
		{
			name:     "evaluation error gets generic prefix",
			template: "{% for x in n %}{{ x }}{% endfor %}",
			data:     map[string]any{"n": 7},
			want:     "Template rendering failed: Cannot iterate over non-iterable value: n",
		},
		{
			name:     "security error gets generic prefix",
			template: "{{ process.env || 1 }}",
			want:     "Template rendering failed: Access to dangerous globals is not allowed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := safetmpl.Render(ctx, tt.template, tt.data)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestCompileReuse(t *testing.T) {
	ctx := context.Background()

	tmpl, err := safetmpl.Compile("Hi {{ name }}")
	require.NoError(t, err)

	first, err := tmpl.Render(ctx, map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Ada", first)

	second, err := tmpl.Render(ctx, map[string]any{"name": "Grace"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Grace", second)
}

func TestCompileRejectsBadTemplates(t *testing.T) {
	_, err := safetmpl.Compile("{% if a %}")
	require.Error(t, err)

	_, err = safetmpl.Compile("{{{ raw }}}")
	require.Error(t, err)
}

func TestCompiledTemplateIsConcurrencySafe(t *testing.T) {
	tmpl, err := safetmpl.Compile("{% for x in xs %}{{ x }}{% endfor %}")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := tmpl.Render(context.Background(), map[string]any{"xs": []any{"a", "b"}})
			assert.NoError(t, err)
			assert.Equal(t, "ab", out)
		}()
	}
	wg.Wait()
}

func TestRenderLoopIndexInvariant(t *testing.T) {
	ctx := context.Background()

	for _, n := range []int{0, 1, 5} {
		xs := make([]any, n)
		want := ""
		for i := range xs {
			xs[i] = "x"
			want += string(rune('0' + i))
		}

		got, err := safetmpl.Render(ctx, "{% for x, i in xs %}{{ i }}{% endfor %}", map[string]any{"xs": xs})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
