package render

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHandler(t *testing.T, me *Handler, templateFile string) (string, error) {
	t.Helper()

	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	err := me.Run(context.Background(), cmd, templateFile)
	return buf.String(), err
}

func TestRenderCommandToStdout(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "greeting.tmpl", []byte("Hello {{ name }}!"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "ctx.yaml", []byte("name: World\n"), 0o644))

	me := &Handler{fs: fs, contextFile: "ctx.yaml"}
	out, err := runHandler(t, me, "greeting.tmpl")
	require.NoError(t, err)
	assert.Equal(t, "Hello World!", out)
}

func TestRenderCommandJSONContext(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "loop.tmpl", []byte("{% for x in xs %}{{ x }}{% endfor %}"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "ctx.json", []byte(`{"xs": ["a", "b"]}`), 0o644))

	me := &Handler{fs: fs, contextFile: "ctx.json"}
	out, err := runHandler(t, me, "loop.tmpl")
	require.NoError(t, err)
	assert.Equal(t, "ab", out)
}

func TestRenderCommandNoContextFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "static.tmpl", []byte("just text"), 0o644))

	me := &Handler{fs: fs}
	out, err := runHandler(t, me, "static.tmpl")
	require.NoError(t, err)
	assert.Equal(t, "just text", out)
}

func TestRenderCommandToOutputFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "in.tmpl", []byte("v={{ v }}"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "ctx.yaml", []byte("v: 1\n"), 0o644))

	me := &Handler{fs: fs, contextFile: "ctx.yaml", output: "out.txt"}
	stdout, err := runHandler(t, me, "in.tmpl")
	require.NoError(t, err)
	assert.Empty(t, stdout)

	written, err := afero.ReadFile(fs, "out.txt")
	require.NoError(t, err)
	assert.Equal(t, "v=1", string(written))
}

func TestRenderCommandBadTemplate(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "bad.tmpl", []byte("{{ unclosed"), 0o644))

	me := &Handler{fs: fs}
	_, err := runHandler(t, me, "bad.tmpl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unclosed variable expression")
}

func TestRenderCommandMissingTemplate(t *testing.T) {
	me := &Handler{fs: afero.NewMemMapFs()}
	_, err := runHandler(t, me, "nope.tmpl")
	require.Error(t, err)
}
