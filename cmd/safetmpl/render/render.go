package render

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/walteh/safetmpl"
)

type Handler struct {
	contextFile string
	output      string
	fs          afero.Fs
}

func NewRenderCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "render <template-file>",
		Short: "render a template file against a context file",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().StringVarP(&me.contextFile, "context", "c", "", "JSON or YAML file with template data")
	cmd.Flags().StringVarP(&me.output, "output", "o", "", "write output to a file instead of stdout")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context(), cmd, args[0])
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, cmd *cobra.Command, templateFile string) error {
	logger := zerolog.Ctx(ctx).With().
		Str("render_id", uuid.New().String()).
		Str("template", templateFile).
		Logger()
	ctx = logger.WithContext(ctx)

	raw, err := afero.ReadFile(me.fs, templateFile)
	if err != nil {
		return errors.Errorf("reading template: %w", err)
	}

	data, err := me.loadContext()
	if err != nil {
		return err
	}

	out, err := safetmpl.Render(ctx, string(raw), data)
	if err != nil {
		return errors.Errorf("rendering %s: %w", templateFile, err)
	}

	if me.output != "" {
		if err := afero.WriteFile(me.fs, me.output, []byte(out), 0o644); err != nil {
			return errors.Errorf("writing output: %w", err)
		}
		logger.Info().Str("output", me.output).Int("bytes", len(out)).Msg("rendered template")
		return nil
	}

	if _, err := cmd.OutOrStdout().Write([]byte(out)); err != nil {
		return errors.Errorf("writing output: %w", err)
	}
	return nil
}

// loadContext reads the context file when one was given. YAML is a superset
// of JSON, so one decoder covers both formats.
func (me *Handler) loadContext() (map[string]any, error) {
	if me.contextFile == "" {
		return map[string]any{}, nil
	}

	raw, err := afero.ReadFile(me.fs, me.contextFile)
	if err != nil {
		return nil, errors.Errorf("reading context file: %w", err)
	}

	data := map[string]any{}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, errors.Errorf("parsing context file %s: %w", me.contextFile, err)
	}
	return data, nil
}
