package lint

import (
	"context"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"

	"github.com/walteh/safetmpl/pkg/diagnostic"
)

type Handler struct {
	fs afero.Fs
}

func NewLintCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "lint <glob>...",
		Short: "validate templates without rendering them",
		Long:  "Validate every template matched by the given glob patterns (doublestar globs like 'templates/**/*.tmpl') and report structural problems.",
		Args:  cobra.MinimumNArgs(1),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context(), cmd, args)
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, cmd *cobra.Command, patterns []string) error {
	fsys := afero.NewIOFS(me.fs)

	var result error
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return errors.Errorf("bad glob pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			zerolog.Ctx(ctx).Warn().Str("pattern", pattern).Msg("no files matched")
			continue
		}

		for _, path := range matches {
			raw, err := afero.ReadFile(me.fs, path)
			if err != nil {
				result = multierr.Append(result, errors.Errorf("reading %s: %w", path, err))
				continue
			}

			diags := diagnostic.Validate(ctx, string(raw))
			for _, d := range diags {
				fmt.Fprintf(cmd.OutOrStdout(), "%s:%s\n", path, d)
			}
			if len(diags) > 0 {
				result = multierr.Append(result, errors.Errorf("%s: %d problem(s)", path, len(diags)))
			}
		}
	}

	return result
}
