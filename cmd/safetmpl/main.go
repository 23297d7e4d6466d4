package main

import (
	"context"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	lint_cmd "github.com/walteh/safetmpl/cmd/safetmpl/lint"
	render_cmd "github.com/walteh/safetmpl/cmd/safetmpl/render"
)

func main() {
	if err := run(); err != nil {
		println(err.Error())
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	rootCmd := &cobra.Command{
		Use:   "safetmpl",
		Short: "render and lint templates with escaped, sandboxed interpolation",
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		rootCmd.Version = "unknown"
	} else {
		rootCmd.Version = info.Main.Version
	}

	var debugLogging bool
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "enable debug logging")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		level := zerolog.InfoLevel
		if debugLogging {
			level = zerolog.DebugLevel
		}
		leveled := zerolog.Ctx(cmd.Context()).Level(level)
		cmd.SetContext(leveled.WithContext(cmd.Context()))
	}

	rootCmd.AddCommand(render_cmd.NewRenderCommand())
	rootCmd.AddCommand(lint_cmd.NewLintCommand())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return errors.Errorf("failed to execute command: %w", err)
	}

	return nil
}
