// Package cli implements the docskema command.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/reoring/docskema"
)

// Version is set at build time with -ldflags.
var Version = "dev"

type rootFlags struct {
	verbose bool
	lang    string
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:   "docskema",
		Short: "Validate documents against declarative schemas",
		Long: `docskema shapes schema descriptions, validates documents and update
operators against them, and compiles them into $jsonSchema validators.

Configuration is read from DOCSKEMA_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setup(cmd.ErrOrStderr(), f)
		},
	}
	root.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&f.lang, "lang", "", "message language (en, ja); overrides DOCSKEMA_MESSAGE_LANG")

	root.AddCommand(newCompileCommand(), newCheckCommand(), newNormalizeCommand(), newVersionCommand())
	return root
}

func setup(stderr io.Writer, f *rootFlags) error {
	level := slog.LevelWarn
	if f.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := docskema.LoadConfig()
	if err != nil {
		return err
	}
	if f.lang != "" {
		cfg.Language = f.lang
	}
	if err := docskema.Configure(cfg); err != nil {
		return err
	}
	slog.Debug("configured", "component", "cli", "identity", cfg.IdentityField, "lang", cfg.Language)
	return nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "docskema", Version)
		},
	}
}
