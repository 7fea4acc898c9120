package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"medproio/pkg/config"
)

const defaultConfigPath = "medproio.yaml"

// rootOptions holds flags shared by all commands.
type rootOptions struct {
	ConfigPath string
	Verbose    bool
	PreviewDir string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "medproio",
		Short: "Medical volume preprocessing",
		Long: `Preprocess 3D medical volumes: rigid alignment by mutual information,
resampling onto a reference grid, resampling to a target spacing and centre
crop/pad to a target size.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", defaultConfigPath, "path to YAML configuration")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().StringVar(&opts.PreviewDir, "preview-dir", "", "write PNG slice previews to this directory")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newConfigCommand(opts))

	return cmd
}

// loadConfig reads the configuration file and applies command line overrides.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Output.Verbose = o.Verbose
	}
	if cmd.Flags().Changed("preview-dir") {
		cfg.Output.PreviewDir = o.PreviewDir
	}
	return cfg, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
