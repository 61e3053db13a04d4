package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kingrea/roster-onboard/internal/config"
)

func newInitCmd(opts *rootOptions, out io.Writer) *cobra.Command {
	var variant string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create .onboard/ with a default config.yaml",
		Long: `Create the .onboard directory in the working directory.

An existing config.yaml is left untouched unless --variant is given, in which
case only the default variant is updated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			workDir, err := opts.resolveWorkDir()
			if err != nil {
				return err
			}
			if err := config.InitDir(workDir); err != nil {
				return fmt.Errorf("init: %w", err)
			}
			cfg, err := config.Load(workDir, config.Overrides{})
			if err != nil {
				return err
			}
			if variant != "" {
				if err := cfg.SetVariant(variant); err != nil {
					return err
				}
			}
			fmt.Fprintf(out, "Initialized %s (variant: %s)\n", cfg.ProjectConfigPath(), cfg.Variant().Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&variant, "variant", "", "default variant to store: signup, course or instance")
	return cmd
}
