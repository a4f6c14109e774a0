// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/chapterize/pkg/types"
)

const defaultConfigFile = "chapterize.yaml"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage chapterize configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the built-in defaults",
	Long: `Init writes chapterize.yaml in the current directory, populated with
the built-in defaults, as a starting point for customization. Values in the
file are overridden by CHAPTERIZE_* environment variables and by flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(defaultConfigFile); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", defaultConfigFile)
		}

		data, err := yaml.Marshal(types.DefaultPipelineConfig())
		if err != nil {
			return fmt.Errorf("encoding defaults: %w", err)
		}
		if err := os.WriteFile(defaultConfigFile, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", defaultConfigFile, err)
		}

		fmt.Printf("Wrote %s\n", defaultConfigFile)
		return nil
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
