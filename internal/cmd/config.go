package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long: `Print the configuration srcflat would use for the root: the built-in
defaults merged with <root>/.srcflat/config.yaml and any flags given.
The output is a valid config file.`,
		Args: cobra.NoArgs,
		RunE: configCommand,
	}

	cmd.Flags().String("root", "", "Project root (default: current directory)")
	cmd.Flags().String("config", "", "Path to config file (default: <root>/.srcflat/config.yaml)")
	cmd.Flags().String("output", "", "Output folder name under the root")
	cmd.Flags().BoolP("whitelist", "w", false, "Enable the whitelist")

	return cmd
}

func configCommand(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}
