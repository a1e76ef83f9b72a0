package cli

import (
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"profile-extract-go/pkg/config"
)

func (a *App) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the current configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.ShowConfig(cmd)
			},
		},
		&cobra.Command{
			Use:     "set section.key=value",
			Short:   "Set a configuration value",
			Example: "  profile-extract config set processor.success_probability=0.75",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.SetConfig(args[0]); err != nil {
					return fmt.Errorf("failed to set config: %w", err)
				}
				cmd.Println("Configuration updated successfully")
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the configuration file path",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				cmd.Println(a.configPath)
			},
		},
	)

	return cmd
}

// ShowConfig displays the current configuration
func (a *App) ShowConfig(cmd *cobra.Command) error {
	data, err := toml.Marshal(a.cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

// SetConfig sets a configuration value
// Format: section.key=value (e.g., "batch.max_concurrent=4")
func (a *App) SetConfig(setStr string) error {
	keyPath, value, ok := strings.Cut(setStr, "=")
	if !ok {
		return fmt.Errorf("invalid format: expected 'section.key=value'")
	}

	if err := a.cfg.Set(strings.TrimSpace(keyPath), value); err != nil {
		return err
	}

	return config.SaveTo(a.configPath, a.cfg)
}
