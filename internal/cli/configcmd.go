package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configTimeout int

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the inventory-cli configuration",
}

var configSetServerCmd = &cobra.Command{
	Use:   "set-server <url>",
	Short: "Set the inventory server URL",
	Long: `Set the inventory server URL and write the configuration file.

Example:
  inventory-cli config set-server localhost:8194`,
	Args: cobra.ExactArgs(1),
	RunE: setServer,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := LoadConfig(configFile); err != nil {
			return err
		}
		cfg := GetConfig()
		if jsonOutput {
			printJSON(cmd.OutOrStdout(), map[string]any{"result": 1, "value": cfg})
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Server: %s\n", cfg.GetServerURL())
		return nil
	},
}

func setServer(cmd *cobra.Command, args []string) error {
	cfg := &Config{
		Version:        configVersion,
		ServerURL:      MorphServer(args[0]),
		TimeoutSeconds: configTimeout,
	}
	if err := cfg.ValidateConfig(); err != nil {
		return err
	}
	if err := cfg.WriteConfig(configFile); err != nil {
		return err
	}
	config = cfg
	fmt.Fprintf(cmd.OutOrStdout(), "server set to %s\n", cfg.ServerURL)
	return nil
}

func init() {
	configSetServerCmd.Flags().IntVar(&configTimeout, "timeout", 0, "Request timeout in seconds")
	configCmd.AddCommand(configSetServerCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
