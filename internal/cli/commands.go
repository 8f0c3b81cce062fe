// Package cli implements inventory-cli, the command line client of the
// inventory server.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

const cliVersion = "v0.1.0"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// Global flags
	jsonOutput bool
	yamlOutput bool
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "inventory-cli",
	Short: "Inventory CLI - upload BOMs and inspect project inventories",
	Long: `Inventory CLI talks to the inventory server. It creates projects, uploads
CycloneDX bills of materials, follows their processing and lists the resulting
components and services.`,
	PersistentPreRunE: preRunHandlePersistents,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "", "", "Path to configuration file to override default")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&yamlOutput, "yaml", "y", false, "Output in YAML format")
	rootCmd.MarkFlagsMutuallyExclusive("json", "yaml")

	rootCmd.AddCommand(newVersionCmd())
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		if jsonOutput {
			printJSON(os.Stdout, map[string]any{"result": 0, "error": err.Error()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func preRunHandlePersistents(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		var err error
		configFile, err = GetDefaultConfigPath()
		if err != nil {
			return err
		}
	}

	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "config" || c.Name() == "version" {
			return nil
		}
	}
	if err := LoadConfig(configFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file not found, run \"inventory-cli config set-server <url>\" first")
		}
		return err
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of inventory-cli",
		Run: func(cmd *cobra.Command, args []string) {
			if jsonOutput {
				printJSON(cmd.OutOrStdout(), map[string]any{"result": 1, "value": map[string]string{"version": cliVersion}})
				return
			}
			cmd.Println("inventory-cli " + cliVersion)
		},
	}
}

// printResponse writes a server response: wrapped as {"result":1,"value":...}
// with --json, as YAML otherwise.
func printResponse(w io.Writer, body []byte) error {
	if jsonOutput {
		var value any
		if err := json.Unmarshal(body, &value); err != nil {
			return fmt.Errorf("failed to parse response: %v", err)
		}
		printJSON(w, map[string]any{"result": 1, "value": value})
		return nil
	}
	out, err := yaml.JSONToYAML(body)
	if err != nil {
		return fmt.Errorf("failed to convert to YAML: %v", err)
	}
	fmt.Fprint(w, string(out))
	return nil
}

// structuredOutput reports whether the user asked for JSON or YAML instead
// of the short human readable form.
func structuredOutput() bool {
	return jsonOutput || yamlOutput
}

func printJSON(w io.Writer, data any) {
	jsonData, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(jsonData))
}
