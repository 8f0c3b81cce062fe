package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tansive/tansive-inventory/pkg/api"
	"github.com/tidwall/gjson"
)

var createProjectReq api.CreateProjectReq

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Create and inspect projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project",
	Long: `Create a project to upload BOMs against.

Example:
  inventory-cli project create --name acme-app --version 2.0.0`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		body, _, err := NewHTTPClient(GetConfig()).Send(createProjectReq)
		if err != nil {
			return err
		}
		if structuredOutput() {
			return printResponse(cmd.OutOrStdout(), body)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "project created: %s\n", gjson.GetBytes(body, "uuid").String())
		return nil
	},
}

var projectGetCmd = &cobra.Command{
	Use:   "get <project-uuid>",
	Short: "Show a project with its last import and direct dependencies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := NewHTTPClient(GetConfig()).Get("/v1/projects/" + args[0])
		if err != nil {
			return err
		}
		return printResponse(cmd.OutOrStdout(), body)
	},
}

var componentsCmd = &cobra.Command{
	Use:   "components <project-uuid>",
	Short: "List the components of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return listInventory(cmd, "/v1/projects/"+args[0]+"/components",
			[]string{"NAME", "VERSION", "PURL", "LICENSE", "INTERNAL"},
			[]string{"name", "version", "purl", "resolvedLicense|license", "internal"})
	},
}

var servicesCmd = &cobra.Command{
	Use:   "services <project-uuid>",
	Short: "List the services of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return listInventory(cmd, "/v1/projects/"+args[0]+"/services",
			[]string{"NAME", "VERSION", "GROUP", "AUTHENTICATED"},
			[]string{"name", "version", "group", "authenticated"})
	},
}

var bomsCmd = &cobra.Command{
	Use:   "boms <project-uuid>",
	Short: "List the BOM imports of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return listInventory(cmd, "/v1/projects/"+args[0]+"/boms",
			[]string{"IMPORTED", "FORMAT", "SPEC", "SERIAL", "VERSION"},
			[]string{"imported", "format", "specVersion", "serialNumber", "version"})
	},
}

// listInventory prints a JSON array either structured or as a table. A
// column path may list alternatives separated by "|"; the first non-empty
// value wins.
func listInventory(cmd *cobra.Command, path string, headers, columns []string) error {
	body, err := NewHTTPClient(GetConfig()).Get(path)
	if err != nil {
		return err
	}
	if structuredOutput() {
		return printResponse(cmd.OutOrStdout(), body)
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	printRow(tw, headers)
	for _, item := range gjson.ParseBytes(body).Array() {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = firstValue(item, col)
		}
		printRow(tw, row)
	}
	return tw.Flush()
}

func firstValue(item gjson.Result, col string) string {
	for _, alt := range strings.Split(col, "|") {
		if v := item.Get(alt); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return "-"
}

func printRow(tw *tabwriter.Writer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprintln(tw)
}

func init() {
	projectCreateCmd.Flags().StringVar(&createProjectReq.Name, "name", "", "Project name")
	projectCreateCmd.Flags().StringVar(&createProjectReq.Version, "version", "", "Project version")
	projectCreateCmd.Flags().StringVar(&createProjectReq.Group, "group", "", "Project group")
	projectCreateCmd.Flags().StringVar(&createProjectReq.Description, "description", "", "Project description")
	projectCreateCmd.MarkFlagRequired("name")

	projectCmd.AddCommand(projectCreateCmd, projectGetCmd)
	rootCmd.AddCommand(projectCmd, componentsCmd, servicesCmd, bomsCmd)
}
