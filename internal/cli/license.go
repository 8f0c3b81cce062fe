package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tansive/tansive-inventory/pkg/api"
)

var createLicenseReq api.CreateLicenseReq

var licenseCmd = &cobra.Command{
	Use:   "license",
	Short: "Manage the license catalog",
}

var licenseAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a license to the catalog",
	Long: `Add a license that imports resolve component licenses against.

Examples:
  inventory-cli license add --id Apache-2.0 --name "Apache License 2.0"
  inventory-cli license add --custom --name "Acme Proprietary License"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if createLicenseReq.LicenseID == "" && !createLicenseReq.Custom {
			return fmt.Errorf("--id is required unless --custom is set")
		}
		body, _, err := NewHTTPClient(GetConfig()).Send(createLicenseReq)
		if err != nil {
			return err
		}
		if structuredOutput() {
			return printResponse(cmd.OutOrStdout(), body)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "license added: %s\n", createLicenseReq.Name)
		return nil
	},
}

func init() {
	licenseAddCmd.Flags().StringVar(&createLicenseReq.LicenseID, "id", "", "SPDX license identifier")
	licenseAddCmd.Flags().StringVar(&createLicenseReq.Name, "name", "", "License name")
	licenseAddCmd.Flags().BoolVar(&createLicenseReq.Custom, "custom", false, "License is not an SPDX license")
	licenseAddCmd.MarkFlagRequired("name")

	licenseCmd.AddCommand(licenseAddCmd)
	rootCmd.AddCommand(licenseCmd)
}
