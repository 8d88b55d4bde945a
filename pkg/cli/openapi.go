package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var openapiOutput string

var openapiCmd = &cobra.Command{
	Use:   "openapi",
	Short: "Export an OpenAPI document describing the routes of a running server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := newClient().GetOpenAPI(cmd.Context())
		if err != nil {
			return FormatConnectionError(err)
		}
		if openapiOutput == "" || openapiOutput == "-" {
			return writeIndented(cmd.OutOrStdout(), raw)
		}

		f, err := os.Create(openapiOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		if err := writeIndented(f, raw); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "OpenAPI document written to %s\n", openapiOutput)
		return nil
	},
}

func init() {
	openapiCmd.Flags().StringVarP(&openapiOutput, "output", "o", "", "Write the document to this file instead of stdout")
	rootCmd.AddCommand(openapiCmd)
}
