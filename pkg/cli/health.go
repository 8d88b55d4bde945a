package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that a server is running",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := newClient().Health(cmd.Context())
		if err != nil {
			return FormatConnectionError(err)
		}
		w := cmd.OutOrStdout()
		return printResult(w, h, func() {
			fmt.Fprintf(w, "%s: routemock %s serving %d routes at %s\n", h.Status, h.Version, h.Routes, adminURL)
		})
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
