package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/routemock/pkg/cli/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the throttling bands and proxies of a running server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := newClient().GetConfig(cmd.Context())
		if err != nil {
			return FormatConnectionError(err)
		}

		w := cmd.OutOrStdout()
		return printResult(w, opts, func() {
			output.Heading(w, "throttlings")
			if len(opts.Throttlings) == 0 {
				fmt.Fprintln(w, "  (none)")
			}
			for _, b := range opts.Throttlings {
				fmt.Fprintf(w, "  %s: %d-%dms\n", b.Name, b.Values[0], b.Values[1])
			}

			output.Heading(w, "proxies")
			if len(opts.Proxies) == 0 {
				fmt.Fprintln(w, "  (none)")
			}
			for _, p := range opts.Proxies {
				fmt.Fprintf(w, "  %s: %s\n", p.Name, p.Host)
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
