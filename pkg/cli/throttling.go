package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/getmockd/routemock/pkg/admin"
	"github.com/getmockd/routemock/pkg/cli/internal/output"
)

var useThrottlingCmd = &cobra.Command{
	Use:   "use-throttling [name]",
	Short: "Turn a throttling band on, or throttling off",
	Long: `Turn a throttling band on, or throttling off.

Naming the active band, an unknown band, or no band turns throttling off.`,
	Example: `  routemock use-throttling Slow
  routemock use-throttling`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		client := newClient()
		if err := client.UseThrottling(cmd.Context(), name); err != nil {
			return FormatConnectionError(err)
		}
		status, err := client.GetThrottling(cmd.Context())
		if err != nil {
			return FormatConnectionError(err)
		}
		w := cmd.OutOrStdout()
		return printResult(w, status, func() { printThrottlingStatus(w, status) })
	},
}

var throttlingCmd = &cobra.Command{
	Use:   "throttling",
	Short: "Show the throttling bands and the active one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := newClient().GetThrottling(cmd.Context())
		if err != nil {
			return FormatConnectionError(err)
		}
		w := cmd.OutOrStdout()
		return printResult(w, status, func() { printThrottlingStatus(w, status) })
	},
}

func printThrottlingStatus(w io.Writer, status *admin.ThrottlingStatus) {
	if status.Current == nil {
		fmt.Fprintln(w, "Throttling is off")
	} else {
		fmt.Fprintf(w, "Throttling: %s (%d-%dms)\n", status.Current.Name, status.Current.Values[0], status.Current.Values[1])
	}
	if len(status.Bands) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw := output.Table(w)
	fmt.Fprintln(tw, "NAME\tMIN\tMAX")
	for _, b := range status.Bands {
		fmt.Fprintf(tw, "%s\t%dms\t%dms\n", b.Name, b.Values[0], b.Values[1])
	}
	_ = tw.Flush()
}

func init() {
	rootCmd.AddCommand(useThrottlingCmd)
	rootCmd.AddCommand(throttlingCmd)
}
