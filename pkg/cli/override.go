package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var useOverrideCmd = &cobra.Command{
	Use:   "use-override <path> <method> [name]",
	Short: "Select which override a route method serves",
	Long: `Select which override a route method serves.

Without a name, or with a name that matches no override, the method goes
back to its default content. The selection is persisted when the server has
persistence enabled.`,
	Example: `  routemock use-override /users get "Inactive User"
  routemock use-override /users get`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 3 {
			name = args[2]
		}
		sel, err := newClient().UseOverride(cmd.Context(), args[0], args[1], name)
		if err != nil {
			return FormatConnectionError(err)
		}

		w := cmd.OutOrStdout()
		return printResult(w, sel, func() {
			if sel.Name == "" {
				fmt.Fprintf(w, "%s %s serves its default content\n", sel.MethodType, sel.RoutePath)
				return
			}
			fmt.Fprintf(w, "%s %s override set to %q\n", sel.MethodType, sel.RoutePath, sel.Name)
		})
	},
}

func init() {
	rootCmd.AddCommand(useOverrideCmd)
}
