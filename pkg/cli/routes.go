package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/routemock/pkg/cli/internal/output"
	"github.com/getmockd/routemock/pkg/route"
)

// requestTimeout bounds one admin API call.
const requestTimeout = 30 * time.Second

func newClient() AdminClient {
	return NewAdminClient(adminURL, WithTimeout(requestTimeout))
}

var routesPath string

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the routes of a running server",
	Example: `  routemock routes
  routemock routes --path /users --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		routes, err := newClient().ListRoutes(cmd.Context(), routesPath)
		if err != nil {
			return FormatConnectionError(err)
		}
		w := cmd.OutOrStdout()
		return printResult(w, routes, func() { printRouteTable(w, routes) })
	},
}

var overridesCmd = &cobra.Command{
	Use:   "overrides",
	Short: "List the routes that have overrides and the current selections",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		routes, err := client.ListOverridable(cmd.Context())
		if err != nil {
			return FormatConnectionError(err)
		}
		selected, err := client.ListSelected(cmd.Context())
		if err != nil {
			return FormatConnectionError(err)
		}

		w := cmd.OutOrStdout()
		result := struct {
			Routes   []*route.Route    `json:"routes"`
			Selected []route.Selection `json:"selected"`
		}{routes, selected}
		return printResult(w, result, func() {
			if len(routes) == 0 {
				fmt.Fprintln(w, "No route has overrides.")
				return
			}
			printRouteTable(w, routes)
		})
	},
}

func printRouteTable(w io.Writer, routes []*route.Route) {
	tw := output.Table(w)
	fmt.Fprintln(tw, "PATH\tMETHOD\tOVERRIDES\tSELECTED")
	for _, rt := range routes {
		for _, m := range rt.Methods {
			names := make([]string, 0, len(m.Overrides))
			for _, o := range m.Overrides {
				names = append(names, o.Name)
			}
			selected := "-"
			if o := m.SelectedOverride(); o != nil {
				selected = o.Name
			}
			overrides := strings.Join(names, ", ")
			if overrides == "" {
				overrides = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rt.Path, strings.ToUpper(m.Type), overrides, selected)
		}
	}
	_ = tw.Flush()
}

var contentOverride string

var contentCmd = &cobra.Command{
	Use:   "content <path> <method>",
	Short: "Preview the content of a route method or one of its overrides",
	Long: `Preview the content of a route method or one of its overrides.

Content computed per request is shown as a placeholder message.`,
	Example: `  routemock content /users get
  routemock content /users get --override "Inactive User"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := newClient().GetContent(cmd.Context(), args[0], args[1], contentOverride)
		if err != nil {
			return FormatConnectionError(err)
		}
		return writeIndented(cmd.OutOrStdout(), raw)
	},
}

// writeIndented writes raw JSON indented. Content is always JSON, so
// --json changes nothing here.
func writeIndented(w io.Writer, raw json.RawMessage) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return output.JSON(w, v)
}

func init() {
	routesCmd.Flags().StringVar(&routesPath, "path", "", "Only show the route with this exact path")
	contentCmd.Flags().StringVar(&contentOverride, "override", "", "Override name (empty or Default for the method's own content)")

	rootCmd.AddCommand(routesCmd)
	rootCmd.AddCommand(overridesCmd)
	rootCmd.AddCommand(contentCmd)
}
