package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/routemock/pkg/cli/internal/output"
	"github.com/getmockd/routemock/pkg/config"
	"github.com/getmockd/routemock/pkg/route"
)

// ValidateOutput is the JSON output of the validate command.
type ValidateOutput struct {
	Valid  bool     `json:"valid"`
	Files  []string `json:"files"`
	Routes int      `json:"routes"`
	Error  string   `json:"error,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate [route-file...]",
	Short: "Check the configuration and route files without starting a server",
	Long: `Check the configuration and route files without starting a server.

With no arguments the route files named by the configuration are checked as
one table. Otherwise the given files are checked as one table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := ValidateOutput{Files: args}

		var routes []*route.Route
		var err error
		if len(args) == 0 {
			var cfg *config.Config
			cfg, err = loadConfig()
			if err == nil {
				routes, out.Files, err = config.LoadRoutes(cfg)
			}
		} else {
			routes, err = loadRouteFiles(args)
		}

		out.Valid = err == nil
		out.Routes = len(routes)
		if err != nil {
			out.Error = err.Error()
		}
		if out.Files == nil {
			out.Files = []string{}
		}

		w := cmd.OutOrStdout()
		if perr := printResult(w, out, func() {
			if !out.Valid {
				return
			}
			tw := output.Table(w)
			fmt.Fprintln(tw, "PATH\tMETHODS\tOVERRIDES")
			for _, rt := range routes {
				methods := make([]string, 0, len(rt.Methods))
				overrides := 0
				for _, m := range rt.Methods {
					methods = append(methods, strings.ToUpper(m.Type))
					overrides += len(m.Overrides)
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\n", rt.Path, strings.Join(methods, ","), overrides)
			}
			_ = tw.Flush()
			fmt.Fprintf(w, "\n%d routes in %d files are valid\n", len(routes), len(out.Files))
		}); perr != nil {
			return perr
		}
		return err
	},
}

// loadRouteFiles loads files and validates them as one route table.
func loadRouteFiles(files []string) ([]*route.Route, error) {
	var all []*route.Route
	for _, f := range files {
		rs, err := config.LoadRouteFile(f)
		if err != nil {
			return nil, err
		}
		all = append(all, rs...)
	}
	if err := route.Validate(all); err != nil {
		return nil, err
	}
	return all, nil
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
