package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockapi/pkg/admin"
)

type statusFlags struct {
	project string
	route   string
	method  string
	code    int
	message string
}

func newStatusCmd(g *globalFlags) *cobra.Command {
	f := &statusFlags{}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Override the status code a route responds with",
		Long: `Override the status code a route responds with. Codes of 400 and above
combined with --message make the route answer {"error": <message>} instead of
its content. A message that is valid JSON is embedded as JSON.`,
		Example: `  # Simulate an outage
  mockapi status -p shop -r items --code 503 --message '{"reason":"maintenance"}'

  # Back to normal
  mockapi status -p shop -r items --code 200`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := NewAdminClient(g.adminURL).SetStatus(cmd.Context(), &admin.StatusRequest{
				ProjectName:  f.project,
				Route:        f.route,
				StatusCode:   f.code,
				ErrorMessage: f.message,
				Method:       strings.ToUpper(f.method),
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return printResult(out, g, res, func() {
				fmt.Fprintf(out, "%s (%s)\n", res.Message, strings.Join(res.Methods, ", "))
			})
		},
	}
	cmd.Flags().StringVarP(&f.project, "project", "p", "", "Project name")
	cmd.Flags().StringVarP(&f.route, "route", "r", "", "Route name")
	cmd.Flags().StringVarP(&f.method, "method", "m", "", "Only update this method's definition")
	cmd.Flags().IntVar(&f.code, "code", 0, "Status code (100-599)")
	cmd.Flags().StringVar(&f.message, "message", "", "Error body for codes of 400 and above")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("route")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}
