package cli

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

func newDeleteCmd(g *globalFlags) *cobra.Command {
	var project, route, method string
	cmd := &cobra.Command{
		Use:     "delete",
		Aliases: []string{"rm"},
		Short:   "Delete one method of a mock endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			method = strings.ToUpper(method)
			if err := NewAdminClient(g.adminURL).Delete(cmd.Context(), project, route, method); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			res := map[string]any{"success": true, "project": project, "route": route, "method": method}
			return printResult(out, g, res, func() {
				fmt.Fprintf(out, "Deleted %s %s/%s\n", method, project, route)
			})
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "Project name")
	cmd.Flags().StringVarP(&route, "route", "r", "", "Route name")
	cmd.Flags().StringVarP(&method, "method", "m", http.MethodGet, "HTTP method of the definition to delete")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("route")
	return cmd
}
