package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockapi/pkg/cli/internal/output"
)

func newListCmd(g *globalFlags) *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the endpoints of a project",
		RunE: func(cmd *cobra.Command, _ []string) error {
			endpoints, err := NewAdminClient(g.adminURL).List(cmd.Context(), project)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return printResult(out, g, endpoints, func() {
				if len(endpoints) == 0 {
					fmt.Fprintf(out, "No endpoints in project %s\n", project)
					return
				}
				tw := output.Table(out)
				fmt.Fprintln(tw, "ROUTE\tMETHOD\tSTATUS\tURL")
				for _, e := range endpoints {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", e.Route, e.Method, e.StatusCode, e.URL)
				}
				_ = tw.Flush()
			})
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "Project name")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
