package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/renameio"
	"github.com/spf13/cobra"
)

func newOpenAPICmd(g *globalFlags) *cobra.Command {
	var project, outFile string
	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Export a project's endpoints as an OpenAPI 3 document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := NewAdminClient(g.adminURL).OpenAPI(cmd.Context(), project)
			if err != nil {
				return err
			}
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, doc, "", "  "); err != nil {
				return fmt.Errorf("format document: %w", err)
			}
			pretty.WriteByte('\n')

			if outFile == "" {
				_, err := cmd.OutOrStdout().Write(pretty.Bytes())
				return err
			}
			if err := renameio.WriteFile(outFile, pretty.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outFile, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", outFile)
			return nil
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "Project name")
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Write the document to a file instead of stdout")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
