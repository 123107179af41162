package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockapi/pkg/admin"
)

type publishFlags struct {
	project string
	route   string
	method  string
	content string
	file    string
}

func newPublishCmd(g *globalFlags) *cobra.Command {
	f := &publishFlags{}
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a JSON document as a mock endpoint",
		Example: `  # Inline content
  mockapi publish --project shop --route items --content '[{"id":1,"name":"a"}]'

  # From a file, for POST requests
  mockapi publish --project shop --route orders --method POST --file orders.json

  # From stdin
  cat items.json | mockapi publish --project shop --route items --file -`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			content, err := readContent(f, cmd.InOrStdin())
			if err != nil {
				return err
			}
			res, err := NewAdminClient(g.adminURL).Publish(cmd.Context(), &admin.PublishRequest{
				ProjectName: f.project,
				Route:       f.route,
				Method:      f.method,
				Content:     content,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return printResult(out, g, res, func() {
				fmt.Fprintf(out, "Published %s %s\n", res.Method, res.URL)
			})
		},
	}

	cmd.Flags().StringVarP(&f.project, "project", "p", "", "Project name")
	cmd.Flags().StringVarP(&f.route, "route", "r", "", "Route name")
	cmd.Flags().StringVarP(&f.method, "method", "m", http.MethodGet, "HTTP method the endpoint answers")
	cmd.Flags().StringVar(&f.content, "content", "", "JSON content")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Read JSON content from a file (- for stdin)")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("route")
	cmd.MarkFlagsMutuallyExclusive("content", "file")
	return cmd
}

// readContent returns the content to publish. Text that is not valid JSON
// is sent as a JSON string so the server reports the parse error.
func readContent(f *publishFlags, stdin io.Reader) (json.RawMessage, error) {
	var data []byte
	switch {
	case f.file == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		data = b
	case f.file != "":
		b, err := os.ReadFile(f.file)
		if err != nil {
			return nil, fmt.Errorf("read content file: %w", err)
		}
		data = b
	default:
		data = []byte(f.content)
	}

	if len(data) == 0 {
		return nil, errors.New("no content: use --content or --file")
	}
	if json.Valid(data) {
		return data, nil
	}
	return json.Marshal(string(data))
}
