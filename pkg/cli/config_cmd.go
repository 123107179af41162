package cli

import (
	"github.com/spf13/cobra"

	"github.com/getmockd/mockapi/pkg/cli/internal/output"
	"github.com/getmockd/mockapi/pkg/config"
)

func newConfigCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Display resolved configuration",
		Long: `Display the configuration serve would run with: defaults, then mockapi.yaml,
then MOCKAPI_* environment variables. Nested keys map to environment
variables with underscores, e.g. MOCKAPI_CACHE_TTL=5s.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(g.configFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if g.jsonOutput {
				return output.JSON(out, cfg)
			}
			data, err := config.ToYAML(cfg)
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		},
	}
}
