package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// DefaultAdminURL is the server the client commands talk to when neither
// --admin-url nor MOCKAPI_ADMIN_URL is set.
const DefaultAdminURL = "http://localhost:8080"

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// globalFlags holds the persistent flags shared by every subcommand.
type globalFlags struct {
	adminURL   string
	jsonOutput bool
	configFile string
}

func defaultAdminURL() string {
	if u := os.Getenv("MOCKAPI_ADMIN_URL"); u != "" {
		return u
	}
	return DefaultAdminURL
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	cmd := &cobra.Command{
		Use:   "mockapi",
		Short: "mockapi serves queryable JSON mock endpoints",
		Long: `mockapi publishes JSON documents as mock endpoints and serves them with
filtering, searching, sorting, pagination, field projection and JSON, XML or
CSV output.

Configuration is read from mockapi.yaml, MOCKAPI_* environment variables and
flags, in increasing order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&g.adminURL, "admin-url", defaultAdminURL(), "Base URL of a running mockapi server")
	cmd.PersistentFlags().BoolVar(&g.jsonOutput, "json", false, "Output command results in JSON format")
	cmd.PersistentFlags().StringVarP(&g.configFile, "config", "c", "", "Path to mockapi.yaml")

	cmd.AddCommand(
		newServeCmd(g),
		newPublishCmd(g),
		newListCmd(g),
		newDeleteCmd(g),
		newStatusCmd(g),
		newOpenAPICmd(g),
		newConfigCmd(g),
		newVersionCmd(g),
	)
	return cmd
}

// Execute runs the CLI. It is called by main.main().
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, FormatError(err))
		os.Exit(1)
	}
}
