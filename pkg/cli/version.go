package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// VersionOutput represents JSON output format
type VersionOutput struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

// versionInfo resolves build metadata, preferring ldflags over the
// module's embedded VCS settings.
func versionInfo() VersionOutput {
	out := VersionOutput{
		Version: Version,
		Commit:  Commit,
		Date:    BuildDate,
		Go:      runtime.Version(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}
	if out.Version == "dev" && info.Main.Version != "" {
		out.Version = info.Main.Version
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if out.Commit == "none" {
				out.Commit = setting.Value
			}
		case "vcs.time":
			if out.Date == "unknown" {
				out.Date = setting.Value
			}
		case "vcs.modified":
			if setting.Value == "true" {
				out.Commit += "-dirty"
			}
		}
	}
	return out
}

func newVersionCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show mockapi version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versionInfo()
			w := cmd.OutOrStdout()
			return printResult(w, g, info, func() {
				v := info.Version
				if len(v) > 0 && v[0] != 'v' && v != "dev" && v != "(devel)" {
					v = "v" + v
				}
				fmt.Fprintf(w, "mockapi %s (%s, %s)\n", v, info.Commit, info.Date)
				fmt.Fprintf(w, "%s %s/%s\n", info.Go, info.OS, info.Arch)
			})
		},
	}
}
