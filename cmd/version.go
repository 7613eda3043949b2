package cmd

import (
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set via -ldflags "-X github.com/abhisek/kakomon/cmd.version=... -X ...commit=...".
var (
	version = ""
	commit  = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version and commit",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		info, _ := debug.ReadBuildInfo()
		cmd.Println(versionString(info))
	},
}

// versionString prefers ldflags values and falls back to what the Go
// toolchain stamped into the binary.
func versionString(info *debug.BuildInfo) string {
	v, rev := version, commit
	if info != nil {
		if v == "" && info.Main.Version != "" {
			v = info.Main.Version
		}
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && rev == "" {
				rev = s.Value
			}
		}
	}
	if v == "" {
		v = "(devel)"
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	out := "kakomon " + v
	if rev != "" {
		out += " (" + rev + ")"
	}
	return out
}
