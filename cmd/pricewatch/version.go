package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Stamped at release time via -ldflags. Builds made with plain
// "go install" leave these empty and fall back to the metadata the
// toolchain embeds in the binary.
var (
	version string
	commit  string
	date    string
)

// buildMetadata describes the running binary for the version command.
type buildMetadata struct {
	version string
	commit  string
	date    string
}

// resolveBuildMetadata merges the ldflags values with the module and
// VCS information from debug.ReadBuildInfo. Explicit ldflags win.
func resolveBuildMetadata() buildMetadata {
	meta := buildMetadata{version: version, commit: commit, date: date}

	if info, ok := debug.ReadBuildInfo(); ok {
		if meta.version == "" {
			meta.version = info.Main.Version
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if meta.commit == "" {
					meta.commit = shortRevision(s.Value)
				}
			case "vcs.time":
				if meta.date == "" {
					meta.date = s.Value
				}
			}
		}
	}

	if meta.version == "" {
		meta.version = "(devel)"
	}
	if meta.commit == "" {
		meta.commit = "unknown"
	}
	if meta.date == "" {
		meta.date = "unknown"
	}
	return meta
}

// shortRevision abbreviates a full VCS hash to the familiar 7 digits.
func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of pricewatch.`,
		Run: func(cmd *cobra.Command, _ []string) {
			meta := resolveBuildMetadata()
			fmt.Fprintf(cmd.OutOrStdout(), "pricewatch version %s\n", meta.version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", meta.commit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", meta.date)
		},
	}
}
