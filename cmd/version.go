package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spigell/jobmatch/internal/skills"
)

// Actual version and commit can be specified in build command.
var (
	version = "unknown"
	commit  = "none"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the embedded skill model",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("%s version: %s (commit %s)\n", app, version, commit)

		ext, err := skills.Default()
		if err != nil {
			fmt.Printf("skill model: unavailable (%v)\n", err)
			return
		}
		name, modelVersion := ext.ModelName()
		fmt.Printf("skill model: %s v%d\n", name, modelVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
