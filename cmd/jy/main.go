package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const defaultConfigPath = "jobyard.yaml"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jy",
		Short: "Jobyard — hiring pipelines and candidate matching",
		Long:  "Jobyard tracks applications through per-job hiring stages and keeps recruiters' saved searches matched against public candidate profiles.",
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newJobCmd())
	cmd.AddCommand(newStageCmd())
	cmd.AddCommand(newApplyCmd())
	cmd.AddCommand(newPipelineCmd())
	cmd.AddCommand(newProfileCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newMatchCmd())
	cmd.AddCommand(newServeCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "jy %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
