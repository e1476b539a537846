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

func newRootCmd() *cobra.Command {
	app := &app{}

	cmd := &cobra.Command{
		Use:           "educode",
		Short:         "Educode: coding workspace with a chat copilot",
		Long:          "Educode serves the coding workspace, its mock backend and the copilot, and drives them from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&app.configPath, "config", "c", "educode.yaml", "path to Educode config file")
	cmd.PersistentFlags().StringVar(&app.flagFile, "flag-file", "", "path to the logged-in flag file (default: user config dir)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newDBCmd(app))
	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newChatCmd(app))
	cmd.AddCommand(newContainerCmd(app))
	cmd.AddCommand(newCourseCmd(app))
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "educode %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
