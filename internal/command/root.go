// Package command wires the CLI together.
package command

import (
	"os"

	"github.com/spf13/cobra"
)

const AppName = "clack"

// Version is overwritten at build time using -ldflags.
var Version = "dev"

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "Clack - team messaging client",
		Long:          "Clack is a terminal client for team messaging: channels, DMs, threads, and search.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().String("data", "", "path to the local data directory")
	cmd.PersistentFlags().String("as", "", "viewer user id (overrides CLACK_VIEWER_ID)")

	cmd.AddCommand(
		NewChatCmd(),
		NewSearchCmd(),
		NewSendCmd(),
		NewReactCmd(),
		NewSeedCmd(),
	)

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd(Version).Execute()
}
