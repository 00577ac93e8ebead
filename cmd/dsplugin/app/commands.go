package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/dsplugin/cmd/dsplugin/cmd/query"
	"github.com/agentstation/dsplugin/cmd/dsplugin/cmd/resource"
	"github.com/agentstation/dsplugin/cmd/dsplugin/cmd/serve"
	"github.com/agentstation/dsplugin/cmd/dsplugin/cmd/stream"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	serveCmd := serve.NewCommand(a)
	serveCmd.GroupID = "core"
	rootCmd.AddCommand(serveCmd)

	for _, cmd := range []*cobra.Command{
		query.NewCommand(a),
		stream.NewCommand(a),
		resource.NewCommand(a),
	} {
		cmd.GroupID = "plugin"
		rootCmd.AddCommand(cmd)
	}

	rootCmd.AddCommand(a.newVersionCommand())
}

// newVersionCommand creates the version command.
func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("dsplugin %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}
