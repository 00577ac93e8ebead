package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/dsplugin/internal/cmd/output"
)

// Execute runs the dsplugin CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "dsplugin",
		Short:   "Data-source plugin host",
		Version: a.version,
		Long: `dsplugin runs an example data-source plugin and hosts it over HTTP.

The plugin answers data queries with frames, serves live streams that end
cleanly when the subscriber goes away, and exposes resources with streamed
bodies. Every capability can also be exercised in-process from the CLI.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "plugin",
		Title: "Plugin Commands:",
	})

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.dsplugin.yaml)")
	flags.BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	flags.BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	flags.Bool("no-color", false, "disable colored output")
	flags.StringP("format", "o", "", "output format: table, json, yaml, wide")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	flags.String("plugin", "", "plugin to host: full or single")

	rootCmd.SetVersionTemplate("dsplugin {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	// These flags are defined as persistent flags in createRootCommand, so errors indicate programming errors
	configFile := mustGetString(cmd, "config")
	verbose := mustGetBool(cmd, "verbose")
	quiet := mustGetBool(cmd, "quiet")
	noColor := mustGetBool(cmd, "no-color")
	format := mustGetString(cmd, "format")
	logLevel := mustGetString(cmd, "log-level")
	pluginKind := mustGetString(cmd, "plugin")

	if configFile != "" {
		config, err := LoadConfigFile(configFile)
		if err != nil {
			return err
		}
		a.config = config
	}

	if _, err := output.ParseFormat(format); err != nil {
		return err
	}

	a.config.UpdateFromFlags(verbose, quiet, noColor, format, logLevel, pluginKind)
	if err := a.config.Validate(); err != nil {
		return err
	}

	// Reinitialize logger with updated config
	logger := NewLogger(a.config)
	a.logger = &logger

	// A plugin created from the previous settings is stale.
	if configFile != "" || pluginKind != "" {
		a.mu.Lock()
		a.registry = nil
		a.mu.Unlock()
	}

	return nil
}

// ExitOnError is a helper that prints an error and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
