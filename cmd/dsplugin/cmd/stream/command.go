// Package stream provides the stream command, which subscribes to a plugin
// stream in-process and prints the packets it produces.
package stream

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/dsplugin/cmd/application"
	"github.com/agentstation/dsplugin/internal/cmd/cmdutil"
	"github.com/agentstation/dsplugin/internal/cmd/output"
	"github.com/agentstation/dsplugin/internal/plugin"
	"github.com/agentstation/dsplugin/pkg/backend"
	"github.com/agentstation/dsplugin/pkg/constants"
	"github.com/agentstation/dsplugin/pkg/errors"
	pkgstream "github.com/agentstation/dsplugin/pkg/stream"
)

// NewCommand creates the stream command.
func NewCommand(app application.Application) *cobra.Command {
	var (
		path        string
		count       int
		interval    time.Duration
		pluginFlags *cmdutil.PluginFlags
	)

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Read packets from a plugin stream",
		Long: `Subscribe to a stream path, read a number of packets and disconnect.

Disconnecting closes the stream handle, which runs the plugin's teardown;
with --verbose the disconnect message is visible in the log.`,
		Example: `  # Read three packets
  dsplugin stream

  # Read ten packets quickly for a data source
  dsplugin stream --count 10 --interval 100ms -d my-uid -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 1 {
				return errors.NewValidationError("count", count, "must be at least 1")
			}
			var opts []plugin.Option
			if interval > 0 {
				opts = append(opts, plugin.WithStreamInterval(interval))
			}
			return run(cmd, app, pluginFlags.PluginContext(), path, count, opts)
		},
	}

	cmd.Flags().StringVar(&path, "path", constants.StreamPath, "Stream path")
	cmd.Flags().IntVarP(&count, "count", "n", 3, "Number of packets to read")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Override the pacing of stream packets")
	pluginFlags = cmdutil.AddPluginFlags(cmd.Flags())

	return cmd
}

func run(cmd *cobra.Command, app application.Application, pc backend.PluginContext, path string, count int, opts []plugin.Option) error {
	ctx := cmd.Context()
	logger := app.Logger()

	registry, err := app.Plugin(opts...)
	if err != nil {
		return err
	}

	sub, err := registry.SubscribeStream(ctx, &backend.SubscribeStreamRequest{PluginContext: pc, Path: path})
	if err != nil {
		return err
	}
	switch sub.Status {
	case backend.SubscribeStreamStatusOK:
	case backend.SubscribeStreamStatusNotFound:
		return errors.NewNotFoundError("stream", path)
	default:
		return fmt.Errorf("subscribe to %s: %w", path, errors.ErrPermissionDenied)
	}

	handle, err := registry.RunStream(ctx, &backend.RunStreamRequest{PluginContext: pc, Path: path})
	if err != nil {
		return err
	}
	defer func() { _ = handle.Close() }()

	logger.Debug().Str("path", path).Int("count", count).Msg("Reading stream")

	packets, err := pkgstream.Collect(ctx, handle, count)
	if err != nil {
		return fmt.Errorf("reading stream %s after %d packets: %w", path, len(packets), err)
	}

	format := output.DetectFormat(app.OutputFormat())
	table, err := output.PacketsToTableData(packets)
	if err != nil {
		return err
	}
	return output.Write(cmd.OutOrStdout(), format, packets, table)
}
