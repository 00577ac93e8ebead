// Package query provides the query command, which runs data queries against
// the plugin in-process.
package query

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/dsplugin/cmd/application"
	"github.com/agentstation/dsplugin/internal/cmd/cmdutil"
	"github.com/agentstation/dsplugin/internal/cmd/output"
	"github.com/agentstation/dsplugin/internal/plugin"
	"github.com/agentstation/dsplugin/pkg/backend"
	"github.com/agentstation/dsplugin/pkg/errors"
)

// NewCommand creates the query command.
func NewCommand(app application.Application) *cobra.Command {
	var (
		refIDs        []string
		path          string
		constant      float64
		withStreaming bool
		rawJSON       string
		from          time.Duration
		pluginFlags   *cmdutil.PluginFlags
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run data queries against the plugin",
		Long: `Run one or more data queries in-process and print the resulting frames.

Every ref ID becomes one query with the same query model. Use --json to pass
a raw query model instead of building one from flags.`,
		Example: `  # Query with the default ref ID
  dsplugin query

  # Two queries bound to the live stream of a data source
  dsplugin query --ref A --ref B --path stream -d my-uid

  # Raw query model as JSON
  dsplugin query --json '{"constant": 6.5}' -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			model := json.RawMessage(rawJSON)
			if rawJSON == "" {
				q := plugin.Query{Constant: constant, WithStreaming: withStreaming}
				if path != "" {
					q.Path = &path
				}
				b, err := json.Marshal(q)
				if err != nil {
					return err
				}
				model = b
			} else if !json.Valid(model) {
				return errors.NewValidationError("json", rawJSON, "query model is not valid JSON")
			}
			if len(refIDs) == 0 {
				return errors.NewValidationError("ref", refIDs, "at least one ref ID is required")
			}

			now := time.Now().UTC()
			req := &backend.QueryDataRequest{PluginContext: pluginFlags.PluginContext()}
			for _, refID := range refIDs {
				req.Queries = append(req.Queries, backend.DataQuery{
					RefID:         refID,
					MaxDataPoints: 100,
					Interval:      time.Second,
					TimeRange:     backend.TimeRange{From: now.Add(-from), To: now},
					JSON:          model,
				})
			}
			return run(cmd, app, req)
		},
	}

	cmd.Flags().StringSliceVar(&refIDs, "ref", []string{"A"}, "Query ref IDs (repeatable)")
	cmd.Flags().StringVar(&path, "path", "", "Stream path the result frame should be bound to")
	cmd.Flags().Float64Var(&constant, "constant", 0, "Constant of the query model")
	cmd.Flags().BoolVar(&withStreaming, "with-streaming", false, "Set withStreaming on the query model")
	cmd.Flags().StringVar(&rawJSON, "json", "", "Raw query model (overrides --path, --constant and --with-streaming)")
	cmd.Flags().DurationVar(&from, "from", time.Hour, "Length of the query time range ending now")
	pluginFlags = cmdutil.AddPluginFlags(cmd.Flags())

	return cmd
}

func run(cmd *cobra.Command, app application.Application, req *backend.QueryDataRequest) error {
	logger := app.Logger()
	registry, err := app.Plugin()
	if err != nil {
		return err
	}

	logger.Debug().
		Int("queries", len(req.Queries)).
		Str("datasource", req.PluginContext.DatasourceUID()).
		Msg("Running queries")

	resp, err := registry.QueryData(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("querying plugin: %w", err)
	}

	format := output.DetectFormat(app.OutputFormat())
	tables := output.QueryResultsToTableData(resp, format == output.FormatWide)
	return output.Write(cmd.OutOrStdout(), format, resp, tables)
}
