// Package resource provides the resource command, which calls a plugin
// resource in-process and prints the response body and streamed chunks.
package resource

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/dsplugin/cmd/application"
	"github.com/agentstation/dsplugin/internal/cmd/cmdutil"
	"github.com/agentstation/dsplugin/internal/cmd/output"
	"github.com/agentstation/dsplugin/internal/plugin"
	"github.com/agentstation/dsplugin/pkg/backend"
	"github.com/agentstation/dsplugin/pkg/errors"
	"github.com/agentstation/dsplugin/pkg/stream"
)

// Result is the structured output of a resource call.
type Result struct {
	Path    string              `json:"path" yaml:"path"`
	Status  int                 `json:"status" yaml:"status"`
	Headers map[string][]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    string              `json:"body" yaml:"body"`
	Chunks  []string            `json:"chunks,omitempty" yaml:"chunks,omitempty"`
}

// NewCommand creates the resource command.
func NewCommand(app application.Application) *cobra.Command {
	var (
		method        string
		body          string
		chunks        int
		chunkInterval time.Duration
		pluginFlags   *cmdutil.PluginFlags
	)

	cmd := &cobra.Command{
		Use:   "resource <path>",
		Short: "Call a plugin resource",
		Long: `Call a plugin resource and print its body.

Resources may stream further body chunks after the initial response; use
--chunks to read that many of them before disconnecting. Table output is the
raw body and chunks; -o wide also lists the status and headers.`,
		Example: `  # Echo a request body
  dsplugin resource echo --data hello

  # Read the counter and three further values
  dsplugin resource count --chunks 3 --chunk-interval 100ms

  # Show status and headers too
  dsplugin -o wide resource echo --data hello -X POST`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if chunks < 0 {
				return errors.NewValidationError("chunks", chunks, "must not be negative")
			}
			var opts []plugin.Option
			if cmd.Flags().Changed("chunk-interval") {
				opts = append(opts, plugin.WithChunkInterval(chunkInterval))
			}
			req := &backend.CallResourceRequest{
				PluginContext: pluginFlags.PluginContext(),
				Path:          strings.Trim(args[0], "/"),
				Method:        strings.ToUpper(method),
				URL:           "/" + strings.Trim(args[0], "/"),
				Body:          []byte(body),
			}
			return run(cmd, app, req, chunks, opts)
		},
	}

	cmd.Flags().StringVarP(&method, "method", "X", http.MethodGet, "HTTP method")
	cmd.Flags().StringVar(&body, "data", "", "Request body")
	cmd.Flags().IntVar(&chunks, "chunks", 0, "Number of streamed chunks to read after the initial body")
	cmd.Flags().DurationVar(&chunkInterval, "chunk-interval", 0, "Override the pacing of streamed chunks")
	pluginFlags = cmdutil.AddPluginFlags(cmd.Flags())

	return cmd
}

func run(cmd *cobra.Command, app application.Application, req *backend.CallResourceRequest, limit int, opts []plugin.Option) error {
	ctx := cmd.Context()
	registry, err := app.Plugin(opts...)
	if err != nil {
		return err
	}

	resp, body, err := registry.CallResource(ctx, req)
	if err != nil {
		return err
	}
	if body == nil {
		body = stream.Empty[[]byte]()
	}

	logger := app.Logger()
	handle := stream.WithDisconnect(body, func() {
		logger.Debug().Str("path", req.Path).Msg("Resource stream closed")
	})
	defer func() { _ = handle.Close() }()

	result := Result{
		Path:    req.URL,
		Status:  resp.StatusCode(),
		Headers: resp.Headers,
		Body:    string(resp.Body),
	}

	// Table output is the raw body; wide output is a property table.
	format := output.DetectFormat(app.OutputFormat())
	raw := format == output.FormatTable

	w := cmd.OutOrStdout()
	if raw {
		if _, err := w.Write(resp.Body); err != nil {
			return err
		}
	}

	if limit > 0 {
		items, err := stream.Collect(ctx, stream.Stream[[]byte](handle), limit)
		for _, item := range items {
			result.Chunks = append(result.Chunks, string(item))
			if raw {
				if _, err := fmt.Fprintf(w, "\n%s", item); err != nil {
					return err
				}
			}
		}
		if err != nil {
			return fmt.Errorf("reading resource %s: %w", req.URL, err)
		}
	}

	if raw {
		_, err := io.WriteString(w, "\n")
		return err
	}
	return output.NewFormatter(format).Format(w, result)
}
