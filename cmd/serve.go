package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/thegrumpylion/gmail-manager/internal/gmail"
	"github.com/thegrumpylion/gmail-manager/internal/logging"
	"github.com/thegrumpylion/gmail-manager/internal/server"
)

// toolFilterFlags holds the CLI flags for tool filtering.
type toolFilterFlags struct {
	readOnly bool
	enable   []string
	disable  []string
}

// addToolFilterFlags adds --read-only, --enable, and --disable flags to a command.
func addToolFilterFlags(cmd *cobra.Command, f *toolFilterFlags) {
	cmd.Flags().BoolVar(&f.readOnly, "read-only", false, "only expose read-only tools (no drafts)")
	cmd.Flags().StringSliceVar(&f.enable, "enable", nil, "whitelist of tool names to expose (comma-separated)")
	cmd.Flags().StringSliceVar(&f.disable, "disable", nil, "blacklist of tool names to hide (comma-separated)")
	cmd.MarkFlagsMutuallyExclusive("enable", "disable")
}

// toToolFilter converts the CLI flags to a server.ToolFilter.
func (f *toolFilterFlags) toToolFilter() server.ToolFilter {
	return server.ToolFilter{
		ReadOnly: f.readOnly,
		Enable:   f.enable,
		Disable:  f.disable,
	}
}

func newServeCmd(o *rootOptions) *cobra.Command {
	var flags toolFilterFlags
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Gmail MCP server (stdio)",
		Long: `Starts an MCP server over stdio with the tools:
  hello_world, get_unread_emails, create_draft_reply.

Run "gmail-manager login" first; without a stored token the server still
starts but Gmail tool calls answer with an error telling you to log in.

Use --read-only to expose only read-only tools.
Use --enable or --disable for granular tool control.
Use --metrics-addr to expose Prometheus metrics over HTTP.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fromEnv(cmd, "metrics-addr", envMetricsAddr, &metricsAddr)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := o.logger
			loader := o.newLoader()
			if !loader.Authorized(ctx) {
				logger.Warn("no stored token, Gmail tools will fail until login is run",
					slog.String("token", o.tokenFile))
			}

			srv := server.NewServer(&mcp.Implementation{
				Name:    appName,
				Version: version,
			}, nil)
			srv.SetLogger(logger)

			server.RegisterHelloWorldTool(srv)
			gmail.RegisterTools(srv, o.newDialer(loader))

			if err := srv.ApplyFilter(flags.toToolFilter()); err != nil {
				return err
			}

			if metricsAddr != "" {
				shutdown, err := startMetrics(srv, metricsAddr, logger)
				if err != nil {
					return err
				}
				defer shutdown()
			}

			logger.Info("Gmail MCP server running on stdio")
			err := srv.Run(ctx, &mcp.StdioTransport{})
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
				return err
			}
			logger.Info("Gmail MCP server stopped")
			return nil
		},
	}
	addToolFilterFlags(cmd, &flags)
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "listen address for the Prometheus /metrics endpoint (empty disables)")
	return cmd
}

// startMetrics enables tool metrics on srv and serves them on addr. The
// returned func stops the HTTP server.
func startMetrics(srv *server.Server, addr string, logger *slog.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("starting metrics listener: %w", err)
	}

	m := server.NewMetrics()
	srv.SetMetrics(m)
	ms := server.NewMetricsServer(m, logger)
	go func() {
		if err := ms.Serve(ln); err != nil {
			logger.Error("metrics server failed", logging.Err(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ms.Shutdown(ctx); err != nil {
			logger.Warn("metrics server shutdown", logging.Err(err))
		}
	}, nil
}
