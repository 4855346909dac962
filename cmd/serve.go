package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wlhee/cloud-run-mcp/internal/config"
	"github.com/wlhee/cloud-run-mcp/internal/gcloud"
	"github.com/wlhee/cloud-run-mcp/internal/logs"
	"github.com/wlhee/cloud-run-mcp/internal/proxy"
	"github.com/wlhee/cloud-run-mcp/internal/run"
	"github.com/wlhee/cloud-run-mcp/internal/server"
	"github.com/wlhee/cloud-run-mcp/internal/tools"
	"github.com/wlhee/cloud-run-mcp/pkg/logging"
)

var (
	serveProject string
	serveRegion  string
	serveSSE     bool
	serveHost    string
	servePort    int
	serveDebug   bool
)

// serveCmd starts the MCP server. By default it talks MCP over stdio, which
// is how editor and assistant integrations launch it; --sse exposes an HTTP
// endpoint instead.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Cloud Run MCP server",
	Long: `Starts the MCP server exposing Cloud Run tools.

By default the server speaks MCP over stdio, which is how AI assistants
launch it (add the binary to your assistant's MCP server configuration).
With --sse it listens on an HTTP endpoint instead.

The default project and region are resolved from flags, the
GOOGLE_CLOUD_PROJECT / GOOGLE_CLOUD_REGION environment variables, and the
optional config file, in that order. Google Cloud credentials are probed once
at startup; without them, tools that need cloud access return an advisory
instead of failing mid-call.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	level := logging.LevelInfo
	if serveDebug {
		level = logging.LevelDebug
	}
	// Logs must go to stderr: stdout belongs to the stdio MCP transport.
	logging.Init(level, os.Stderr)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	defaults := config.Resolve(serveProject, serveRegion)
	if defaults.Project == "" {
		logging.Warn("Server", "no default project configured; tool calls must pass one explicitly")
	}

	runner := gcloud.NewCLIRunner()
	credentialed := gcloud.CredentialsAvailable(ctx, runner)
	if !credentialed {
		logging.Warn("Server", "no Google Cloud credentials found; cloud tools will return setup instructions")
	}

	gateway := tools.NewGateway(
		proxy.NewManager(runner),
		logs.NewGcloudPager(runner),
		run.NewClient(runner),
		defaults,
		credentialed,
	)

	srv := server.New(gateway, server.Options{
		Name:    "cloud-run-mcp",
		Version: rootCmd.Version,
		SSE:     serveSSE,
		Host:    serveHost,
		Port:    servePort,
	})
	return srv.Serve(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveProject, "project", "", "Default GCP project id")
	serveCmd.Flags().StringVar(&serveRegion, "region", "", "Default region (default "+config.DefaultRegion+")")
	serveCmd.Flags().BoolVar(&serveSSE, "sse", false, "Serve MCP over HTTP/SSE instead of stdio")
	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "Host to bind the SSE endpoint to")
	serveCmd.Flags().IntVar(&servePort, "port", 3000, "Port for the SSE endpoint")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
}
