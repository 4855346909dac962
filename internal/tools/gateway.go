// Package tools is the dispatch boundary between the MCP transport and the
// cloud collaborators. Every handler is wrapped with a credential gate and a
// uniform failure-to-text rendering: no error ever crosses this boundary as
// anything other than a single text result.
package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wlhee/cloud-run-mcp/internal/config"
	"github.com/wlhee/cloud-run-mcp/internal/logs"
	"github.com/wlhee/cloud-run-mcp/internal/proxy"
	"github.com/wlhee/cloud-run-mcp/pkg/logging"
)

// credentialAdvisory is the fixed response returned by gated tools when no
// usable Google Cloud credentials were found at startup. The underlying
// collaborator is never invoked in that case.
const credentialAdvisory = "Google Cloud credentials are not available. " +
	"Run 'gcloud auth login' and 'gcloud auth application-default login', then restart this server."

// ProxyManager is the slice of internal/proxy the gateway needs.
type ProxyManager interface {
	Start(ctx context.Context, spec proxy.Spec) (string, error)
	Stop(ctx context.Context) (string, error)
}

// RunClient is the pass-through collaborator for project and service
// operations.
type RunClient interface {
	ListProjects(ctx context.Context) (string, error)
	CreateProject(ctx context.Context, projectID string) (string, error)
	ListServices(ctx context.Context, project, region string) (string, error)
	GetService(ctx context.Context, project, region, service string) (string, error)
	DeployFolder(ctx context.Context, project, region, service, folder string) (string, error)
	DeployFiles(ctx context.Context, project, region, service string, files map[string]string) (string, error)
}

// Gateway routes named tool calls to their collaborators.
type Gateway struct {
	proxy    ProxyManager
	pager    logs.Pager
	client   RunClient
	defaults config.Config

	// credentialed is computed once at process start. When false, every
	// gated handler is short-circuited into the advisory response.
	credentialed bool
}

// NewGateway assembles the gateway from its collaborators.
func NewGateway(pm ProxyManager, pager logs.Pager, client RunClient, defaults config.Config, credentialed bool) *Gateway {
	return &Gateway{
		proxy:        pm,
		pager:        pager,
		client:       client,
		defaults:     defaults,
		credentialed: credentialed,
	}
}

// handlerFunc is the internal handler shape: plain text or a failure. The
// wrap step turns both variants into the uniform text envelope.
type handlerFunc func(ctx context.Context, request mcp.CallToolRequest) (string, error)

// Register attaches all tools and their wrapped handlers to the MCP server.
func (g *Gateway) Register(s *server.MCPServer) {
	s.AddTool(listProjectsTool(), g.wrap("list_projects", true, g.handleListProjects))
	s.AddTool(createProjectTool(), g.wrap("create_project", true, g.handleCreateProject))
	s.AddTool(listServicesTool(), g.wrap("list_services", true, g.handleListServices))
	s.AddTool(getServiceTool(), g.wrap("get_service", true, g.handleGetService))
	s.AddTool(getServiceLogTool(), g.wrap("get_service_log", true, g.handleGetServiceLog))
	s.AddTool(deployLocalFolderTool(), g.wrap("deploy_local_folder", true, g.handleDeployLocalFolder))
	s.AddTool(deployFileContentsTool(), g.wrap("deploy_file_contents", true, g.handleDeployFileContents))
	s.AddTool(startProxyTool(), g.wrap("start_proxy", true, g.handleStartProxy))
	// Stopping only touches the local child process, so it stays usable even
	// without cloud credentials.
	s.AddTool(stopProxyTool(), g.wrap("stop_proxy", false, g.handleStopProxy))
}

// wrap applies the credential gate and the failure-to-text rendering. The
// returned handler never returns a non-nil error: rendering is a total
// function over the success/failure variants.
func (g *Gateway) wrap(name string, gated bool, h handlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if gated && !g.credentialed {
			return mcp.NewToolResultText(credentialAdvisory), nil
		}
		text, err := h(ctx, request)
		if err != nil {
			logging.Error("Tools", err, "tool %s failed", name)
			return mcp.NewToolResultText(fmt.Sprintf("The %s operation failed: %v", name, err)), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}
