package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool declarations for everything this server exposes. Handlers are
// attached by Gateway.Register.

func listProjectsTool() mcp.Tool {
	return mcp.NewTool("list_projects",
		mcp.WithDescription("List all GCP projects the active credentials can access"),
	)
}

func createProjectTool() mcp.Tool {
	return mcp.NewTool("create_project",
		mcp.WithDescription("Create a new GCP project"),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Unique id of the project to create"),
		),
	)
}

func listServicesTool() mcp.Tool {
	return mcp.NewTool("list_services",
		mcp.WithDescription("List Cloud Run services in a project and region"),
		mcp.WithString("project",
			mcp.Description("GCP project id (falls back to the configured default)"),
		),
		mcp.WithString("region",
			mcp.Description("Region of the services (falls back to the configured default)"),
		),
	)
}

func getServiceTool() mcp.Tool {
	return mcp.NewTool("get_service",
		mcp.WithDescription("Get details of a specific Cloud Run service"),
		mcp.WithString("service",
			mcp.Required(),
			mcp.Description("Name of the Cloud Run service"),
		),
		mcp.WithString("project",
			mcp.Description("GCP project id (falls back to the configured default)"),
		),
		mcp.WithString("region",
			mcp.Description("Region of the service (falls back to the configured default)"),
		),
	)
}

func getServiceLogTool() mcp.Tool {
	return mcp.NewTool("get_service_log",
		mcp.WithDescription("Get all logs of a Cloud Run service, following pagination to the end"),
		mcp.WithString("service",
			mcp.Required(),
			mcp.Description("Name of the Cloud Run service"),
		),
		mcp.WithString("project",
			mcp.Description("GCP project id (falls back to the configured default)"),
		),
		mcp.WithString("region",
			mcp.Description("Region of the service (falls back to the configured default)"),
		),
	)
}

func deployLocalFolderTool() mcp.Tool {
	return mcp.NewTool("deploy_local_folder",
		mcp.WithDescription("Deploy a local folder to Cloud Run via a source build"),
		mcp.WithString("folder",
			mcp.Required(),
			mcp.Description("Absolute path of the folder to deploy"),
		),
		mcp.WithString("service",
			mcp.Description("Name of the service to deploy to (falls back to the configured default)"),
		),
		mcp.WithString("project",
			mcp.Description("GCP project id (falls back to the configured default)"),
		),
		mcp.WithString("region",
			mcp.Description("Deploy region (falls back to the configured default)"),
		),
	)
}

func deployFileContentsTool() mcp.Tool {
	return mcp.NewTool("deploy_file_contents",
		mcp.WithDescription("Deploy in-memory file contents to Cloud Run via a source build"),
		mcp.WithArray("files",
			mcp.Required(),
			mcp.Description("Files to deploy: objects with 'filename' and 'content' string fields"),
			mcp.Items(map[string]any{"type": "object"}),
		),
		mcp.WithString("service",
			mcp.Description("Name of the service to deploy to (falls back to the configured default)"),
		),
		mcp.WithString("project",
			mcp.Description("GCP project id (falls back to the configured default)"),
		),
		mcp.WithString("region",
			mcp.Description("Deploy region (falls back to the configured default)"),
		),
	)
}

func startProxyTool() mcp.Tool {
	return mcp.NewTool("start_proxy",
		mcp.WithDescription("Start a local proxy that tunnels traffic to a Cloud Run service"),
		mcp.WithString("service",
			mcp.Description("Name of the service to proxy to (falls back to the configured default)"),
		),
		mcp.WithString("project",
			mcp.Description("GCP project id (falls back to the configured default)"),
		),
		mcp.WithString("region",
			mcp.Description("Region of the service (falls back to the configured default)"),
		),
		mcp.WithNumber("port",
			mcp.Description("Local port to listen on (default 8080)"),
		),
	)
}

func stopProxyTool() mcp.Tool {
	return mcp.NewTool("stop_proxy",
		mcp.WithDescription("Stop the currently running Cloud Run proxy, if any"),
	)
}
