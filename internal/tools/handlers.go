package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wlhee/cloud-run-mcp/internal/logs"
	"github.com/wlhee/cloud-run-mcp/internal/proxy"
)

// requireString fetches a required string argument, rejecting empty values.
func requireString(request mcp.CallToolRequest, key string) (string, error) {
	value, err := request.RequireString(key)
	if err != nil {
		return "", fmt.Errorf("the %q argument is required", key)
	}
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("the %q argument must not be empty", key)
	}
	return value, nil
}

// target resolves project/region/service from the request arguments with the
// configured defaults as fallback. An unset project is a validation failure;
// region and service always have defaults.
func (g *Gateway) target(request mcp.CallToolRequest) (project, region, service string, err error) {
	project = strings.TrimSpace(request.GetString("project", g.defaults.Project))
	if project == "" {
		return "", "", "", fmt.Errorf("no project was given and no default project is configured; set GOOGLE_CLOUD_PROJECT or pass the %q argument", "project")
	}
	region = strings.TrimSpace(request.GetString("region", g.defaults.Region))
	service = strings.TrimSpace(request.GetString("service", g.defaults.Service))
	return project, region, service, nil
}

func (g *Gateway) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	return g.client.ListProjects(ctx)
}

func (g *Gateway) handleCreateProject(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	projectID, err := requireString(request, "project_id")
	if err != nil {
		return "", err
	}
	return g.client.CreateProject(ctx, projectID)
}

func (g *Gateway) handleListServices(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	project, region, _, err := g.target(request)
	if err != nil {
		return "", err
	}
	return g.client.ListServices(ctx, project, region)
}

func (g *Gateway) handleGetService(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	service, err := requireString(request, "service")
	if err != nil {
		return "", err
	}
	project, region, _, err := g.target(request)
	if err != nil {
		return "", err
	}
	return g.client.GetService(ctx, project, region, service)
}

func (g *Gateway) handleGetServiceLog(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	service, err := requireString(request, "service")
	if err != nil {
		return "", err
	}
	project, region, _, err := g.target(request)
	if err != nil {
		return "", err
	}

	text, err := logs.Aggregate(ctx, g.pager, logs.Query{
		Project: project,
		Region:  region,
		Service: service,
	})
	if err != nil {
		return "", err
	}
	if text == "" {
		return fmt.Sprintf("No logs found for service %s.", service), nil
	}
	return text, nil
}

func (g *Gateway) handleDeployLocalFolder(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	folder, err := requireString(request, "folder")
	if err != nil {
		return "", err
	}
	project, region, service, err := g.target(request)
	if err != nil {
		return "", err
	}
	return g.client.DeployFolder(ctx, project, region, service, folder)
}

func (g *Gateway) handleDeployFileContents(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	files, err := parseFilesArgument(request)
	if err != nil {
		return "", err
	}
	project, region, service, err := g.target(request)
	if err != nil {
		return "", err
	}
	return g.client.DeployFiles(ctx, project, region, service, files)
}

// parseFilesArgument validates the "files" argument: a non-empty array of
// objects each carrying non-empty "filename" and "content" strings.
func parseFilesArgument(request mcp.CallToolRequest) (map[string]string, error) {
	raw, ok := request.GetArguments()["files"]
	if !ok {
		return nil, fmt.Errorf("the %q argument is required", "files")
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("the %q argument must be an array of file objects", "files")
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("the %q argument must not be empty", "files")
	}

	files := make(map[string]string, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("files[%d] must be an object with \"filename\" and \"content\"", i)
		}
		name, _ := obj["filename"].(string)
		content, _ := obj["content"].(string)
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("files[%d] is missing a \"filename\"", i)
		}
		files[name] = content
	}
	return files, nil
}

func (g *Gateway) handleStartProxy(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	project, region, service, err := g.target(request)
	if err != nil {
		return "", err
	}
	port := request.GetInt("port", 8080)
	if port < 1 || port > 65535 {
		return "", fmt.Errorf("the %q argument must be a port number between 1 and 65535", "port")
	}

	return g.proxy.Start(ctx, proxy.Spec{
		Project: project,
		Region:  region,
		Service: service,
		Port:    port,
	})
}

func (g *Gateway) handleStopProxy(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	return g.proxy.Stop(ctx)
}
