// Package run holds the thin pass-through operations against Cloud Run and
// the project surface: construct a gcloud invocation, run it, hand the text
// back. All state-bearing behavior lives elsewhere (internal/proxy,
// internal/logs); this package deliberately stays stateless.
package run

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wlhee/cloud-run-mcp/internal/gcloud"
	"github.com/wlhee/cloud-run-mcp/pkg/logging"
)

// Client performs Cloud Run and project operations through the gcloud CLI.
type Client struct {
	runner gcloud.Runner
}

// NewClient returns a Client on top of the given runner.
func NewClient(runner gcloud.Runner) *Client {
	return &Client{runner: runner}
}

// ListProjects returns the projects the active credentials can see.
func (c *Client) ListProjects(ctx context.Context) (string, error) {
	out, err := c.runner.Run(ctx, "projects", "list",
		"--format", "table(projectId, name, projectNumber)")
	if err != nil {
		return "", fmt.Errorf("listing projects: %w", err)
	}
	if strings.TrimSpace(out) == "" {
		return "No projects found.", nil
	}
	return out, nil
}

// CreateProject creates a new GCP project with the given id.
func (c *Client) CreateProject(ctx context.Context, projectID string) (string, error) {
	out, err := c.runner.Run(ctx, "projects", "create", projectID, "--quiet")
	if err != nil {
		return "", fmt.Errorf("creating project %s: %w", projectID, err)
	}
	logging.Info("Run", "created project %s", projectID)
	if strings.TrimSpace(out) == "" {
		return fmt.Sprintf("Project %s created.", projectID), nil
	}
	return out, nil
}

// ListServices lists the Cloud Run services in a project and region.
func (c *Client) ListServices(ctx context.Context, project, region string) (string, error) {
	out, err := c.runner.Run(ctx, "run", "services", "list",
		"--project", project,
		"--region", region,
		"--format", "table(metadata.name, status.url, status.latestReadyRevisionName)")
	if err != nil {
		return "", fmt.Errorf("listing services in %s/%s: %w", project, region, err)
	}
	if strings.TrimSpace(out) == "" {
		return fmt.Sprintf("No services found in project %s, region %s.", project, region), nil
	}
	return out, nil
}

// GetService describes a single Cloud Run service.
func (c *Client) GetService(ctx context.Context, project, region, service string) (string, error) {
	out, err := c.runner.Run(ctx, "run", "services", "describe", service,
		"--project", project,
		"--region", region)
	if err != nil {
		return "", fmt.Errorf("describing service %s: %w", service, err)
	}
	return out, nil
}

// DeployFolder deploys a local folder to Cloud Run using a source build.
// Archive construction, build triggering, and IAM policy application all
// happen inside gcloud.
func (c *Client) DeployFolder(ctx context.Context, project, region, service, folder string) (string, error) {
	info, err := os.Stat(folder)
	if err != nil {
		return "", fmt.Errorf("reading folder %s: %w", folder, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a folder", folder)
	}

	logging.Info("Run", "deploying %s to service %s in %s/%s", folder, service, project, region)
	out, err := c.runner.Run(ctx, "run", "deploy", service,
		"--project", project,
		"--region", region,
		"--source", folder,
		"--allow-unauthenticated",
		"--quiet")
	if err != nil {
		return "", fmt.Errorf("deploying service %s: %w", service, err)
	}
	if strings.TrimSpace(out) == "" {
		return fmt.Sprintf("Service %s deployed from %s.", service, folder), nil
	}
	return out, nil
}

// DeployFiles stages the given in-memory files into a temporary folder and
// deploys it. Keys are relative file names, values are file contents.
func (c *Client) DeployFiles(ctx context.Context, project, region, service string, files map[string]string) (string, error) {
	stage, err := os.MkdirTemp("", "cloud-run-mcp-deploy-*")
	if err != nil {
		return "", fmt.Errorf("creating staging folder: %w", err)
	}
	defer os.RemoveAll(stage)

	for name, content := range files {
		if filepath.IsAbs(name) || strings.Contains(name, "..") {
			return "", fmt.Errorf("invalid file name %q", name)
		}
		path := filepath.Join(stage, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", fmt.Errorf("staging %s: %w", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return "", fmt.Errorf("staging %s: %w", name, err)
		}
	}

	return c.DeployFolder(ctx, project, region, service, stage)
}
