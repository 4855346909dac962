package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wlhee/cloud-run-mcp/internal/config"
	"github.com/wlhee/cloud-run-mcp/internal/logs"
	"github.com/wlhee/cloud-run-mcp/internal/proxy"
)

type fakeProxy struct {
	starts   int
	stops    int
	lastSpec proxy.Spec
	startMsg string
	startErr error
	stopMsg  string
}

func (f *fakeProxy) Start(ctx context.Context, spec proxy.Spec) (string, error) {
	f.starts++
	f.lastSpec = spec
	return f.startMsg, f.startErr
}

func (f *fakeProxy) Stop(ctx context.Context) (string, error) {
	f.stops++
	return f.stopMsg, nil
}

type fakeClient struct {
	calls     int
	out       string
	err       error
	lastFiles map[string]string
}

func (f *fakeClient) ListProjects(ctx context.Context) (string, error) {
	f.calls++
	return f.out, f.err
}

func (f *fakeClient) CreateProject(ctx context.Context, projectID string) (string, error) {
	f.calls++
	return f.out, f.err
}

func (f *fakeClient) ListServices(ctx context.Context, project, region string) (string, error) {
	f.calls++
	return f.out, f.err
}

func (f *fakeClient) GetService(ctx context.Context, project, region, service string) (string, error) {
	f.calls++
	return f.out, f.err
}

func (f *fakeClient) DeployFolder(ctx context.Context, project, region, service, folder string) (string, error) {
	f.calls++
	return f.out, f.err
}

func (f *fakeClient) DeployFiles(ctx context.Context, project, region, service string, files map[string]string) (string, error) {
	f.calls++
	f.lastFiles = files
	return f.out, f.err
}

type fakePager struct {
	pages   []logs.Page
	fetches int
}

func (f *fakePager) FetchPage(ctx context.Context, q logs.Query, cursor string) (logs.Page, error) {
	page := f.pages[f.fetches]
	f.fetches++
	return page, nil
}

func callReq(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok, "content is not text")
	return text.Text
}

func testGateway(credentialed bool) (*Gateway, *fakeProxy, *fakeClient) {
	pm := &fakeProxy{startMsg: "started", stopMsg: "stopped"}
	client := &fakeClient{out: "ok"}
	defaults := config.Config{Project: "p1", Region: "r1", Service: "svc"}
	g := NewGateway(pm, &fakePager{pages: []logs.Page{{}}}, client, defaults, credentialed)
	return g, pm, client
}

func TestGateBlocksWithoutCredentials(t *testing.T) {
	g, _, client := testGateway(false)

	handler := g.wrap("list_projects", true, g.handleListProjects)
	res, err := handler(context.Background(), callReq("list_projects", nil))
	require.NoError(t, err)

	assert.Contains(t, resultText(t, res), "gcloud auth login")
	// The collaborator is never invoked behind the gate.
	assert.Equal(t, 0, client.calls)
}

func TestUngatedToolWorksWithoutCredentials(t *testing.T) {
	g, pm, _ := testGateway(false)

	handler := g.wrap("stop_proxy", false, g.handleStopProxy)
	res, err := handler(context.Background(), callReq("stop_proxy", nil))
	require.NoError(t, err)

	assert.Equal(t, "stopped", resultText(t, res))
	assert.Equal(t, 1, pm.stops)
}

func TestWrapRendersFailureAsText(t *testing.T) {
	g, _, client := testGateway(true)
	client.err = errors.New("backend exploded")

	handler := g.wrap("list_services", true, g.handleListServices)
	res, err := handler(context.Background(), callReq("list_services", nil))

	// Failures never cross the boundary as errors.
	require.NoError(t, err)
	text := resultText(t, res)
	assert.Contains(t, text, "list_services")
	assert.Contains(t, text, "backend exploded")
}

func TestValidationFailureRenderedLikeCollaboratorFailure(t *testing.T) {
	g, _, client := testGateway(true)

	handler := g.wrap("create_project", true, g.handleCreateProject)
	res, err := handler(context.Background(), callReq("create_project", nil))
	require.NoError(t, err)

	text := resultText(t, res)
	assert.Contains(t, text, "create_project")
	assert.Contains(t, text, "project_id")
	assert.Equal(t, 0, client.calls)
}

func TestTargetRequiresProject(t *testing.T) {
	g, _, _ := testGateway(true)
	g.defaults = config.Config{Region: "r1", Service: "svc"}

	_, err := g.handleListServices(context.Background(), callReq("list_services", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_CLOUD_PROJECT")
}

func TestStartProxyUsesDefaultsAndPort(t *testing.T) {
	g, pm, _ := testGateway(true)

	_, err := g.handleStartProxy(context.Background(), callReq("start_proxy", nil))
	require.NoError(t, err)

	assert.Equal(t, proxy.Spec{Project: "p1", Region: "r1", Service: "svc", Port: 8080}, pm.lastSpec)
}

func TestStartProxyExplicitArguments(t *testing.T) {
	g, pm, _ := testGateway(true)

	_, err := g.handleStartProxy(context.Background(), callReq("start_proxy", map[string]any{
		"project": "p2",
		"region":  "r2",
		"service": "other",
		"port":    9090.0,
	}))
	require.NoError(t, err)

	assert.Equal(t, proxy.Spec{Project: "p2", Region: "r2", Service: "other", Port: 9090}, pm.lastSpec)
}

func TestStartProxyRejectsBadPort(t *testing.T) {
	g, pm, _ := testGateway(true)

	_, err := g.handleStartProxy(context.Background(), callReq("start_proxy", map[string]any{
		"port": 99999.0,
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
	assert.Equal(t, 0, pm.starts)
}

func TestGetServiceLogAggregates(t *testing.T) {
	g, _, _ := testGateway(true)
	pager := &fakePager{pages: []logs.Page{
		{Logs: "a", NextCursor: "t1"},
		{Logs: "b"},
	}}
	g.pager = pager

	out, err := g.handleGetServiceLog(context.Background(), callReq("get_service_log", map[string]any{
		"service": "svc",
	}))
	require.NoError(t, err)
	assert.Equal(t, "a\nb", out)
	assert.Equal(t, 2, pager.fetches)
}

func TestGetServiceLogEmpty(t *testing.T) {
	g, _, _ := testGateway(true)

	out, err := g.handleGetServiceLog(context.Background(), callReq("get_service_log", map[string]any{
		"service": "svc",
	}))
	require.NoError(t, err)
	assert.Equal(t, "No logs found for service svc.", out)
}

func TestGetServiceLogRequiresService(t *testing.T) {
	g, _, _ := testGateway(true)

	_, err := g.handleGetServiceLog(context.Background(), callReq("get_service_log", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service")
}

func TestDeployFileContentsValidation(t *testing.T) {
	g, _, client := testGateway(true)

	tests := []struct {
		name    string
		args    map[string]any
		wantErr string
	}{
		{
			name:    "missing files",
			args:    nil,
			wantErr: `"files" argument is required`,
		},
		{
			name:    "empty array",
			args:    map[string]any{"files": []any{}},
			wantErr: "must not be empty",
		},
		{
			name:    "not an array",
			args:    map[string]any{"files": "main.py"},
			wantErr: "must be an array",
		},
		{
			name:    "item missing filename",
			args:    map[string]any{"files": []any{map[string]any{"content": "x"}}},
			wantErr: "filename",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.handleDeployFileContents(context.Background(), callReq("deploy_file_contents", tt.args))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
	assert.Equal(t, 0, client.calls)
}

func TestDeployFileContentsPassesFiles(t *testing.T) {
	g, _, client := testGateway(true)

	_, err := g.handleDeployFileContents(context.Background(), callReq("deploy_file_contents", map[string]any{
		"files": []any{
			map[string]any{"filename": "main.py", "content": "print('hi')"},
			map[string]any{"filename": "requirements.txt", "content": "flask"},
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"main.py":          "print('hi')",
		"requirements.txt": "flask",
	}, client.lastFiles)
}
