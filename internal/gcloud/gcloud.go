// Package gcloud wraps invocations of the Google Cloud CLI. Every cloud
// collaborator in this repository (project listing, deploys, log reads, the
// Cloud Run proxy) goes through the Runner interface so that tests can
// substitute a fake without spawning processes.
package gcloud

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/wlhee/cloud-run-mcp/pkg/logging"
)

// Runner executes a single gcloud invocation and returns its standard output.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// CLIRunner runs the real gcloud binary.
type CLIRunner struct {
	// Binary overrides the executable name. Empty means "gcloud".
	Binary string
}

// NewCLIRunner returns a Runner backed by the gcloud binary on PATH.
func NewCLIRunner() *CLIRunner {
	return &CLIRunner{}
}

// Run executes gcloud with the given arguments. On failure the returned error
// includes the command's stderr, which is where gcloud prints its diagnostics.
func (r *CLIRunner) Run(ctx context.Context, args ...string) (string, error) {
	binary := r.Binary
	if binary == "" {
		binary = "gcloud"
	}

	cmd := exec.CommandContext(ctx, binary, args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	logging.Debug("GCloud", "running: %s %s", binary, strings.Join(args, " "))

	if err := cmd.Run(); err != nil {
		stderr := strings.TrimSpace(stderrBuf.String())
		if stderr != "" {
			return stdoutBuf.String(), fmt.Errorf("'%s %s': %w: %s", binary, strings.Join(args, " "), err, stderr)
		}
		return stdoutBuf.String(), fmt.Errorf("'%s %s': %w", binary, strings.Join(args, " "), err)
	}
	return stdoutBuf.String(), nil
}

// CredentialsAvailable reports whether gcloud holds usable credentials.
// It is computed once at process start; tool handlers that need authenticated
// access are short-circuited when it is false.
func CredentialsAvailable(ctx context.Context, r Runner) bool {
	_, err := r.Run(ctx, "auth", "print-access-token", "--quiet")
	if err != nil {
		logging.Warn("GCloud", "credential probe failed: %v", err)
		return false
	}
	return true
}

// ComponentInstalled reports whether the named gcloud component is installed
// locally. The check requires a zero exit code and the component id appearing
// in the listing output.
func ComponentInstalled(ctx context.Context, r Runner, id string) (bool, error) {
	out, err := r.Run(ctx, "components", "list", "--only-local-state", "--format=value(id)", "--quiet")
	if err != nil {
		return false, fmt.Errorf("listing installed gcloud components: %w", err)
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == id {
			return true, nil
		}
	}
	return false, nil
}
