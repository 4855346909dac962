// Package proxy supervises the single local process that tunnels traffic to a
// remote Cloud Run service. At most one proxy session exists per server
// process; the Manager owns its full lifecycle.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wlhee/cloud-run-mcp/internal/gcloud"
	"github.com/wlhee/cloud-run-mcp/pkg/logging"
)

// readyMarker is the substring gcloud prints once the tunnel is actually
// usable. The process emits plenty of diagnostic output first, so process
// start alone does not mean the proxy is ready.
const readyMarker = "Proxying to Cloud Run service"

// proxyComponent is the gcloud component the proxy command depends on.
const proxyComponent = "cloud-run-proxy"

// defaultStopGrace bounds the wait for graceful exit on Stop before the
// process group is killed.
const defaultStopGrace = 10 * time.Second

var (
	// ErrSessionActive is returned when Start is called while a session is
	// not idle. The caller must stop the existing session first.
	ErrSessionActive = errors.New("a proxy session is already active")

	// ErrMissingDependency is returned when the cloud-run-proxy component is
	// not installed.
	ErrMissingDependency = errors.New("the cloud-run-proxy gcloud component is not installed; run 'gcloud components install cloud-run-proxy'")

	// ErrStartFailed wraps the underlying cause when the proxy process fails
	// or exits before the readiness marker is observed.
	ErrStartFailed = errors.New("proxy failed to start")
)

// State is the lifecycle state of the proxy session.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Session records the identity and process handle of an active proxy. Its
// identity fields are immutable for the session's lifetime.
type Session struct {
	Spec   Spec
	handle Handle
}

// Manager enforces the process-wide singleton proxy session and drives it
// through the start/ready/stop state machine. It is safe for concurrent use;
// the mutex around state transitions also closes the window where two Start
// calls could both observe an idle session.
type Manager struct {
	runner    gcloud.Runner
	launcher  Launcher
	stopGrace time.Duration

	mu      sync.Mutex
	state   State
	session *Session
}

// NewManager returns a Manager that spawns real gcloud proxy processes.
func NewManager(runner gcloud.Runner) *Manager {
	return &Manager{
		runner:    runner,
		launcher:  &gcloudLauncher{},
		stopGrace: defaultStopGrace,
	}
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start launches a proxy process for the given spec and blocks until the
// readiness marker appears in its output. On any failure before readiness the
// session rolls back to idle so a later Start can succeed.
func (m *Manager) Start(ctx context.Context, spec Spec) (string, error) {
	m.mu.Lock()
	if m.state != StateIdle {
		m.mu.Unlock()
		return "", fmt.Errorf("%w (state: %s); call stop_proxy first", ErrSessionActive, m.state)
	}
	m.state = StateStarting
	m.mu.Unlock()

	installed, err := gcloud.ComponentInstalled(ctx, m.runner, proxyComponent)
	if err != nil {
		m.rollback()
		return "", fmt.Errorf("checking for the %s component: %w", proxyComponent, err)
	}
	if !installed {
		m.rollback()
		return "", ErrMissingDependency
	}

	// One-shot readiness barrier. Output lines keep arriving after the first
	// match; only the first one may resolve the start.
	ready := make(chan struct{})
	var readyOnce sync.Once
	onLine := func(stream, line string) {
		logging.Info("Proxy", "[%s] %s", stream, line)
		if strings.Contains(line, readyMarker) {
			readyOnce.Do(func() { close(ready) })
		}
	}

	handle, err := m.launcher.Launch(ctx, spec, onLine)
	if err != nil {
		m.rollback()
		return "", fmt.Errorf("%w: %v", ErrStartFailed, err)
	}

	select {
	case <-ready:
		m.mu.Lock()
		m.state = StateRunning
		m.session = &Session{Spec: spec, handle: handle}
		m.mu.Unlock()
		logging.Info("Proxy", "proxy for service %s is ready on port %d", spec.Service, spec.Port)
		return fmt.Sprintf("Proxy is running. Service %s is available at http://localhost:%d.", spec.Service, spec.Port), nil

	case <-handle.Done():
		m.rollback()
		if err := handle.Err(); err != nil {
			return "", fmt.Errorf("%w: process exited before becoming ready: %v", ErrStartFailed, err)
		}
		return "", fmt.Errorf("%w: process exited before becoming ready", ErrStartFailed)

	case <-ctx.Done():
		handle.Kill()
		<-handle.Done()
		m.rollback()
		return "", fmt.Errorf("%w: %v", ErrStartFailed, ctx.Err())
	}
}

// Stop ends the active session, waiting for the process to actually exit
// before the session is released. Stopping is idempotent: with no active
// session it succeeds immediately. Graceful exit is bounded; if the process
// lingers past the grace period it is killed.
func (m *Manager) Stop(ctx context.Context) (string, error) {
	m.mu.Lock()
	switch m.state {
	case StateIdle:
		m.mu.Unlock()
		return "No proxy is currently running; nothing to stop.", nil
	case StateStarting, StateStopping:
		state := m.state
		m.mu.Unlock()
		return fmt.Sprintf("A proxy session is currently %s; try again shortly.", state), nil
	}
	session := m.session
	m.state = StateStopping
	m.mu.Unlock()

	handle := session.handle
	if err := handle.Terminate(); err != nil {
		logging.Warn("Proxy", "SIGTERM failed, killing process group: %v", err)
		handle.Kill()
	}

	select {
	case <-handle.Done():
	case <-time.After(m.stopGrace):
		logging.Warn("Proxy", "proxy did not exit within %s, killing process group", m.stopGrace)
		handle.Kill()
		<-handle.Done()
	}

	m.mu.Lock()
	m.state = StateIdle
	m.session = nil
	m.mu.Unlock()

	logging.Info("Proxy", "proxy for service %s stopped", session.Spec.Service)
	return fmt.Sprintf("Stopped the proxy for service %s.", session.Spec.Service), nil
}

func (m *Manager) rollback() {
	m.mu.Lock()
	m.state = StateIdle
	m.session = nil
	m.mu.Unlock()
}
