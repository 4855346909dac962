package proxy

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
)

// LineFunc receives one line of child-process output. stream is "stdout" or
// "stderr".
type LineFunc func(stream, line string)

// Handle is the running child process behind a proxy session. It exposes just
// enough lifecycle surface for the session manager: exit observation and the
// two termination signals.
type Handle interface {
	// Done is closed once the process has actually exited.
	Done() <-chan struct{}
	// Err returns the process exit error, if any. Only meaningful after Done
	// is closed.
	Err() error
	// Terminate asks the process to exit gracefully (SIGTERM).
	Terminate() error
	// Kill forcibly ends the process (SIGKILL to the process group).
	Kill() error
}

// Launcher spawns the proxy child process. Tests substitute a fake so the
// session state machine can be exercised without real processes.
type Launcher interface {
	Launch(ctx context.Context, spec Spec, onLine LineFunc) (Handle, error)
}

// Spec identifies the remote service a proxy session tunnels to. All fields
// are fixed for the lifetime of the session.
type Spec struct {
	Project string
	Region  string
	Service string
	Port    int
}

// gcloudLauncher spawns `gcloud run services proxy` for a Spec.
type gcloudLauncher struct {
	// binary overrides the executable name for tests. Empty means "gcloud".
	binary string
}

type processHandle struct {
	cmd  *exec.Cmd
	pgid int
	done chan struct{}

	mu      sync.Mutex
	waitErr error
}

func (l *gcloudLauncher) Launch(ctx context.Context, spec Spec, onLine LineFunc) (Handle, error) {
	binary := l.binary
	if binary == "" {
		binary = "gcloud"
	}

	args := []string{
		"run", "services", "proxy", spec.Service,
		"--project", spec.Project,
		"--region", spec.Region,
		"--port", strconv.Itoa(spec.Port),
	}

	cmd := exec.Command(binary, args...)
	// Own process group so Kill can take down gcloud's python children too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		stdoutPipe.Close()
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdoutPipe.Close()
		stderrPipe.Close()
		return nil, fmt.Errorf("starting '%s run services proxy': %w", binary, err)
	}

	h := &processHandle{
		cmd:  cmd,
		pgid: cmd.Process.Pid,
		done: make(chan struct{}),
	}

	var scanners sync.WaitGroup
	scanners.Add(2)
	go func() {
		defer scanners.Done()
		scanner := bufio.NewScanner(stdoutPipe)
		for scanner.Scan() {
			onLine("stdout", scanner.Text())
		}
	}()
	go func() {
		defer scanners.Done()
		scanner := bufio.NewScanner(stderrPipe)
		for scanner.Scan() {
			onLine("stderr", scanner.Text())
		}
	}()

	go func() {
		// Drain both pipes before Wait so no output lines are lost.
		scanners.Wait()
		err := cmd.Wait()
		h.mu.Lock()
		h.waitErr = err
		h.mu.Unlock()
		close(h.done)
	}()

	return h, nil
}

func (h *processHandle) Done() <-chan struct{} {
	return h.done
}

func (h *processHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.waitErr
}

func (h *processHandle) Terminate() error {
	return h.cmd.Process.Signal(syscall.SIGTERM)
}

func (h *processHandle) Kill() error {
	return syscall.Kill(-h.pgid, syscall.SIGKILL)
}
