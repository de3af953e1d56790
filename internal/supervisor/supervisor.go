// Package supervisor owns the set of tool server handles: launching,
// tracking, and tearing down the subprocesses behind them. It is the unit
// that survives partial failures; one server crashing never takes down the
// hub.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/7divs7/mcp-hub/internal/config"
	"github.com/7divs7/mcp-hub/internal/schema"
)

// State is the lifecycle state of one handle.
type State string

const (
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateFailed   State = "failed"
	StateStopped  State = "stopped"
)

// Handle is the runtime record for one connected tool server, distinct from
// its static ServerSpec. A Running handle always holds a live, initialized
// session.
type Handle struct {
	Name string
	CWD  string

	mu      sync.RWMutex
	state   State
	reason  string
	session schema.Session
}

// Status returns the handle's state and, for failed handles, the reason.
func (h *Handle) Status() (State, string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state, h.reason
}

// Session returns the handle's session and whether it is currently Running.
func (h *Handle) Session() (schema.Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.session, h.state == StateRunning
}

func (h *Handle) setState(state State, reason string) {
	h.mu.Lock()
	h.state = state
	h.reason = reason
	h.mu.Unlock()
}

// ServerStatus is the external report for one handle, as served by /servers.
type ServerStatus struct {
	Status           string `json:"status"`
	Active           bool   `json:"active"`
	WorkingDirectory string `json:"workingDirectory,omitempty"`
}

// SessionFactory builds an unconnected session for a spec. Production wiring
// uses mcp.NewSession; tests substitute fakes.
type SessionFactory func(spec config.ServerSpec) schema.Session

// ErrNotFound is returned by Stop for a name that was never started.
var ErrNotFound = errors.New("server not found")

// StartError records a per-server launch or handshake failure. Batch loads
// capture it per-name rather than aborting.
type StartError struct {
	Name string
	Err  error
}

func (e *StartError) Error() string { return fmt.Sprintf("start server %q: %v", e.Name, e.Err) }
func (e *StartError) Unwrap() error { return e.Err }

// Supervisor tracks every handle the hub has launched. It is constructed once
// at startup and injected where needed; the handle map is guarded by mu, and
// per-name locks serialise overlapping Start calls so a session is never
// initialized twice.
type Supervisor struct {
	factory   SessionFactory
	handshake time.Duration

	mu      sync.Mutex
	handles map[string]*Handle

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// New returns a Supervisor that builds sessions with factory and bounds each
// handshake by handshakeTimeout.
func New(factory SessionFactory, handshakeTimeout time.Duration) *Supervisor {
	return &Supervisor{
		factory:   factory,
		handshake: handshakeTimeout,
		handles:   make(map[string]*Handle),
		locks:     make(map[string]*sync.Mutex),
	}
}

// nameLock returns the start lock for name, creating it on first use.
func (s *Supervisor) nameLock(name string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

// Start installs (or replaces) the handle for spec.Name in Starting state,
// launches the subprocess, and performs the session handshake. On success the
// handle moves to Running; on failure it is recorded as failed, so it is
// excluded from aggregation but still visible in status reports.
func (s *Supervisor) Start(ctx context.Context, spec config.ServerSpec) error {
	lock := s.nameLock(spec.Name)
	lock.Lock()
	defer lock.Unlock()

	sess := s.factory(spec)
	h := &Handle{Name: spec.Name, CWD: spec.CWD, state: StateStarting, session: sess}
	// Install before the handshake so status reports show the handle as
	// starting while the handshake is in flight.
	s.replace(h)

	hctx, cancel := context.WithTimeout(ctx, s.handshake)
	defer cancel()

	if err := sess.Initialize(hctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("handshake timed out after %s", s.handshake)
		}
		sess.Close() //nolint:errcheck
		h.setState(StateFailed, err.Error())
		slog.Error("tool server start failed", "server", spec.Name, "err", err)
		return &StartError{Name: spec.Name, Err: err}
	}

	h.setState(StateRunning, "")
	slog.Info("tool server connected", "server", spec.Name, "command", spec.Command)
	return nil
}

// replace installs h under its name, closing the session of any handle it
// displaces.
func (s *Supervisor) replace(h *Handle) {
	s.mu.Lock()
	old := s.handles[h.Name]
	s.handles[h.Name] = h
	s.mu.Unlock()

	if old == nil {
		return
	}
	if sess, running := old.Session(); running {
		old.setState(StateStopped, "")
		if err := sess.Close(); err != nil {
			slog.Warn("close replaced session", "server", h.Name, "err", err)
		}
	}
}

// StartAll loads every spec via Start and reports a per-name status map.
// One bad spec never blocks the others. Specs absent from the batch are left
// untouched: reloads are additive.
func (s *Supervisor) StartAll(ctx context.Context, specs []config.ServerSpec) map[string]ServerStatus {
	report := make(map[string]ServerStatus, len(specs))
	for _, spec := range specs {
		if err := s.Start(ctx, spec); err != nil {
			cause := err
			var serr *StartError
			if errors.As(err, &serr) {
				cause = serr.Err
			}
			report[spec.Name] = ServerStatus{
				Status: fmt.Sprintf("error: %v", cause),
				Active: false,
			}
			continue
		}
		report[spec.Name] = ServerStatus{
			Status:           string(StateRunning),
			Active:           true,
			WorkingDirectory: spec.CWD,
		}
	}
	return report
}

// Stop terminates the named handle's subprocess and releases its session.
// Stopping an already-stopped handle is a no-op success; an unknown name
// returns ErrNotFound.
func (s *Supervisor) Stop(name string) error {
	s.mu.Lock()
	h, ok := s.handles[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	sess, running := h.Session()
	if !running {
		return nil
	}
	h.setState(StateStopped, "")
	if err := sess.Close(); err != nil {
		slog.Warn("close session", "server", name, "err", err)
	}
	return nil
}

// StopAll tears down every tracked handle. Called once at shutdown; teardown
// failures are logged, never raised.
func (s *Supervisor) StopAll() {
	for _, name := range s.names() {
		if err := s.Stop(name); err != nil && !errors.Is(err, ErrNotFound) {
			slog.Warn("stop server", "server", name, "err", err)
		}
	}
}

// Get resolves a name to its handle; used by the dispatcher to find a call
// target.
func (s *Supervisor) Get(name string) (*Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[name]
	return h, ok
}

// Running returns the live session for name, or false when the name has no
// Running handle.
func (s *Supervisor) Running(name string) (schema.Session, bool) {
	h, ok := s.Get(name)
	if !ok {
		return nil, false
	}
	return h.Session()
}

// ListActive snapshots every handle's status for external reporting. It never
// blocks on subprocess I/O.
func (s *Supervisor) ListActive() map[string]ServerStatus {
	s.mu.Lock()
	handles := make([]*Handle, 0, len(s.handles))
	for _, h := range s.handles {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	out := make(map[string]ServerStatus, len(handles))
	for _, h := range handles {
		state, reason := h.Status()
		status := string(state)
		if state == StateFailed && reason != "" {
			status = "error: " + reason
		}
		out[h.Name] = ServerStatus{
			Status:           status,
			Active:           state == StateRunning,
			WorkingDirectory: h.CWD,
		}
	}
	return out
}

// RunningSessions snapshots the sessions of every Running handle, keyed by
// server name. Registry traversal works from this snapshot so enumeration
// never holds the handle map lock across session I/O.
func (s *Supervisor) RunningSessions() map[string]schema.Session {
	s.mu.Lock()
	handles := make([]*Handle, 0, len(s.handles))
	for _, h := range s.handles {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	out := make(map[string]schema.Session, len(handles))
	for _, h := range handles {
		if sess, running := h.Session(); running {
			out[h.Name] = sess
		}
	}
	return out
}

func (s *Supervisor) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.handles))
	for name := range s.handles {
		names = append(names, name)
	}
	return names
}
