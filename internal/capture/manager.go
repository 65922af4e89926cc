// Package capture owns the camera session lifecycle and frame production.
package capture

import (
	"context"
	"sync"

	"cashlens/internal/common"
	"cashlens/internal/model"
	"cashlens/internal/service"

	"github.com/google/uuid"
)

// Session is an exclusively owned handle to an open frame source. It is
// created by a Manager and must be released exactly once per acquisition;
// extra releases are safe no-ops.
type Session struct {
	device   service.Device
	ID       uuid.UUID
	mu       sync.Mutex
	ready    bool
	released bool
}

// Ready reports whether the session can serve captures.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready && !s.released
}

// Capture encodes the currently visible frame as JPEG at the stream's native
// resolution. It fails with ErrCaptureNotReady, without side effects, unless
// the session is ready and the source reports full readiness.
func (s *Session) Capture(ctx context.Context) (model.Frame, error) {
	s.mu.Lock()
	if s.released || !s.ready {
		s.mu.Unlock()
		return model.Frame{}, common.ErrCaptureNotReady
	}
	device := s.device
	s.mu.Unlock()

	if device.ReadyState() < service.ReadyEnoughData {
		return model.Frame{}, common.ErrCaptureNotReady
	}

	return device.Grab(ctx)
}

// Release stops the underlying stream and clears the handle. Idempotent.
func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	s.ready = false
	_ = s.device.Close()
}

// Manager acquires and releases camera sessions, holding at most one open
// session at a time.
type Manager struct {
	newDevice func() service.Device
	active    *Session
	mu        sync.Mutex
}

// NewManager creates a manager that opens devices produced by the factory.
func NewManager(newDevice func() service.Device) *Manager {
	return &Manager{newDevice: newDevice}
}

// Acquire opens a new session with the given constraints. Any session the
// manager already holds is released first, so a live stream can never leak
// behind a newer one. The returned session is ready only once the device has
// opened and started streaming; open failures surface as ErrPermissionDenied
// or ErrDeviceUnavailable.
func (m *Manager) Acquire(ctx context.Context, c service.Constraints) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		m.active.Release()
		m.active = nil
	}

	device := m.newDevice()
	if err := device.Open(ctx, c); err != nil {
		_ = device.Close()
		return nil, err
	}

	session := &Session{
		ID:     uuid.New(),
		device: device,
		ready:  true,
	}
	m.active = session
	return session, nil
}

// Release stops the active session, if any. Idempotent; user close,
// navigation away, and final teardown all converge here.
func (m *Manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil {
		m.active.Release()
		m.active = nil
	}
}

// Active returns the currently held session, or nil.
func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}
