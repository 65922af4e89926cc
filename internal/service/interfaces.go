// Package service defines the interfaces for all application capabilities.
package service

import (
	"context"
	"time"

	"cashlens/internal/model"

	"github.com/shopspring/decimal"
)

// ReadyState mirrors the media readiness enumeration of a live video source.
// Frames may only be grabbed at ReadyEnoughData.
type ReadyState int

// Readiness levels, lowest to highest.
const (
	ReadyNothing ReadyState = iota
	ReadyMetadata
	ReadyCurrentData
	ReadyFutureData
	ReadyEnoughData
)

// Facing selects which camera a device should open.
type Facing string

// Camera facings.
const (
	FacingEnvironment Facing = "environment"
	FacingUser        Facing = "user"
)

// Constraints describe the stream a device should try to open. Width and
// height are ideals, not requirements; the device may deliver what it can.
type Constraints struct {
	Facing      Facing
	IdealWidth  int
	IdealHeight int
}

// Device is a camera or camera stand-in. Opening it may prompt an OS-level
// permission dialog; closing it must stop the stream so no live-camera
// indicator is left behind.
type Device interface {
	// Open starts streaming with the given constraints.
	Open(ctx context.Context, c Constraints) error
	// Grab encodes the currently visible frame as JPEG. It fails without
	// side effects when the device is below ReadyEnoughData.
	Grab(ctx context.Context) (model.Frame, error)
	// ReadyState reports how much data the device can currently serve.
	ReadyState() ReadyState
	// Close stops the stream. It must be safe to call more than once.
	Close() error
}

// Predictor classifies a captured frame against the remote service.
type Predictor interface {
	Predict(ctx context.Context, frame model.Frame) (model.Prediction, error)
	// Ping checks that the service is reachable.
	Ping(ctx context.Context) error
}

// Announcer speaks a message aloud. Announcements are best effort: when no
// speech capability is available the call is a silent no-op, never an error.
type Announcer interface {
	Announce(ctx context.Context, text string)
	// Available reports whether announcements will actually be spoken.
	Available() bool
}

// CashFlowAPI is the remote cash-flow backend.
type CashFlowAPI interface {
	Balance(ctx context.Context) (model.Balance, error)
	Denominations(ctx context.Context) ([]model.Denomination, error)
	Movements(ctx context.Context) ([]model.Movement, error)
	// AddMovement records a manual income or expense and returns the new
	// balance as echoed by the server.
	AddMovement(ctx context.Context, amount decimal.Decimal, t model.MovementType) (model.Balance, error)
	// EditMovement replaces the amount of an existing movement.
	EditMovement(ctx context.Context, id int64, amount decimal.Decimal) (model.Movement, error)
	// AddFromScan credits the cash box with a scanned banknote.
	AddFromScan(ctx context.Context, value decimal.Decimal) (model.Balance, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
