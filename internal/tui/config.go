package tui

import (
	"time"

	"cashlens/internal/capture"
	"cashlens/internal/cashflow"
	"cashlens/internal/service"
)

// Config wires the shell to its collaborators. Everything is injected so the
// screens can be driven by fakes in tests.
type Config struct {
	Camera       *capture.Manager
	Predictor    service.Predictor
	Announcer    service.Announcer
	CashFlow     service.CashFlowAPI
	Constraints  service.Constraints
	Threshold    float64
	ScanInterval time.Duration
	StartScreen  Screen
}

// newStore builds the per-mount cash-flow store. The store is rebuilt on
// every entry to the cash-flow screen; nothing persists across transitions.
func (c Config) newStore() *cashflow.Store {
	return cashflow.NewStore(c.CashFlow)
}
