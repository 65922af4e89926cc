package tui

import (
	"context"
	"fmt"

	"cashlens/internal/common"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the shell and blocks until the user quits. The camera manager is
// released on the way out no matter which screen was current.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Camera == nil {
		return fmt.Errorf("%w: camera manager", common.ErrMissingConfig)
	}
	if cfg.Predictor == nil {
		return fmt.Errorf("%w: predictor", common.ErrMissingConfig)
	}
	if cfg.CashFlow == nil {
		return fmt.Errorf("%w: cash-flow client", common.ErrMissingConfig)
	}

	program := tea.NewProgram(newModel(cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()

	// Final safeguard: never leave a live camera behind.
	cfg.Camera.Release()

	return err
}
