package tui

import (
	"context"

	"cashlens/internal/common"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// menu entries, in order.
const (
	menuScan = iota
	menuCashFlow
	menuQuit
)

var menuItems = []string{"Escanear billete", "Caja de efectivo", "Salir"}

// homeModel is the landing screen: a small menu plus the camera status line
// shown when acquisition fails.
type homeModel struct {
	status    string
	cursor    int
	acquiring bool
}

func newHomeModel() homeModel {
	return homeModel{}
}

// cashflowEnterMsg asks the shell to mount the cash-flow screen.
type cashflowEnterMsg struct{}

// quitRequestMsg asks the shell to tear down and exit.
type quitRequestMsg struct{}

func (h homeModel) update(msg tea.Msg, keymap KeyMap, cfg Config) (homeModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return h, nil
	}

	switch {
	case key.Matches(keyMsg, keymap.Up):
		if h.cursor > 0 {
			h.cursor--
		}
	case key.Matches(keyMsg, keymap.Down):
		if h.cursor < len(menuItems)-1 {
			h.cursor++
		}
	case key.Matches(keyMsg, keymap.Select):
		switch h.cursor {
		case menuScan:
			if h.acquiring {
				return h, nil
			}
			h.acquiring = true
			h.status = "Solicitando acceso a la cámara..."
			return h, h.requestCamera(cfg)
		case menuCashFlow:
			return h, func() tea.Msg { return cashflowEnterMsg{} }
		case menuQuit:
			return h, func() tea.Msg { return quitRequestMsg{} }
		}
	}
	return h, nil
}

// requestCamera acquires a camera session off the UI loop. The shell only
// advances to the camera screen when this resolves successfully.
func (h homeModel) requestCamera(cfg Config) tea.Cmd {
	return func() tea.Msg {
		session, err := cfg.Camera.Acquire(context.Background(), cfg.Constraints)
		if err != nil {
			return cameraErrorMsg{err: err}
		}
		return cameraReadyMsg{session: session}
	}
}

// cameraErrorText maps acquisition failures to the persistent status line.
func cameraErrorText(err error) string {
	switch {
	case err == nil:
		return ""
	default:
		return "No se pudo acceder a la cámara: " + common.UserMessage(err)
	}
}
