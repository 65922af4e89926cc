// Package tui implements the interactive shell: home, camera, and cash-flow
// screens over bubbletea.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/key"
)

// Screen identifies a top-level screen.
type Screen int

// Screens.
const (
	ScreenHome Screen = iota
	ScreenCamera
	ScreenCashFlow
)

// Model is the navigation shell. It owns which screen is mounted and the
// cleanup that must happen on the way out of each one; every path that
// leaves the camera screen stops the camera first.
type Model struct {
	cfg      Config
	keymap   KeyMap
	home     homeModel
	camera   cameraModel
	cashflow cashflowModel
	screen   Screen
	width    int
	height   int
	quitting bool
}

// newModel creates the shell.
func newModel(cfg Config) Model {
	return Model{
		cfg:    cfg,
		keymap: DefaultKeyMap(),
		home:   newHomeModel(),
		screen: ScreenHome,
	}
}

// Init requests the start screen. Mounting happens in Update, which receives
// the emitted message on the model bubbletea actually keeps; both start paths
// reuse the transitions the Home menu drives.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnterAltScreen}

	switch m.cfg.StartScreen {
	case ScreenCamera:
		cmds = append(cmds, m.home.requestCamera(m.cfg))
	case ScreenCashFlow:
		cmds = append(cmds, func() tea.Msg { return cashflowEnterMsg{} })
	case ScreenHome:
	}

	return tea.Batch(cmds...)
}

// Update routes messages to the active screen and owns screen transitions.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.ForceQuit):
			return m.quit()
		case key.Matches(msg, m.keymap.Quit):
			// Plain q types into a focused field instead of quitting.
			if !m.captureInput() {
				return m.quit()
			}
		case key.Matches(msg, m.keymap.Back):
			if m.screen != ScreenHome && !m.captureInput() {
				return m.goHome()
			}
		}

	case cameraReadyMsg:
		// Home -> Camera advances only once acquisition succeeded.
		m.home.acquiring = false
		m.home.status = ""
		m.screen = ScreenCamera
		var cmd tea.Cmd
		m.camera, cmd = mountCamera(m.cfg, msg.session)
		return m, cmd

	case cameraErrorMsg:
		m.home.acquiring = false
		m.home.status = cameraErrorText(msg.err)
		return m, nil

	case quitRequestMsg:
		return m.quit()

	case cashflowEnterMsg:
		m.screen = ScreenCashFlow
		var cmd tea.Cmd
		m.cashflow, cmd = mountCashflow(m.cfg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.screen {
	case ScreenHome:
		m.home, cmd = m.home.update(msg, m.keymap, m.cfg)
	case ScreenCamera:
		m.camera, cmd = m.camera.update(msg, m.keymap)
	case ScreenCashFlow:
		m.cashflow, cmd = m.cashflow.update(msg, m.keymap)
	}
	return m, cmd
}

// captureInput reports whether the active screen is in a text-entry mode
// where esc means "cancel the form", not "leave the screen".
func (m Model) captureInput() bool {
	return m.screen == ScreenCashFlow && m.cashflow.mode != modeView
}

// goHome leaves the current screen. Leaving the camera screen stops the
// camera; leaving the cash-flow screen discards its store.
func (m Model) goHome() (tea.Model, tea.Cmd) {
	if m.screen == ScreenCamera {
		m.camera.teardown()
	}
	m.screen = ScreenHome
	m.cashflow = cashflowModel{}
	return m, nil
}

// quit tears the shell down. The camera release here is the final safeguard:
// it runs regardless of which screen is current.
func (m Model) quit() (tea.Model, tea.Cmd) {
	m.camera.teardown()
	if m.cfg.Camera != nil {
		m.cfg.Camera.Release()
	}
	m.quitting = true
	return m, tea.Quit
}
