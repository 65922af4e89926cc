package tui

import (
	"context"
	"strings"

	"cashlens/internal/capture"
	"cashlens/internal/common"
	"cashlens/internal/model"
	"cashlens/internal/scanner"
	"cashlens/internal/service"
	"cashlens/internal/speech"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
)

// scanPrompt is shown whenever there is no detection and no error.
const scanPrompt = "Apunte a un billete..."

// cameraModel is the live scanning screen. It holds at most one of a
// detection or an error message; setting either clears the other.
type cameraModel struct {
	session   *capture.Session
	loop      *scanner.Loop
	announcer service.Announcer
	cashflow  service.CashFlowAPI
	results   chan scanner.Result
	done      chan struct{}
	detection *model.Detection
	errMsg    string
	notice    string
	torn      bool
}

// mountCamera starts the continuous scan loop over an acquired session.
func mountCamera(cfg Config, session *capture.Session) (cameraModel, tea.Cmd) {
	results := make(chan scanner.Result, 1)
	done := make(chan struct{})

	detector := scanner.NewDetector(cfg.Predictor, cfg.Threshold)
	loop := scanner.NewLoop(session, detector, cfg.ScanInterval, func(r scanner.Result) {
		// Drop results the UI has not consumed yet; a fresher one is coming.
		select {
		case results <- r:
		default:
		}
	})
	loop.Start(context.Background())

	c := cameraModel{
		session:   session,
		loop:      loop,
		announcer: cfg.Announcer,
		cashflow:  cfg.CashFlow,
		results:   results,
		done:      done,
	}
	return c, waitForScan(results, done)
}

// waitForScan blocks until the loop delivers a result or the screen is torn
// down.
func waitForScan(results chan scanner.Result, done chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case r := <-results:
			return scanResultMsg{result: r}
		case <-done:
			return scanChannelClosedMsg{}
		}
	}
}

func (c cameraModel) update(msg tea.Msg, keymap KeyMap) (cameraModel, tea.Cmd) {
	switch msg := msg.(type) {
	case scanResultMsg:
		c = c.applyResult(msg.result)
		return c, waitForScan(c.results, c.done)

	case scanChannelClosedMsg:
		return c, nil

	case scanAddedMsg:
		if msg.err != nil {
			c.errMsg = common.UserMessage(msg.err)
			c.detection = nil
		} else {
			c.notice = "Billete de " + msg.label + " agregado a la caja"
			c.detection = nil
			c.errMsg = ""
		}
		return c, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keymap.Select):
			// Continue/retry: clear whatever is held and keep scanning.
			c.detection = nil
			c.errMsg = ""
			c.notice = ""
		case key.Matches(msg, keymap.ToCash):
			if c.detection != nil && c.cashflow != nil {
				return c, c.addToCashBox(*c.detection)
			}
		}
	}
	return c, nil
}

// applyResult folds one scan cycle into the screen state, announcing
// transitions into a detection or an error.
func (c cameraModel) applyResult(r scanner.Result) cameraModel {
	if r.Err != nil {
		message := common.UserMessage(r.Err)
		if c.errMsg != message {
			c.announce(scannerErrorText(message))
		}
		c.errMsg = message
		c.detection = nil
		return c
	}

	if !r.Detection.Detected {
		c.detection = nil
		c.errMsg = ""
		return c
	}

	if c.detection == nil || c.detection.Label != r.Detection.Label {
		c.announce(detectionText(r.Detection))
	}
	detection := r.Detection
	c.detection = &detection
	c.errMsg = ""
	return c
}

func (c cameraModel) announce(text string) {
	if c.announcer != nil {
		c.announcer.Announce(context.Background(), text)
	}
}

// addToCashBox credits the scanned banknote to the cash box.
func (c cameraModel) addToCashBox(d model.Detection) tea.Cmd {
	return func() tea.Msg {
		value, err := denominationValue(d.Label)
		if err != nil {
			return scanAddedMsg{err: err}
		}
		if _, err := c.cashflow.AddFromScan(context.Background(), value); err != nil {
			return scanAddedMsg{err: err}
		}
		return scanAddedMsg{label: d.DisplayLabel()}
	}
}

// denominationValue extracts the face value from a label like "500_pesos".
func denominationValue(label string) (decimal.Decimal, error) {
	raw, _, _ := strings.Cut(label, "_")
	value, err := decimal.NewFromString(raw)
	if err != nil || value.LessThanOrEqual(decimal.Zero) {
		return decimal.Decimal{}, common.NewUserError("el billete detectado no tiene un valor conocido", err)
	}
	return value, nil
}

// teardown stops the scan loop and releases the session. Safe to call more
// than once and on a zero model.
func (c *cameraModel) teardown() {
	if c.torn {
		return
	}
	c.torn = true

	if c.loop != nil {
		c.loop.Stop()
	}
	if c.session != nil {
		c.session.Release()
	}
	if c.done != nil {
		close(c.done)
	}
}

// detectionText is the spoken and displayed announcement for a detection.
func detectionText(d model.Detection) string {
	return speech.DetectionMessage(d)
}

// scannerErrorText is the spoken announcement for a scan failure.
func scannerErrorText(message string) string {
	return speech.ErrorMessage(message)
}
