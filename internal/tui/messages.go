package tui

import (
	"cashlens/internal/capture"
	"cashlens/internal/scanner"
)

// Camera lifecycle messages.
type cameraReadyMsg struct {
	session *capture.Session
}

type cameraErrorMsg struct {
	err error
}

// Scan loop messages.
type scanResultMsg struct {
	result scanner.Result
}

type scanChannelClosedMsg struct{}

// Cash-flow messages.
type cashflowLoadedMsg struct {
	err error
}

type movementSavedMsg struct {
	err error
}

type scanAddedMsg struct {
	err   error
	label string
}
