// Package speech provides voice announcements through an external speaker
// command. When no speech capability is present, announcements are silently
// skipped; scanning never depends on them.
package speech

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"

	"cashlens/internal/model"
	"cashlens/internal/service"
)

// Config configures the announcer.
type Config struct {
	// Command overrides speaker autodetection.
	Command  string
	Language string
	Enabled  bool
}

// speakers are tried in order when no command is configured.
var speakers = []string{"espeak-ng", "espeak", "say"}

// NewAnnouncer resolves a speaker for the host system. The result is a
// no-op announcer when speech is disabled or no speaker binary exists.
func NewAnnouncer(cfg Config) service.Announcer {
	if !cfg.Enabled {
		return noopAnnouncer{}
	}

	candidates := speakers
	if cfg.Command != "" {
		candidates = []string{cfg.Command}
	}

	for _, candidate := range candidates {
		path, err := exec.LookPath(candidate)
		if err != nil {
			continue
		}
		return &commandAnnouncer{
			name:     candidate,
			path:     path,
			language: cfg.Language,
		}
	}

	slog.Debug("No speech synthesizer found, announcements disabled")
	return noopAnnouncer{}
}

// commandAnnouncer speaks by running a synthesizer binary.
type commandAnnouncer struct {
	name     string
	path     string
	language string
}

// Available reports that announcements will be spoken.
func (a *commandAnnouncer) Available() bool { return true }

// Announce speaks the text without blocking the caller. Synthesis failures
// are logged and otherwise ignored.
func (a *commandAnnouncer) Announce(ctx context.Context, text string) {
	var args []string
	switch a.name {
	case "espeak-ng", "espeak":
		if a.language != "" {
			args = append(args, "-v", a.language)
		}
	}
	args = append(args, text)

	cmd := exec.CommandContext(ctx, a.path, args...)
	go func() {
		if err := cmd.Run(); err != nil && ctx.Err() == nil {
			slog.Debug("Speech synthesis failed", "speaker", a.name, "error", err)
		}
	}()
}

type noopAnnouncer struct{}

func (noopAnnouncer) Available() bool                      { return false }
func (noopAnnouncer) Announce(_ context.Context, _ string) {}

// DetectionMessage formats the spoken announcement for a detected banknote.
func DetectionMessage(d model.Detection) string {
	return fmt.Sprintf("Billete detectado: %s con %d por ciento de confianza", d.DisplayLabel(), d.ConfidencePercent())
}

// ErrorMessage formats the spoken announcement for a failure.
func ErrorMessage(message string) string {
	return fmt.Sprintf("Error: %s", message)
}
