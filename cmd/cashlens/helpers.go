package main

import (
	"cashlens/internal/capture"
	"cashlens/internal/cashflow"
	"cashlens/internal/config"
	"cashlens/internal/predict"
	"cashlens/internal/service"
	"cashlens/internal/speech"
	"cashlens/internal/tui"
)

// newCameraManager builds the camera manager for the configured frame source.
func newCameraManager(cfg *config.Config) *capture.Manager {
	switch cfg.Capture.Source {
	case "directory":
		dir := cfg.Capture.Directory
		return capture.NewManager(func() service.Device {
			return capture.NewDirectorySource(dir)
		})
	default:
		command := cfg.Capture.Command
		return capture.NewManager(func() service.Device {
			return capture.NewCommandSource(command)
		})
	}
}

func constraints(cfg *config.Config) service.Constraints {
	return service.Constraints{
		Facing:      service.Facing(cfg.Capture.Facing),
		IdealWidth:  cfg.Capture.IdealWidth,
		IdealHeight: cfg.Capture.IdealHeight,
	}
}

func newPredictor(cfg *config.Config) *predict.Client {
	return predict.NewClient(predict.Config{
		BaseURL:   cfg.BaseURL,
		Threshold: cfg.ConfidenceThreshold,
	})
}

func newAnnouncer(cfg *config.Config) service.Announcer {
	return speech.NewAnnouncer(speech.Config{
		Enabled:  cfg.Speech.Enabled,
		Command:  cfg.Speech.Command,
		Language: cfg.Speech.Language,
	})
}

// shellConfig wires the full TUI from the resolved configuration.
func shellConfig(cfg *config.Config, start tui.Screen) tui.Config {
	return tui.Config{
		Camera:       newCameraManager(cfg),
		Predictor:    newPredictor(cfg),
		Announcer:    newAnnouncer(cfg),
		CashFlow:     cashflow.NewClient(cashflow.Config{BaseURL: cfg.BaseURL}),
		Constraints:  constraints(cfg),
		Threshold:    cfg.ConfidenceThreshold,
		ScanInterval: cfg.ScanInterval,
		StartScreen:  start,
	}
}
