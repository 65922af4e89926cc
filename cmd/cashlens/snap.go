package main

import (
	"fmt"
	"os"

	"cashlens/internal/cli"
	"cashlens/internal/config"
	"cashlens/internal/model"
	"cashlens/internal/speech"

	"github.com/spf13/cobra"
)

func snapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snap",
		Short: "Capture a single frame and classify it",
		Long: `Grab one frame from the configured frame source (or read a JPEG file
with --input), send it to the classification service, and print the result.`,
		RunE: runSnap,
	}

	cmd.Flags().String("input", "", "classify this JPEG file instead of capturing")

	return cmd
}

func runSnap(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	var frame model.Frame
	input, _ := cmd.Flags().GetString("input")
	if input != "" {
		raw, err := os.ReadFile(config.ExpandPath(input))
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		frame = model.Frame{Data: raw}
	} else {
		manager := newCameraManager(cfg)
		session, err := manager.Acquire(ctx, constraints(cfg))
		if err != nil {
			return err
		}
		defer manager.Release()

		frame, err = session.Capture(ctx)
		if err != nil {
			return err
		}
	}

	client := newPredictor(cfg)
	detection, err := client.Detect(ctx, frame)
	if err != nil {
		fmt.Println(cli.FormatError(err.Error()))
		return err
	}

	announcer := newAnnouncer(cfg)
	if !detection.Detected {
		fmt.Println(cli.RenderBox("Resultado", "Apunte a un billete..."))
		return nil
	}

	readout := fmt.Sprintf("%s\n%d%% de confianza", detection.DisplayLabel(), detection.ConfidencePercent())
	fmt.Println(cli.RenderBox("Resultado", readout))
	announcer.Announce(ctx, speech.DetectionMessage(detection))

	return nil
}
