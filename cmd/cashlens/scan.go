package main

import (
	"cashlens/internal/config"
	"cashlens/internal/tui"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan banknotes continuously with the camera",
		Long: `Open the camera screen and classify frames on a fixed interval.
A new cycle is skipped while the previous one is still in flight, so at most
one classification request is ever outstanding.`,
		RunE: runScan,
	}

	cmd.Flags().Duration("interval", 0, "time between scan cycles (default 1.5s)")
	cmd.Flags().Float64("threshold", 0, "minimum confidence for a detection (default 0.85)")

	_ = viper.BindPFlag("scan.interval", cmd.Flags().Lookup("interval"))
	_ = viper.BindPFlag("scan.confidence_threshold", cmd.Flags().Lookup("threshold"))

	return cmd
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	return tui.Run(cmd.Context(), shellConfig(cfg, tui.ScreenCamera))
}
