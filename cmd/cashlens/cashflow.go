package main

import (
	"cashlens/internal/config"
	"cashlens/internal/tui"

	"github.com/spf13/cobra"
)

func cashflowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cashflow",
		Short: "Manage the cash box",
		Long:  `Open the cash box screen: balance, banknote breakdown, and movement history.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), shellConfig(cfg, tui.ScreenCashFlow))
		},
	}
}
