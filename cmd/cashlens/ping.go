package main

import (
	"fmt"

	"cashlens/internal/cli"
	"cashlens/internal/config"

	"github.com/spf13/cobra"
)

func pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the classification service is reachable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			client := newPredictor(cfg)
			if err := client.Ping(cmd.Context()); err != nil {
				fmt.Println(cli.FormatError("Classification service is not reachable"))
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Classification service is reachable at %s", cfg.BaseURL)))
			return nil
		},
	}
}
