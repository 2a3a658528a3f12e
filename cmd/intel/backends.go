package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List known back-ends and their authentication state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		registry := newRegistry(cfg, logger)
		for _, b := range registry.List() {
			state := "not authenticated"
			if b.IsAuthenticated() {
				state = "authenticated"
			}
			marker := " "
			if b.Name() == cfg.Backends.Primary {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %-8s %s\n", marker, b.Name(), state)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backendsCmd)
}
