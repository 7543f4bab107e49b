package main

import (
	"github.com/sangkips/quickbill-api/internal/config"
	"github.com/spf13/cobra"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	serve := newServeCmd(cfg)

	rootCmd := &cobra.Command{
		Use:   "quickbill-api",
		Short: "Invoicing API for freelancers and small businesses",
		Long: `QuickBill keeps clients, invoices and estimates, emails invoices as PDF attachments
and tracks them from draft to paid. Running without a subcommand starts the HTTP server.`,
		SilenceUsage: true,
		RunE:         serve.RunE,
	}

	rootCmd.AddCommand(
		serve,
		newMigrateCmd(cfg),
		newSweepCmd(cfg),
	)

	return rootCmd
}
