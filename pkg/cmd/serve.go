package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yeisme/kitvault/pkg/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the import API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		a, err := app.NewApp(ctx)
		if err != nil {
			return err
		}

		return a.Run(ctx)
	},
}

func registerServeCommands() {
	rootCmd.AddCommand(serveCmd)
}
