package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/andikarp/keranjang/internal/common/constants"
	"github.com/andikarp/keranjang/internal/log"
)

func Start() {
	logger := log.InitLogger("/var/log/keranjang.log").
		With().
		Str(log.KeyAppName, constants.AppCartService).
		Str(log.KeyTag, "main Start").
		Logger()

	logger.Info().Msg("adding listener for SIGINT and SIGTERM")
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().Msg("added listener for SIGINT and SIGTERM")

	c = logger.WithContext(c)

	rootCmd := &cobra.Command{Use: "keranjang"}
	commands := []*cobra.Command{
		{
			Use:   "server",
			Short: "Run cart service",
			Run: func(cmd *cobra.Command, args []string) {
				RunCartService(cmd.Context())
			},
		},
		{
			Use:   "sweeper",
			Short: "Run expired cart sweeper",
			Run: func(cmd *cobra.Command, args []string) {
				RunCartSweeper(cmd.Context())
			},
		},
	}
	rootCmd.AddCommand(commands...)
	if err := rootCmd.ExecuteContext(c); err != nil {
		logger.Fatal().Err(err).Msgf("error when executing command=%s", err.Error())
	}
}
