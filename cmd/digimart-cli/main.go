package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"digimart/internal/cli"
	applog "digimart/internal/log"
)

var (
	version = "dev"
	logger  *applog.Logger
	rootCmd = &cobra.Command{
		Use:   "digimart-cli",
		Short: "DigiMart orders reports from the command line",
		Long: `digimart-cli prints the DigiMart orders report for a date range and
imports the cleaned order history into the SQLite or MySQL store the
dashboard can serve from.`,
		SilenceUsage:      true,
		PersistentPreRunE: initLogging,
	}
)

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(sheetsAuthCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initLogging(cmd *cobra.Command, _ []string) error {
	cli.LoadEnvFile()
	level, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return err
	}
	logger = cli.SetupLogger(level, cmd.ErrOrStderr()).WithComponent(applog.ComponentCLI)
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "digimart-cli %s\n", version)
		},
	}
}
