package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/communityhub/internal/client/cli"
	"github.com/dmitrijs2005/communityhub/internal/client/config"
	"github.com/dmitrijs2005/communityhub/internal/logging"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var rootCmd = &cobra.Command{
	Use:          "hub",
	Short:        "Community hub command-line client",
	Long:         "hub is an interactive client for the community hub: events, discussions, speaker applications and local notifications.",
	SilenceUsage: true,
	RunE:         runREPL,
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())
}

func runREPL(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(cmd.Flags())
	if err != nil {
		return err
	}

	// stdout belongs to the REPL.
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, cli.Options{
		In:             os.Stdin,
		Out:            os.Stdout,
		TerminalAlerts: term.IsTerminal(int(os.Stdin.Fd())),
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error(context.Background(), "shutdown", "error", err)
		}
	}()

	return app.Run(ctx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
