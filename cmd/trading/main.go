package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/econicmedia/bot-sub001/internal/config"
	"github.com/econicmedia/bot-sub001/internal/logger"
	"github.com/econicmedia/bot-sub001/internal/version"
)

const shutdownTimeout = 15 * time.Second

func runAction(ctx context.Context, cmd *cli.Command) error {
	settings, err := config.Load(cmd.String("config"), cmd.String("env-file"))
	if err != nil {
		return err
	}

	if mode := cmd.String("mode"); mode != "" {
		settings.Mode = config.TradingMode(mode)
	}

	if addr := cmd.String("addr"); addr != "" {
		settings.Server.Addr = addr
	}

	if err := settings.Validate(); err != nil {
		return err
	}

	lg, err := logger.NewLoggerWithLevel(settings.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	defer func() { _ = lg.Sync() }()

	bot, err := newApp(settings, lg)
	if err != nil {
		return err
	}

	if err := bot.server.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	lg.Info("Bot started",
		zap.String("version", version.GetVersion()),
		zap.String("mode", string(settings.Mode)),
		zap.Strings("symbols", settings.Symbols),
		zap.String("timeframe", string(settings.Timeframe)),
		zap.String("gateway", bot.gateway.Name()),
		zap.String("api", bot.server.Addr()),
	)

	if !cmd.Bool("no-autostart") {
		if err := bot.engine.Start(ctx); err != nil {
			lg.Error("Engine failed to start", zap.Error(err))
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	lg.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := bot.engine.Stop(shutdownCtx); err != nil {
		lg.Debug("Engine stop", zap.Error(err))
	}

	if err := bot.server.Shutdown(shutdownCtx); err != nil {
		lg.Warn("API server shutdown failed", zap.Error(err))
	}

	status := bot.engine.Status()
	lg.Info("Bot stopped",
		zap.Int("trades", status.Stats.TradeResult.NumberOfTrades),
		zap.Float64("equity", status.Account.Equity),
		zap.Float64("realized_pnl", status.Account.RealizedPnL),
	)

	return nil
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	schema, err := config.JSONSchema()
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.Root().Writer, schema)

	return err
}

func versionAction(_ context.Context, cmd *cli.Command) error {
	_, err := fmt.Fprintln(cmd.Root().Writer, version.GetVersion())

	return err
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "bot",
		Usage: "Market structure trading bot",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the trading engine and the HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to the settings `FILE` (YAML)",
					},
					&cli.StringFlag{
						Name:  "env-file",
						Usage: "Path to a .env file with secrets",
						Value: ".env",
					},
					&cli.StringFlag{
						Name:    "mode",
						Aliases: []string{"m"},
						Usage:   fmt.Sprintf("Trading mode (%s or %s), overrides the settings file", config.TradingModePaper, config.TradingModeLive),
					},
					&cli.StringFlag{
						Name:  "addr",
						Usage: "API listen address, overrides the settings file",
					},
					&cli.BoolFlag{
						Name:  "no-autostart",
						Usage: "Serve the API without starting the engine",
					},
				},
				Action: runAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the settings file",
				Action: schemaAction,
			},
			{
				Name:   "version",
				Usage:  "Print the version",
				Action: versionAction,
			},
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
