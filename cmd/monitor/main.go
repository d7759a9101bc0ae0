package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"
)

func monitorAction(_ context.Context, cmd *cli.Command) error {
	interval := cmd.Duration("interval")
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}

	p := tea.NewProgram(NewModel(cmd.String("api"), interval), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("monitor failed: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "monitor",
		Usage: "Watch a running trading bot through its HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Aliases: []string{"a"},
				Usage:   "Bot API address; prompts when empty",
				Sources: cli.EnvVars("BOT_API_ADDR"),
			},
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Polling interval",
				Value:   time.Second,
			},
		},
		Action: monitorAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
