package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/woozymasta/safezone/internal/logger"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string        `short:"c" long:"config"  env:"CONFIG_FILE"  description:"Path to configuration file, built-in defaults if empty"`
	Timeout    time.Duration `short:"t" long:"timeout" env:"HTTP_TIMEOUT" description:"Timeout for http(s) inputs" default:"15s"`
}

var (
	opts   Options
	appCtx = context.Background()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	appCtx = ctx

	parser := flags.NewParser(&opts, flags.Default)
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		opts.Logger.Setup()
		if cmd == nil {
			return nil
		}
		return cmd.Execute(args)
	}

	mustAddCommand(parser, "route", "Rank candidate routes",
		"Scores every candidate route by length, runs shortest path over the merged route graph and recommends the safest route.",
		&routeCommand{})
	mustAddCommand(parser, "zones", "Score locations for unsafe zones",
		"Scores locations with the unsafe zone model, raises one alert per location and aggregates the scores into a heatmap.",
		&zonesCommand{})
	mustAddCommand(parser, "heatmap", "Aggregate scored points into a heatmap",
		"Bins scored points into a grid of cell means, optionally rendered as a WebP image or tile pyramid.",
		&heatmapCommand{})

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
			os.Exit(1)
		}
		log.Error().Err(err).Msg("Command failed")
		stop()
		os.Exit(1)
	}
}

func mustAddCommand(p *flags.Parser, name, short, long string, data any) {
	if _, err := p.AddCommand(name, short, long, data); err != nil {
		panic(err)
	}
}
