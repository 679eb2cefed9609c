// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// beamer is the liquidity-provider agent for one chain pair of the bridge.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/exp/slog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/0xLogan-x/beamer/agent"
	"github.com/0xLogan-x/beamer/agent/config"
)

const clientIdentifier = "beamer"

var (
	configFlag = &cli.StringFlag{
		Name:     "config",
		Usage:    "Path to the agent configuration file",
		Required: true,
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level (debug, info, warn, error)",
	}
	logFileFlag = &cli.StringFlag{
		Name:  "log-file",
		Usage: "Write rotated JSON logs to this file instead of stderr",
	}
	metricsFlag = &cli.StringFlag{
		Name:  "metrics-address",
		Usage: "Listen address for Prometheus metrics (empty disables)",
	}

	app = &cli.App{
		Name:   clientIdentifier,
		Usage:  "Bridge liquidity-provider agent",
		Flags:  []cli.Flag{configFlag, logLevelFlag, logFileFlag, metricsFlag},
		Action: run,
	}
)

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	cfg, err := config.Load(ctx.String(configFlag.Name))
	if err != nil {
		return err
	}
	if ctx.IsSet(logLevelFlag.Name) {
		cfg.LogLevel = ctx.String(logLevelFlag.Name)
	}
	if ctx.IsSet(logFileFlag.Name) {
		cfg.LogFile = ctx.String(logFileFlag.Name)
	}
	if ctx.IsSet(metricsFlag.Name) {
		cfg.MetricsAddress = ctx.String(metricsFlag.Name)
	}
	setupLogging(cfg)

	runCtx, stop := signal.NotifyContext(ctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := agent.New(runCtx, cfg)
	if err != nil {
		return err
	}
	return a.Run(runCtx)
}

func setupLogging(cfg *config.Config) {
	level := logLevel(cfg.LogLevel)
	var handler slog.Handler
	switch {
	case cfg.LogFile != "":
		writer := &lumberjack.Logger{Filename: cfg.LogFile, MaxSize: 100, MaxBackups: 10}
		handler = slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level})
	case cfg.LogJSON:
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	default:
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, level, true)
	}
	log.SetDefault(log.NewLogger(handler))
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return log.LevelDebug
	case "warn":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}
