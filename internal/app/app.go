// Package app wires CLI commands to the daemon, helpers, and diagnostics.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"

	"github.com/tmarcher/maskd/internal/cli"
	"github.com/tmarcher/maskd/internal/config"
	"github.com/tmarcher/maskd/internal/daemon"
	"github.com/tmarcher/maskd/internal/doctor"
	"github.com/tmarcher/maskd/internal/helper"
	"github.com/tmarcher/maskd/internal/logging"
	"github.com/tmarcher/maskd/internal/predict"
	"github.com/tmarcher/maskd/internal/session"
	"github.com/tmarcher/maskd/internal/shm"
	"github.com/tmarcher/maskd/internal/version"
)

type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	r := Runner{Stdin: stdin, Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("maskd"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("maskd"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		fmt.Fprintf(r.Stderr, "warning: %s\n", w.Message)
		logger.Warn("config warning", "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandServe:
		return r.commandServe(ctx, cfgLoaded.Config, logger)
	case cli.CommandDecode:
		return r.commandDecode(parsed.ImagePath, cfgLoaded.Config, logger)
	case cli.CommandEncode:
		return r.commandEncode(parsed.ImagePath, cfgLoaded.Config, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// commandServe runs the worker daemon until the control connection closes.
func (r Runner) commandServe(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	predictor := predict.NewRegion(predict.RegionConfig{
		Threshold:     cfg.Predictor.Threshold,
		BlurRadius:    cfg.Predictor.BlurRadius,
		MaxRegionFrac: cfg.Predictor.MaxRegionFrac,
	})

	dispatcher := daemon.NewDispatcher(logger, shm.New(cfg.SHM.Dir), session.New(), predictor)
	dispatcher.SetLogCommands(cfg.Debug.LogCommands)

	listener, err := net.Listen("tcp", cfg.Listen.Addr())
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: listen %s: %v\n", cfg.Listen.Addr(), err)
		logger.Error("listen failed", "addr", cfg.Listen.Addr(), "error", err.Error())
		return 1
	}

	logger.Info("worker listening", "addr", cfg.Listen.Addr())
	if err := daemon.New(logger, dispatcher).Serve(ctx, listener); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("serve failed", "error", err.Error())
		return 1
	}

	logger.Info("worker exiting")
	return 0
}

// commandDecode runs the one-shot decode helper on stdio.
func (r Runner) commandDecode(imagePath string, cfg config.Config, logger *slog.Logger) int {
	if err := helper.Decode(imagePath, r.Stdin, r.Stdout, shm.New(cfg.SHM.Dir)); err != nil {
		logger.Error("decode helper failed", "image", imagePath, "error", err.Error())
		return r.helperFailure(err)
	}
	return 0
}

// commandEncode runs the one-shot encode helper on stdio.
func (r Runner) commandEncode(imagePath string, cfg config.Config, logger *slog.Logger) int {
	if err := helper.Encode(imagePath, r.Stdin, r.Stdout, shm.New(cfg.SHM.Dir)); err != nil {
		logger.Error("encode helper failed", "image", imagePath, "error", err.Error())
		return r.helperFailure(err)
	}
	return 0
}

// helperFailure reports a helper error on the stdio channel the host reads.
func (r Runner) helperFailure(err error) int {
	_ = json.NewEncoder(r.Stdout).Encode(map[string]string{
		"status": "error",
		"error":  err.Error(),
	})
	return 1
}
