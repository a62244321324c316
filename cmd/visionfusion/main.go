// Package main runs the vision fusion service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.viam.com/utils"

	"github.com/robotloc/visionfusion/config"
	"github.com/robotloc/visionfusion/detection"
	"github.com/robotloc/visionfusion/fusion"
	"github.com/robotloc/visionfusion/logging"
	"github.com/robotloc/visionfusion/messaging"
)

const (
	flagConfig = "config"
	flagDebug  = "debug"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	var logger logging.Logger
	configFlag := &cli.StringFlag{
		Name:     flagConfig,
		Aliases:  []string{"c"},
		Usage:    "load configuration from `FILE`",
		Required: true,
	}

	return &cli.App{
		Name:  "visionfusion",
		Usage: "fuse vision pose estimates for robot localization",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger = logging.NewDebugLogger("visionfusion")
			} else {
				logger = logging.NewLogger("visionfusion")
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if logger != nil {
				utils.UncheckedError(logger.Sync())
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the fusion loop until interrupted",
				Flags: []cli.Flag{configFlag},
				Action: func(c *cli.Context) error {
					return runCommand(c, logger)
				},
			},
			{
				Name:  "validate",
				Usage: "load and validate a config, then print it with defaults applied",
				Flags: []cli.Flag{configFlag},
				Action: func(c *cli.Context) error {
					cfg, err := config.Read(c.Context, c.String(flagConfig), logger)
					if err != nil {
						return err
					}
					out, err := json.MarshalIndent(cfg, "", "  ")
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, string(out))
					return nil
				},
			},
			{
				Name:      "mode",
				Usage:     "select the detection camera's pipeline",
				ArgsUsage: "<tag|range_primary|range_secondary|ml>",
				Flags:     []cli.Flag{configFlag},
				Action: func(c *cli.Context) error {
					return modeCommand(c, logger)
				},
			},
		},
	}
}

// connect returns a broker client when messaging is configured, or an in-process loopback.
func connect(ctx context.Context, cfg *config.Config, logger logging.Logger) (messaging.Transport, func(), error) {
	if cfg.Messaging == nil {
		logger.Warn("no messaging configured; camera values will not arrive")
		return messaging.NewLoopback(), func() {}, nil
	}
	client := messaging.NewClient(messaging.Options{
		Broker:         cfg.Messaging.Broker,
		ClientID:       cfg.Messaging.ClientID,
		QoS:            byte(cfg.Messaging.QoS),
		PublishTimeout: cfg.Messaging.PublishTimeout,
	}, logger.Sublogger("mqtt"))
	if err := client.Connect(ctx); err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

func runCommand(c *cli.Context, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Read(ctx, c.String(flagConfig), logger)
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.Level())
	if c.Bool(flagDebug) {
		logger.SetLevel(logging.DEBUG)
	}
	if cfg.LogFile != "" {
		file := logging.NewFileAppender(cfg.LogFile)
		defer utils.UncheckedErrorFunc(file.Close)
		logger.AddAppender(file)
	}

	transport, closeTransport, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeTransport()

	clk := clock.New()
	sys, err := newSystem(cfg, transport, clk, logger)
	if err != nil {
		return err
	}
	if err := sys.start(); err != nil {
		return err
	}

	runner := fusion.NewRunner(sys.service, cfg.Period, clk, logger)
	logger.Infow("vision fusion running", "period", cfg.Period, "mode", sys.controller.Mode())
	<-ctx.Done()
	runner.Close()
	logger.Info("vision fusion stopped")
	return nil
}

func modeCommand(c *cli.Context, logger logging.Logger) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one mode argument")
	}
	mode, err := detection.ModeFromString(c.Args().First())
	if err != nil {
		return err
	}
	cfg, err := config.Read(c.Context, c.String(flagConfig), logger)
	if err != nil {
		return err
	}
	if cfg.Messaging == nil {
		return errors.New("selecting a pipeline requires a messaging config")
	}
	// reusing the service's client id would disconnect the running service
	cfg.Messaging.ClientID = ""

	transport, closeTransport, err := connect(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	defer closeTransport()

	selectPipeline(transport, cfg.Messaging.TopicPrefix, cfg.Limelight.Name, mode, logger)
	fmt.Fprintf(c.App.Writer, "selected %s (pipeline %d)\n", mode, mode.Pipeline())
	return nil
}
