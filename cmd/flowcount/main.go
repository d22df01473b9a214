package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	// various formatters
	_ "github.com/netsampler/flowcount/format/csv"
	_ "github.com/netsampler/flowcount/format/json"

	// various transports
	_ "github.com/netsampler/flowcount/transport/file"
	_ "github.com/netsampler/flowcount/transport/kafka"
	_ "github.com/netsampler/flowcount/transport/nats"
	_ "github.com/netsampler/flowcount/transport/sqlite"

	"github.com/netsampler/flowcount/pkg/flowcount/app"
	"github.com/netsampler/flowcount/pkg/flowcount/config"
)

var (
	version    = ""
	buildinfos = ""
	AppVersion = "FlowCount " + version + " " + buildinfos
)

func main() {
	cfg := config.BindFlags(flag.CommandLine)
	flag.Parse()

	if cfg.Version {
		fmt.Println(AppVersion)
		os.Exit(0)
	}

	if err := config.ApplyFile(flag.CommandLine, cfg); err != nil {
		log.WithError(err).Fatal("error loading configuration")
	}

	a, err := app.New(cfg)
	if err != nil {
		if errors.Is(err, config.ErrMissingSetting) {
			fmt.Fprintln(os.Stderr, err)
			flag.Usage()
			os.Exit(2)
		}
		log.WithError(err).Fatal("error creating app")
	}
	logger := a.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithField("version", AppVersion).Info("starting FlowCount")
	if err := a.Run(ctx); err != nil {
		stop()
		logger.WithError(err).Error("run failed")
		os.Exit(1)
	}
	logger.Info("done")
}
