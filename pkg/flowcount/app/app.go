package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"

	"github.com/netsampler/flowcount/errlog"
	"github.com/netsampler/flowcount/flowlog"
	"github.com/netsampler/flowcount/format"
	"github.com/netsampler/flowcount/metrics"
	"github.com/netsampler/flowcount/orchestrator"
	"github.com/netsampler/flowcount/pkg/flowcount/builder"
	"github.com/netsampler/flowcount/pkg/flowcount/config"
	"github.com/netsampler/flowcount/pkg/flowcount/logging"
)

var (
	ErrMissingMandatoryFile = errors.New("missing mandatory file")
	ErrOutput               = errors.New("cannot write output")
)

// App wires and runs a single counting run.
type App struct {
	cfg     *config.Config
	logger  *log.Logger
	metrics *metrics.Run
}

// New constructs a new App from config.
func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFmt, nil)
	if err != nil {
		return nil, err
	}
	return &App{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewRun(),
	}, nil
}

// Logger returns the application logger.
func (a *App) Logger() *log.Logger {
	return a.logger
}

// Run loads the reference tables, counts the flow log and writes the report.
// Missing mandatory inputs and output failures are returned, nothing is
// written in that case. Other problems are recorded in the error file.
func (a *App) Run(ctx context.Context) error {
	tm := metrics.TimeMeasureNow()

	sink := errlog.Open(a.cfg.ErrorsPath, errlog.Options{
		Echo:         a.logger,
		MuteCount:    a.cfg.ErrCnt,
		MuteInterval: a.cfg.ErrInt,
	})
	defer func() {
		if err := sink.Close(); err != nil {
			a.logger.WithError(err).Error("error closing error file")
		}
	}()

	formatter, err := builder.BuildFormatter(a.cfg.Format)
	if err != nil {
		return err
	}

	a.logger.WithField("path", a.cfg.ProtocolsPath).Info("loading protocol numbers and names")
	resolver, err := builder.BuildResolver(a.cfg.ProtocolsPath)
	if err != nil {
		sink.Report(err)
		return fmt.Errorf("%w: %w", ErrMissingMandatoryFile, err)
	}
	a.metrics.ReferenceEntries("protocols", resolver.Len())

	table, err := builder.BuildLookup(a.cfg.LookupPath, a.logger)
	switch {
	case err != nil:
		sink.Report(fmt.Errorf("missing lookup table, only port/protocol combinations are counted: %w", err))
		table = nil
	case table == nil:
		a.logger.Info("no lookup table configured, only port/protocol combinations are counted")
	default:
		a.logger.WithFields(log.Fields{
			"path":    a.cfg.LookupPath,
			"entries": table.Len(),
		}).Info("loaded lookup table")
		a.metrics.ReferenceEntries("lookup", table.Len())
	}

	orch := orchestrator.New(resolver, table)
	a.logger.WithField("mode", orch.Mode().String()).Debug("orchestrator ready")

	proc := &flowlog.Processor{
		Records: orch,
		Sink:    sink,
		Logger:  a.logger,
		Metrics: a.metrics,
	}
	a.logger.WithField("path", a.cfg.FlowLogPath).Info("processing flow log")
	if _, err := proc.RunFile(ctx, a.cfg.FlowLogPath); err != nil {
		if errors.Is(err, flowlog.ErrOpen) {
			sink.Report(err)
			return fmt.Errorf("%w: %w", ErrMissingMandatoryFile, err)
		}
		return err
	}

	rs := orch.Finalize()
	a.metrics.ResultEntries("tags", len(rs.Tags))
	a.metrics.ResultEntries("port_protocols", len(rs.PortProtocols))

	size, err := a.write(formatter, rs)
	if err != nil {
		sink.Report(err)
		return err
	}
	a.logger.WithFields(log.Fields{
		"transport": a.cfg.Transport,
		"path":      a.cfg.OutputPath,
		"size":      humanize.Bytes(uint64(size)),
		"elapsed":   humanize.RelTime(tm.Start(), time.Now(), "", ""),
	}).Info("output written")

	a.metrics.Done(tm)
	a.exportMetrics()
	return nil
}

func (a *App) write(formatter format.FormatInterface, rs orchestrator.ResultSet) (int, error) {
	key, payload, err := formatter.Format(rs)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrOutput, err)
	}

	tr, err := builder.BuildTransport(a.cfg.Transport, a.cfg.OutputPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrOutput, err)
	}
	if err := tr.Deliver(key, payload); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrOutput, err)
	}
	return len(payload), nil
}

func (a *App) exportMetrics() {
	if a.cfg.MetricsTextfile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.MetricsTextfile); err != nil {
			a.logger.WithError(err).Warn("error writing metrics")
		}
	}
	if a.cfg.MetricsPush != "" {
		if err := a.metrics.Push(a.cfg.MetricsPush); err != nil {
			a.logger.WithError(err).Warn("error pushing metrics")
		}
	}
}
