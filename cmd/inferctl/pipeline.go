package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/edgeinfer/internal/classify"
	"github.com/danmuck/edgeinfer/internal/config"
	"github.com/danmuck/edgeinfer/internal/console"
	"github.com/danmuck/edgeinfer/internal/link"
	"github.com/danmuck/edgeinfer/internal/observability"
	"github.com/danmuck/edgeinfer/internal/record"
	"github.com/danmuck/edgeinfer/internal/session"
)

// openPort is replaced in tests with an in-memory device.
var openPort = func(ctx context.Context, cfg link.Config) (link.Port, error) {
	p, err := link.OpenWithRetry(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// execute owns one port and one pair of outputs for the lifetime of a
// session, printing progress to out as it arrives.
func execute(
	ctx context.Context,
	cfg config.Config,
	opts *options,
	src io.Reader,
	out io.Writer,
	extra ...session.Option,
) (session.Summary, error) {
	printer := console.NewPrinter(out, opts.noColor || color.NoColor)
	if opts.report != "" {
		report, err := os.Create(opts.report)
		if err != nil {
			return session.Summary{}, fmt.Errorf("open report: %w", err)
		}
		defer report.Close()
		printer.WithReport(report)
	}

	port, err := openPort(ctx, cfg.LinkConfig())
	if err != nil {
		return session.Summary{}, err
	}
	files, err := classify.OpenFiles(cfg.NormalOutput, cfg.AnomalyOutput, cfg.AppendOutputs)
	if err != nil {
		_ = port.Close()
		return session.Summary{}, err
	}
	defer func() {
		if err := files.Close(); err != nil {
			log.Warn().Err(err).Msg("close outputs")
		}
	}()

	sessCfg := cfg.SessionConfig()
	sess := session.New(port, files.Router(), sessCfg,
		append([]session.Option{session.WithPortName(cfg.Port)}, extra...)...)
	log.Info().Str("session_id", sess.ID()).Str("config", cfg.Summary()).Msg("session starting")

	w := session.Start(ctx, sess, record.NewReader(src, sessCfg.FieldCount), cfg.ProgressBuffer)
	if cfg.MetricsAddr != "" {
		srvCtx, stop := context.WithCancel(ctx)
		defer stop()
		go func() {
			status := func() any { return w.Session().Status() }
			if err := observability.Serve(srvCtx, cfg.MetricsAddr, "inferctl", status); err != nil {
				log.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("status server failed")
			}
		}()
	}

	for d := range w.Progress() {
		if err := printer.Print(d); err != nil {
			log.Warn().Err(err).Msg("print diagnostic")
		}
	}
	res := <-w.Done()
	return res.Summary, res.Err
}
