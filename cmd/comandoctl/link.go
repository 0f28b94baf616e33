package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/comando/internal/config"
	"github.com/danmuck/comando/internal/observability"
	"github.com/danmuck/comando/internal/protocol/command"
	"github.com/danmuck/comando/internal/protocol/event"
	"github.com/danmuck/comando/internal/protocol/frame"
	"github.com/danmuck/comando/internal/protocol/router"
	"github.com/danmuck/comando/internal/stream"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// openStream is replaced in tests.
var openStream = stream.Open

// link is one open stream with the full protocol stack on top.
type link struct {
	conn    io.Closer
	router  *router.Router
	cmd     *command.Protocol
	events  *event.Manager
	logger  zerolog.Logger
	session string
	metrics *http.Server

	// stopWatch releases the ctx watcher that closes conn on cancel.
	stopWatch func() bool
}

func (o *rootOptions) load() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.metricsListen != "" {
		cfg.MetricsListen = o.metricsListen
	}
	return cfg, nil
}

func openLink(ctx context.Context, cfg config.Config) (*link, error) {
	table, err := cfg.Table()
	if err != nil {
		return nil, err
	}
	conn, err := openStream(ctx, cfg.Stream)
	if err != nil {
		return nil, err
	}
	l, err := newLink(conn, cfg, table)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	// closing the stream is the only way to end a blocked read
	l.stopWatch = context.AfterFunc(ctx, func() {
		l.logger.Info().Err(context.Cause(ctx)).Msg("link interrupted")
		_ = conn.Close()
	})
	return l, nil
}

func newLink(conn io.ReadWriteCloser, cfg config.Config, table []event.Command) (*link, error) {
	logger, session := observability.SessionLogger(cfg.Stream.Kind, cfg.SessionID)

	r, err := router.New(frame.NewTransport(conn))
	if err != nil {
		return nil, err
	}
	r.SetLogger(logger)

	cmd := command.New()
	cmd.SetLogger(logger)
	r.AddProtocol(cfg.ProtocolID, cmd)

	events, err := event.NewManager(cmd, table)
	if err != nil {
		return nil, err
	}
	events.SetLogger(logger)

	l := &link{
		conn:    conn,
		router:  r,
		cmd:     cmd,
		events:  events,
		logger:  logger,
		session: session,
	}
	if cfg.MetricsListen != "" {
		l.metrics = serveMetrics(cfg.MetricsListen, logger)
	}
	logger.Info().
		Uint8("proto", cfg.ProtocolID).
		Int("commands", len(table)).
		Msg("link open")
	return l, nil
}

func (l *link) Close() error {
	if l.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = l.metrics.Shutdown(ctx)
		cancel()
	}
	if l.stopWatch != nil && !l.stopWatch() {
		// already closed by the ctx watcher
		return nil
	}
	err := l.conn.Close()
	l.logger.Info().Err(err).Msg("link closed")
	return err
}

// interrupted reports ctx's error in place of err when ctx ended first;
// the read error then only reflects the closed stream.
func interrupted(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func serveMetrics(addr string, logger zerolog.Logger) *http.Server {
	observability.RegisterMetrics()
	srv := &http.Server{
		Addr:              addr,
		Handler:           observability.Handler(logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", addr).Msg("metrics listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	return srv
}

func formatValues(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, " ")
}

func stringArgs(args []string) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}
