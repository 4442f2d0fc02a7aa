// Package scanpipe is the scan-ingestion pipeline behind a handheld
// barcode-scanning utility: it turns a stream of raw decoded payloads into
// deduplicated, persisted and remotely-synchronized records.
package scanpipe

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/scanpipe/scanpipe/internal/audit"
	"github.com/scanpipe/scanpipe/internal/config"
	"github.com/scanpipe/scanpipe/internal/export"
	"github.com/scanpipe/scanpipe/internal/feedback"
	"github.com/scanpipe/scanpipe/internal/logger"
	"github.com/scanpipe/scanpipe/internal/metrics"
	"github.com/scanpipe/scanpipe/internal/pipeline"
	"github.com/scanpipe/scanpipe/internal/record"
	"github.com/scanpipe/scanpipe/internal/server"
	"github.com/scanpipe/scanpipe/internal/store"
	"github.com/scanpipe/scanpipe/internal/uplink"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type ScanRecord = record.ScanRecord

type History = record.History

type State = pipeline.State

type Notifier = pipeline.Notifier

type AuditSink = audit.Sink

type FileConfig = config.FileConfig

type LogConfig = logger.Config

// MaxHistoryItems is the cap on retained records.
const MaxHistoryItems = record.MaxItems

const (
	StateIdle = pipeline.StateIdle
	StateBusy = pipeline.StateBusy
)

// Config assembles an embedded pipeline.
type Config struct {
	StoreDSN      string        // history storage; defaults to "memory://"
	Endpoint      string        // remote sync endpoint; empty disables sync
	SyncAttempts  int           // defaults to 3
	RetryInterval time.Duration // delay between sync attempts, defaults to 0
	SyncTimeout   time.Duration // per-attempt HTTP timeout
	Cooldown      time.Duration // defaults to 2s
	FeedbackType  string        // "none", "bell" or "command"
	FeedbackCmd   string
	Notifier      Notifier // optional
	AuditDSNs     []string // optional audit sinks
	Logger        *slog.Logger
}

// Pipeline is the embeddable facade over the internal controller.
type Pipeline struct {
	ctrl  *pipeline.Controller
	store *store.RecordStore
}

// New builds a Pipeline: opens the store, loads the durable history once and
// wires uplink, feedback and audit sinks.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	dsn := cfg.StoreDSN
	if dsn == "" {
		dsn = "memory://"
	}
	kv, err := store.NewFromDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	rs := store.NewRecordStore(kv, cfg.Logger)
	if _, err := rs.Load(context.Background()); err != nil {
		_ = kv.Close()
		return nil, err
	}

	var up pipeline.Uplink
	if cfg.Endpoint != "" {
		c, err := uplink.New(uplink.Config{
			Endpoint: cfg.Endpoint,
			Timeout:  cfg.SyncTimeout,
			Policy:   uplink.Policy{Attempts: cfg.SyncAttempts, Interval: cfg.RetryInterval},
			Logger:   cfg.Logger,
		})
		if err != nil {
			_ = kv.Close()
			return nil, err
		}
		up = c
	}

	emitter, err := feedback.FromConfig(cfg.FeedbackType, cfg.FeedbackCmd)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	sinks := make([]audit.Sink, 0, len(cfg.AuditDSNs))
	for _, d := range cfg.AuditDSNs {
		s, err := audit.NewSinkFromDSN(d)
		if err != nil {
			_ = kv.Close()
			return nil, fmt.Errorf("audit sink %q: %w", d, err)
		}
		sinks = append(sinks, s)
	}

	ctrl, err := pipeline.New(pipeline.Config{
		Store:    rs,
		Uplink:   up,
		Feedback: emitter,
		Notifier: cfg.Notifier,
		Cooldown: cfg.Cooldown,
		Sinks:    sinks,
		Logger:   cfg.Logger,
	})
	if err != nil {
		_ = kv.Close()
		return nil, err
	}
	return &Pipeline{ctrl: ctrl, store: rs}, nil
}

// OnPayload feeds one decoded payload into the pipeline.
func (p *Pipeline) OnPayload(ctx context.Context, payload string) (ScanRecord, bool, error) {
	return p.ctrl.OnPayload(ctx, payload)
}

// History returns the retained records, newest-first.
func (p *Pipeline) History() History { return p.ctrl.History() }

// Export renders the history as shareable text.
func (p *Pipeline) Export() string { return p.ctrl.Export() }

// Clear wipes the durable and in-memory history.
func (p *Pipeline) Clear(ctx context.Context) error { return p.ctrl.Clear(ctx) }

// State reports the Busy/Idle gate.
func (p *Pipeline) State() State { return p.ctrl.State() }

// Close waits for in-flight work and releases the store.
func (p *Pipeline) Close() error {
	p.ctrl.Close()
	return p.store.Close()
}

// Handler returns a gin-powered http.Handler serving the pipeline API under
// basePath.
func (p *Pipeline) Handler(basePath string) http.Handler {
	return server.NewRouter(p.ctrl, basePath).Handler()
}

// MountEcho registers the pipeline API on an existing echo instance.
func (p *Pipeline) MountEcho(e *echo.Echo, basePath string) {
	server.MountEcho(e, basePath, p.ctrl)
}

// NewHTTPServer starts a standalone HTTP server for the pipeline API.
func (p *Pipeline) NewHTTPServer(addr, basePath string) (*http.Server, error) {
	return server.NewServer(addr, basePath, p.ctrl)
}

// Format renders an arbitrary history snapshot (see Export for the live one).
func Format(h History) string { return export.Format(h) }

// LoadConfig parses a TOML config file with defaults applied.
func LoadConfig(path string) (*FileConfig, error) { return config.Load(path) }

// NewLogger builds the daemon logger described by c.
func NewLogger(c LogConfig) *slog.Logger { return logger.New(c) }

// RegisterMetrics registers the pipeline collectors with r.
func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }

// RegisterMetricsDefault registers the collectors with the default registry.
func RegisterMetricsDefault() error { return metrics.Register(prometheus.DefaultRegisterer) }

// ServeMetrics serves Prometheus metrics on addr at /metrics.
func ServeMetrics(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	s := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.ListenAndServe()
}
