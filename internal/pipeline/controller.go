// Package pipeline contains the scan debouncer: the state machine that turns
// a noisy stream of decoded payloads into at most one stored record per
// physical scan.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/scanpipe/scanpipe/internal/audit"
	"github.com/scanpipe/scanpipe/internal/export"
	"github.com/scanpipe/scanpipe/internal/feedback"
	"github.com/scanpipe/scanpipe/internal/metrics"
	"github.com/scanpipe/scanpipe/internal/record"
	"github.com/scanpipe/scanpipe/internal/store"
)

// DefaultCooldown is the fixed window after an accepted scan during which
// further decode events are dropped.
const DefaultCooldown = 2 * time.Second

// Uplink delivers one record remotely. Satisfied by *uplink.Client.
type Uplink interface {
	Send(ctx context.Context, rec record.ScanRecord) error
}

// Config assembles a Controller.
type Config struct {
	Store    *store.RecordStore // required
	Uplink   Uplink             // optional; nil disables remote sync
	Feedback feedback.Emitter   // optional; nil disables the audio cue
	Notifier Notifier           // optional; defaults to LogNotifier
	Cooldown time.Duration      // defaults to DefaultCooldown
	Sinks    []audit.Sink       // optional audit fan-out
	Logger   *slog.Logger
}

// Controller owns the Busy/Idle gate, the in-memory history (through the
// record store) and the orchestration of one accepted scan: feedback,
// persistence, best-effort upload, cooldown re-arm.
//
// The gate strictly serializes acceptance: while Busy every further decode
// event is dropped, which is the de-duplication mechanism for continuous
// re-detections of the same physical code. The cooldown timer restores Idle
// unconditionally; an in-flight upload never delays the next scan.
type Controller struct {
	state    atomic.Int32
	store    *store.RecordStore
	uplink   Uplink
	feedback feedback.Emitter
	notifier Notifier
	cooldown time.Duration
	sinks    []audit.Sink
	logger   *slog.Logger

	wg     sync.WaitGroup
	closed atomic.Bool
}

// New creates a Controller. The record store is expected to have been loaded
// by the caller.
func New(cfg Config) (*Controller, error) {
	if cfg.Store == nil {
		return nil, errors.New("pipeline requires a record store")
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = LogNotifier{Logger: cfg.Logger}
	}
	c := &Controller{
		store:    cfg.Store,
		uplink:   cfg.Uplink,
		feedback: cfg.Feedback,
		notifier: cfg.Notifier,
		cooldown: cfg.Cooldown,
		sinks:    cfg.Sinks,
		logger:   cfg.Logger,
	}
	metrics.SetHistorySize(cfg.Store.Len())
	return c, nil
}

// OnPayload is the sole entry point from the external decoder. The
// accept/reject decision is synchronous and cheap; everything that may
// suspend happens after the gate has flipped to Busy.
//
// The returned bool reports acceptance. A non-nil error means the record
// could not be persisted; the scan is lost locally, but the pipeline stays
// able to process the next one once the cooldown expires.
func (c *Controller) OnPayload(ctx context.Context, payload string) (record.ScanRecord, bool, error) {
	if c.closed.Load() {
		return record.ScanRecord{}, false, nil
	}
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateBusy)) {
		// Re-detection while busy: not an error, just noise.
		metrics.IncScanDropped()
		c.logger.Debug("payload dropped while busy", "payload", payload)
		return record.ScanRecord{}, false, nil
	}
	metrics.RecordStateTransition(StateIdle.String(), StateBusy.String())
	metrics.IncScanAccepted()

	// The cooldown always re-arms, whatever happens below.
	defer c.armCooldown()

	if c.feedback != nil {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			if err := c.feedback.Play(context.WithoutCancel(ctx)); err != nil {
				c.logger.Debug("feedback cue failed", "error", err)
			}
		}()
	}

	rec := record.New(payload)

	hist, err := c.store.Append(ctx, rec)
	if err != nil {
		metrics.IncPersistenceFailure()
		c.logger.Error("failed to persist scan record", "id", rec.ID, "error", err)
		return rec, true, err
	}
	metrics.SetHistorySize(len(hist))
	c.notifier.ScanStored(rec)
	c.emit(audit.EventAccepted, rec)

	if c.uplink != nil {
		c.wg.Add(1)
		// Upload runs concurrently with the cooldown window and must not
		// prevent re-arming; its outcome is observed only for notification.
		go func() {
			defer c.wg.Done()
			sctx := context.WithoutCancel(ctx)
			if err := c.uplink.Send(sctx, rec); err != nil {
				metrics.IncSyncFailure()
				c.logger.Warn("upload attempts exhausted", "id", rec.ID, "error", err)
				c.notifier.SyncUnconfirmed(rec)
				c.emit(audit.EventSyncFailed, rec)
				return
			}
			metrics.IncSyncSuccess()
			c.logger.Debug("record confirmed remotely", "id", rec.ID)
		}()
	}

	return rec, true, nil
}

func (c *Controller) armCooldown() {
	time.AfterFunc(c.cooldown, func() {
		c.state.Store(int32(StateIdle))
		metrics.RecordStateTransition(StateBusy.String(), StateIdle.String())
	})
}

// Clear wipes the durable and in-memory history.
func (c *Controller) Clear(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return err
	}
	metrics.SetHistorySize(0)
	c.notifier.HistoryCleared()
	c.emit(audit.EventCleared, record.ScanRecord{})
	return nil
}

// History returns a copy of the current history, newest-first.
func (c *Controller) History() record.History { return c.store.History() }

// Export renders the current history as shareable text.
func (c *Controller) Export() string { return export.Format(c.store.History()) }

// State reports the current gate state.
func (c *Controller) State() State { return State(c.state.Load()) }

// Close stops accepting payloads and waits for in-flight feedback and
// uploads to finish.
func (c *Controller) Close() {
	c.closed.Store(true)
	c.wg.Wait()
}

func (c *Controller) emit(typ audit.EventType, rec record.ScanRecord) {
	if len(c.sinks) == 0 {
		return
	}
	e := audit.Event{Type: typ, OccurredAt: time.Now().UTC(), Record: rec}
	for _, s := range c.sinks {
		c.wg.Add(1)
		go func(s audit.Sink) {
			defer c.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.Send(ctx, e); err != nil {
				c.logger.Warn("audit sink rejected event", "event", e.Type, "error", err)
			}
		}(s)
	}
}
