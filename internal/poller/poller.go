// Package poller repeatedly fetches the status of one process and publishes
// what it sees. Fetches may overlap; a response is applied only if no newer
// request has already been applied, so a slow reply can never overwrite a
// fresher status.
package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/procwatch/internal/log"
	"github.com/zjrosen/procwatch/internal/process"
	"github.com/zjrosen/procwatch/internal/pubsub"
	"github.com/zjrosen/procwatch/internal/tracing"
)

// Fetcher is the part of the api client the poller needs.
type Fetcher interface {
	FetchStatus(ctx context.Context, id process.ID) (*process.Entry, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, id process.ID) (*process.Entry, error)

// FetchStatus calls f.
func (f FetcherFunc) FetchStatus(ctx context.Context, id process.ID) (*process.Entry, error) {
	return f(ctx, id)
}

// ErrAlreadyRunning is returned by Run when the poller is already running.
var ErrAlreadyRunning = errors.New("poller already running")

// DefaultInterval is used when Config.Interval is not positive.
const DefaultInterval = 2 * time.Second

// Config controls polling.
type Config struct {
	Interval time.Duration

	// StopOnTerminal ends Run after the first terminal status is applied.
	StopOnTerminal bool
}

// Snapshot is one applied fetch result. Exactly one of Entry and Err is set.
type Snapshot struct {
	Seq        uint64
	ID         process.ID
	Entry      *process.Entry
	Err        error
	ObservedAt time.Time
}

// Status returns the observed status, or "" for a failed fetch.
func (s Snapshot) Status() process.Status {
	if s.Entry == nil {
		return ""
	}
	return s.Entry.Status
}

// Terminal reports whether the snapshot carries a terminal status.
func (s Snapshot) Terminal() bool {
	return s.Entry != nil && s.Entry.Status.IsTerminal()
}

// Stats are cumulative counters for one poller.
type Stats struct {
	Requests uint64 // fetches started
	Applied  uint64 // results published
	Stale    uint64 // results dropped because a newer one was already applied
	Errors   uint64 // applied results that were errors
}

// Poller polls one process.
type Poller struct {
	fetcher Fetcher
	id      process.ID
	cfg     Config
	broker  *pubsub.Broker[Snapshot]
	tracer  trace.Tracer
	now     func() time.Time

	running atomic.Bool
	seq     atomic.Uint64

	requests atomic.Uint64
	applied  atomic.Uint64
	stale    atomic.Uint64
	errs     atomic.Uint64

	// mu orders apply: the seq comparison and the publish happen together.
	mu          sync.Mutex
	lastApplied uint64
	last        Snapshot
	hasLast     bool
	settled     bool
}

// Option configures a Poller.
type Option func(*Poller)

// WithTracer records a span per fetch.
func WithTracer(t trace.Tracer) Option {
	return func(p *Poller) {
		if t != nil {
			p.tracer = t
		}
	}
}

// WithClock overrides time.Now for ObservedAt.
func WithClock(now func() time.Time) Option {
	return func(p *Poller) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a poller for id. Nothing happens until Run.
func New(fetcher Fetcher, id process.ID, cfg Config, opts ...Option) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	p := &Poller{
		fetcher: fetcher,
		id:      id,
		cfg:     cfg,
		broker:  pubsub.NewBroker[Snapshot](),
		tracer:  noop.NewTracerProvider().Tracer("noop"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ID returns the polled process id.
func (p *Poller) ID() process.ID {
	return p.id
}

// Broker returns the broker snapshots are published on.
func (p *Poller) Broker() *pubsub.Broker[Snapshot] {
	return p.broker
}

// Subscribe is shorthand for Broker().Subscribe.
func (p *Poller) Subscribe(ctx context.Context) <-chan pubsub.Event[Snapshot] {
	return p.broker.Subscribe(ctx)
}

// Close closes the broker, ending every subscription.
func (p *Poller) Close() {
	p.broker.Close()
}

// Stats returns a copy of the counters.
func (p *Poller) Stats() Stats {
	return Stats{
		Requests: p.requests.Load(),
		Applied:  p.applied.Load(),
		Stale:    p.stale.Load(),
		Errors:   p.errs.Load(),
	}
}

// Latest returns the most recently applied snapshot.
func (p *Poller) Latest() (Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.hasLast
}

// Run fetches immediately and then every Interval until ctx is done, or
// until a terminal status is applied when StopOnTerminal is set. Fetch errors
// are published and polling continues. Run returns nil after settling and
// ctx.Err() after cancellation. In-flight fetches are cancelled and awaited
// before Run returns.
func (p *Poller) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer p.running.Store(false)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	settled := make(chan struct{})
	var settleOnce sync.Once
	onSettle := func() { settleOnce.Do(func() { close(settled) }) }

	launch := func() {
		seq := p.seq.Add(1)
		p.requests.Add(1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.fetch(runCtx, seq, onSettle)
		}()
	}

	log.Debug(log.CatPoll, "Poller started", "id", p.id, "interval", p.cfg.Interval)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	launch()
	for {
		select {
		case <-ctx.Done():
			cancel()
			wg.Wait()
			log.Debug(log.CatPoll, "Poller cancelled", "id", p.id, "stats", p.Stats())
			return ctx.Err()
		case <-settled:
			cancel()
			wg.Wait()
			log.Debug(log.CatPoll, "Poller settled", "id", p.id, "stats", p.Stats())
			return nil
		case <-ticker.C:
			launch()
		}
	}
}

func (p *Poller) fetch(ctx context.Context, seq uint64, onSettle func()) {
	ctx, span := p.tracer.Start(ctx, tracing.SpanPollTick,
		trace.WithAttributes(
			attribute.String(tracing.AttrProcessID, string(p.id)),
			attribute.Int64(tracing.AttrPollSeq, int64(seq)),
		),
	)
	defer span.End()

	entry, err := p.fetcher.FetchStatus(ctx, p.id)
	if ctx.Err() != nil {
		// Run is shutting down; nobody is listening for this result.
		span.SetStatus(codes.Unset, "cancelled")
		return
	}

	snap := Snapshot{Seq: seq, ID: p.id, Entry: entry, Err: err, ObservedAt: p.now()}
	if err != nil {
		snap.Entry = nil
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	applied, settledNow := p.apply(snap)
	span.SetAttributes(attribute.Bool(tracing.AttrPollStale, !applied))
	if !applied {
		span.AddEvent(tracing.EventStaleDropped)
		return
	}
	if err == nil {
		span.SetAttributes(attribute.String(tracing.AttrProcessStatus, string(entry.Status)))
		span.SetStatus(codes.Ok, "")
	}
	if settledNow {
		span.AddEvent(tracing.EventSettled)
		if p.cfg.StopOnTerminal {
			onSettle()
		}
	}
}

// apply publishes snap if it is newer than the last applied result. It
// reports whether snap was applied and whether it is the first terminal one.
func (p *Poller) apply(snap Snapshot) (applied, settledNow bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if snap.Seq <= p.lastApplied || (p.settled && p.cfg.StopOnTerminal) {
		p.stale.Add(1)
		log.Debug(log.CatPoll, "Dropped stale response", "id", p.id, "seq", snap.Seq, "last_applied", p.lastApplied)
		return false, false
	}

	p.lastApplied = snap.Seq
	p.last = snap
	p.hasLast = true
	p.applied.Add(1)

	if snap.Err != nil {
		p.errs.Add(1)
		log.Debug(log.CatPoll, "Fetch failed", "id", p.id, "seq", snap.Seq, "error", snap.Err)
		p.broker.Publish(pubsub.FailedEvent, snap)
		return true, false
	}

	p.broker.Publish(pubsub.ObservedEvent, snap)

	if snap.Terminal() && !p.settled {
		p.settled = true
		log.Info(log.CatPoll, "Process settled", "id", p.id, "status", snap.Entry.Status)
		p.broker.Publish(pubsub.SettledEvent, snap)
		return true, true
	}
	return true, false
}
