package poller

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/procwatch/internal/log"
	"github.com/zjrosen/procwatch/internal/process"
	"github.com/zjrosen/procwatch/internal/tracing"
)

// ErrUnexpectedTerminal matches an *UnexpectedStatusError via errors.Is.
var ErrUnexpectedTerminal = errors.New("process reached an unexpected terminal status")

// UnexpectedStatusError is returned by WaitFor when the process settles on a
// status that was not waited for.
type UnexpectedStatusError struct {
	Entry   *process.Entry
	Targets []process.Status
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("process reached %s while waiting for %v", e.Entry.Status, e.Targets)
}

// Is lets errors.Is(err, ErrUnexpectedTerminal) match.
func (e *UnexpectedStatusError) Is(target error) bool {
	return target == ErrUnexpectedTerminal
}

// WaitOption configures WaitFor.
type WaitOption func(*waitOptions)

type waitOptions struct {
	tracer  trace.Tracer
	onEntry func(*process.Entry)
}

// WaitWithTracer records a span around the whole wait.
func WaitWithTracer(t trace.Tracer) WaitOption {
	return func(o *waitOptions) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WaitWithProgress calls fn with every fetched entry, e.g. to print progress.
func WaitWithProgress(fn func(*process.Entry)) WaitOption {
	return func(o *waitOptions) {
		o.onEntry = fn
	}
}

// WaitFor polls sequentially until the process reaches one of targets and
// returns that entry. With no targets it waits for any terminal status.
// Reaching a terminal status outside targets returns the entry and an
// *UnexpectedStatusError. Fetch errors are returned immediately.
func WaitFor(ctx context.Context, fetcher Fetcher, id process.ID, interval time.Duration, targets []process.Status, opts ...WaitOption) (*process.Entry, error) {
	o := waitOptions{tracer: noop.NewTracerProvider().Tracer("noop")}
	for _, opt := range opts {
		opt(&o)
	}
	if len(targets) == 0 {
		targets = process.TerminalStatuses()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	ctx, span := o.tracer.Start(ctx, tracing.SpanWait,
		trace.WithAttributes(attribute.String(tracing.AttrProcessID, string(id))),
	)
	defer span.End()

	log.Debug(log.CatPoll, "Waiting for status", "id", id, "targets", targets, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		entry, err := fetcher.FetchStatus(ctx, id)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("waiting for %s: %w", id, err)
		}
		if o.onEntry != nil {
			o.onEntry(entry)
		}

		if slices.Contains(targets, entry.Status) {
			span.SetAttributes(attribute.String(tracing.AttrProcessStatus, string(entry.Status)))
			span.SetStatus(codes.Ok, "")
			log.Debug(log.CatPoll, "Wait satisfied", "id", id, "status", entry.Status)
			return entry, nil
		}
		if entry.Status.IsTerminal() {
			uerr := &UnexpectedStatusError{Entry: entry, Targets: targets}
			span.SetAttributes(attribute.String(tracing.AttrProcessStatus, string(entry.Status)))
			span.SetStatus(codes.Error, uerr.Error())
			log.Debug(log.CatPoll, "Wait ended on unexpected status", "id", id, "status", entry.Status)
			return entry, uerr
		}

		select {
		case <-ctx.Done():
			span.SetStatus(codes.Error, ctx.Err().Error())
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// WaitForCompletion waits for any terminal status.
func WaitForCompletion(ctx context.Context, fetcher Fetcher, id process.ID, interval time.Duration, opts ...WaitOption) (*process.Entry, error) {
	return WaitFor(ctx, fetcher, id, interval, nil, opts...)
}
