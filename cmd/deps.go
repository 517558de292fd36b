package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/zjrosen/procwatch/internal/api"
	"github.com/zjrosen/procwatch/internal/history"
	"github.com/zjrosen/procwatch/internal/log"
	"github.com/zjrosen/procwatch/internal/process"
	"github.com/zjrosen/procwatch/internal/tracing"
	"github.com/zjrosen/procwatch/internal/watcher"
)

// session bundles the collaborators a command needs for one run.
type session struct {
	client  *api.Client
	tracing *tracing.Provider
	history *history.Store

	closers []func()
}

// newSession builds the api client from cfg: tracing transport, header
// provider, and the history store when enabled.
func newSession(ctx context.Context) (*session, error) {
	s := &session{}

	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}
	s.tracing = tp
	s.closers = append(s.closers, func() {
		if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			log.ErrorErr(log.CatTrace, "Tracing shutdown failed", err)
		}
	})

	headers, err := s.headerProvider(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}

	hc := &http.Client{
		Timeout:   cfg.Server.Timeout,
		Transport: tracing.NewTransport(http.DefaultTransport, tp.Tracer()),
	}
	opts := []api.Option{
		api.WithHTTPClient(hc),
		api.WithTracer(tp.Tracer()),
		api.WithHeaders(headers),
	}
	if cfg.Server.UserAgent != "" {
		opts = append(opts, api.WithUserAgent(cfg.Server.UserAgent))
	}

	client, err := api.NewClient(cfg.Server.URL, opts...)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.client = client
	log.Debug(log.CatAPI, "Client ready", "server", client.BaseURL(), "tracing", tp.Enabled())

	if cfg.History.Enabled && cfg.History.Path != "" {
		store, err := history.Open(ctx, cfg.History.Path)
		if err != nil {
			// History is best effort; the command itself still runs.
			log.ErrorErr(log.CatHistory, "Opening history failed", err, "path", cfg.History.Path)
		} else {
			s.history = store
			s.closers = append(s.closers, func() { _ = store.Close() })
		}
	}

	return s, nil
}

func (s *session) headerProvider(ctx context.Context) (api.HeaderProvider, error) {
	if cfg.Server.TokenFile != "" {
		p, err := api.NewTokenFileHeaders(cfg.Server.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("reading token file: %w", err)
		}
		if err := p.Watch(ctx, watcher.DefaultConfig(cfg.Server.TokenFile).Debounce); err != nil {
			log.Warn(log.CatAuth, "Token file watch unavailable", "path", cfg.Server.TokenFile, "error", err)
		}
		s.closers = append(s.closers, p.Close)
		return p, nil
	}
	if cfg.Server.APIKey != "" {
		return api.APIKeyHeaders(cfg.Server.APIKey), nil
	}
	return api.StaticHeaders{}, nil
}

// checkID logs ids that do not look like the UUIDs servers hand out. They are
// still sent as given.
func checkID(id process.ID) process.ID {
	if !id.IsUUID() {
		log.Debug(log.CatAPI, "Process id is not a UUID", "id", id)
	}
	return id
}

// record stores a transition when history is enabled.
func (s *session) record(ctx context.Context, entry *process.Entry, id process.ID) {
	if s.history == nil || entry == nil {
		return
	}
	if _, err := s.history.Record(ctx, id, entry.Status, now()); err != nil {
		log.ErrorErr(log.CatHistory, "Recording transition failed", err, "id", id)
	}
}

// Close releases everything in reverse order of acquisition.
func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// describeError turns client errors into messages that say what to do next.
func describeError(id process.ID, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: timed out: %w", id, err)
	}
	if api.IsNotFound(err) {
		return fmt.Errorf("process %s not found: %w", id, err)
	}
	if code, ok := api.StatusCode(err); ok && (code == http.StatusUnauthorized || code == http.StatusForbidden) {
		return fmt.Errorf("%w (check server.api_key or server.token_file)", err)
	}
	return err
}
