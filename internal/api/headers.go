package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/zjrosen/procwatch/internal/log"
	"github.com/zjrosen/procwatch/internal/watcher"
)

// HeaderProvider supplies the headers, typically credentials, attached to
// every request. It is called once per request.
type HeaderProvider interface {
	Headers(ctx context.Context) (http.Header, error)
}

// HeaderFunc adapts a function to HeaderProvider.
type HeaderFunc func(ctx context.Context) (http.Header, error)

// Headers calls f.
func (f HeaderFunc) Headers(ctx context.Context) (http.Header, error) {
	return f(ctx)
}

// StaticHeaders always returns the same headers.
type StaticHeaders http.Header

// Headers returns a copy so callers cannot mutate the shared set.
func (h StaticHeaders) Headers(context.Context) (http.Header, error) {
	return http.Header(h).Clone(), nil
}

// APIKeyHeaders sends key verbatim in the Authorization header.
func APIKeyHeaders(key string) StaticHeaders {
	h := http.Header{}
	h.Set("Authorization", key)
	return StaticHeaders(h)
}

// ErrNoToken is returned by TokenFileHeaders when the token file is empty.
var ErrNoToken = errors.New("token file is empty")

// ErrAlreadyWatching is returned by Watch until Close stops the running watch.
var ErrAlreadyWatching = errors.New("token file is already watched")

// TokenFileHeaders reads the API key from a file and re-reads it whenever the
// file changes, so an external credential manager can rotate it in place.
type TokenFileHeaders struct {
	path string

	mu    sync.RWMutex
	token string

	done chan struct{}
}

// NewTokenFileHeaders reads path once. Call Watch to follow later changes.
func NewTokenFileHeaders(path string) (*TokenFileHeaders, error) {
	p := &TokenFileHeaders{path: path}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload re-reads the token file.
func (p *TokenFileHeaders) Reload() error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("reading token file: %w", err)
	}
	token := strings.TrimSpace(string(data))

	p.mu.Lock()
	p.token = token
	p.mu.Unlock()

	log.Debug(log.CatAuth, "Token loaded", "path", p.path, "empty", token == "")
	return nil
}

// Watch reloads the token on every debounced change to the file until ctx is
// cancelled or Close is called.
func (p *TokenFileHeaders) Watch(ctx context.Context, debounce time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		return ErrAlreadyWatching
	}

	w, err := watcher.New(watcher.Config{Path: p.path, Debounce: debounce})
	if err != nil {
		return err
	}
	changes, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return err
	}

	p.done = make(chan struct{})
	done := p.done

	go func() {
		defer func() { _ = w.Stop() }()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				if err := p.Reload(); err != nil {
					log.ErrorErr(log.CatAuth, "Token reload failed", err, "path", p.path)
				}
			}
		}
	}()
	return nil
}

// Close stops watching. Safe to call without Watch.
func (p *TokenFileHeaders) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		close(p.done)
		p.done = nil
	}
}

// Headers returns the current token as the Authorization header.
func (p *TokenFileHeaders) Headers(context.Context) (http.Header, error) {
	p.mu.RLock()
	token := p.token
	p.mu.RUnlock()

	if token == "" {
		return nil, ErrNoToken
	}
	h := http.Header{}
	h.Set("Authorization", token)
	return h, nil
}
