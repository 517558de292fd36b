package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/zjrosen/procwatch/internal/process"
)

// Op names the client operation that produced an error.
type Op string

const (
	OpTerminate   Op = "terminate"
	OpFetchStatus Op = "fetch status"
)

// ErrEmptyID is returned before any request is made when the id is empty.
var ErrEmptyID = errors.New("process id is empty")

// TransportError means no response was received: the request could not be
// built or sent, the connection failed, the context ended, or the body could
// not be read.
type TransportError struct {
	Op  Op
	ID  process.ID
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: transport: %v", e.Op, e.ID, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError means the server answered with a non-2xx status.
// The response status, headers and body are kept for the caller to inspect.
type APIError struct {
	Op         Op
	ID         process.ID
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: server returned %s", e.Op, e.ID, e.statusText())
	if m := e.Message(); m != "" {
		msg += ": " + m
	}
	return msg
}

// Message returns the response body as a single trimmed line, shortened to
// 200 characters. Empty when the server sent no body.
func (e *APIError) Message() string {
	return snippet(e.Body, 200)
}

// NotFound reports whether the server answered 404.
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func (e *APIError) statusText() string {
	if e.Status != "" {
		return e.Status
	}
	return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// DecodeError means the server answered 2xx but the body was not a usable
// status payload: not JSON, not an object, or lacking a status field.
type DecodeError struct {
	Op   Op
	ID   process.ID
	Body []byte
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s %s: decoding response: %v", e.Op, e.ID, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsNotFound reports whether err carries a 404 response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.NotFound()
}

// StatusCode extracts the HTTP status code from an APIError anywhere in err's chain.
func StatusCode(err error) (int, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, true
	}
	return 0, false
}

func snippet(body []byte, limit int) string {
	s := strings.Join(strings.Fields(string(body)), " ")
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "…"
}
