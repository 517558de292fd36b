package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/procwatch/internal/config"
)

// fakeServer serves /api/v1/process/{id}. Each GET returns the next status in
// the id's script, repeating the last one.
type fakeServer struct {
	mu         sync.Mutex
	scripts    map[string][]string
	gets       map[string]int
	terminated map[string]int
	auth       []string
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	t.Helper()
	f := &fakeServer{
		scripts:    make(map[string][]string),
		gets:       make(map[string]int),
		terminated: make(map[string]int),
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeServer) script(id string, statuses ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[id] = statuses
}

func (f *fakeServer) getCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets[id]
}

func (f *fakeServer) terminateCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.terminated[id]
}

func (f *fakeServer) authHeaders() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.auth...)
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.auth = append(f.auth, r.Header.Get("Authorization"))
	id, ok := strings.CutPrefix(r.URL.Path, "/api/v1/process/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	script, ok := f.scripts[id]
	if !ok {
		http.Error(w, `{"message":"process not found"}`, http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodDelete:
		f.terminated[id]++
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		n := f.gets[id]
		f.gets[id]++
		if n >= len(script) {
			n = len(script) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"instanceId":%q,"status":%q,"initiator":"admin"}`, id, script[n])
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// resetFlags restores every flag of c and its children to its default.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			def := strings.Trim(f.DefValue, "[]")
			var vals []string
			if def != "" {
				vals = strings.Split(def, ",")
			}
			_ = sv.Replace(vals)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, child := range c.Commands() {
		resetFlags(child)
	}
}

// writeConfig writes a config pointing at serverURL with history in dir.
func writeConfig(t *testing.T, dir, serverURL string, extra string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`server:
  url: %s
  timeout: 5s
poll:
  interval: 100ms
history:
  enabled: true
  path: %s
%s`, serverURL, filepath.Join(dir, "history.db"), extra)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// execute runs the root command in isolation and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	viper.Reset()
	cfg = config.Config{}
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_Help(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	for _, sub := range []string{"status", "kill", "wait", "watch", "history", "config"} {
		require.Contains(t, out, sub)
	}
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "ftp://nowhere", "")

	_, err := execute(t, "--config", path, "status", "abc")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid configuration")
	require.Contains(t, err.Error(), "http or https")
}

func TestRootCmd_FlagOverridesConfig(t *testing.T) {
	fake, srv := newFakeServer(t)
	fake.script("p1", "RUNNING")
	dir := t.TempDir()
	path := writeConfig(t, dir, "http://127.0.0.1:1", "")

	out, err := execute(t, "--config", path, "--server", srv.URL, "status", "p1")
	require.NoError(t, err)
	require.Contains(t, out, "RUNNING")
}

func TestRootCmd_EnvOverridesConfig(t *testing.T) {
	fake, srv := newFakeServer(t)
	fake.script("p1", "RUNNING")
	dir := t.TempDir()
	path := writeConfig(t, dir, srv.URL, "")
	t.Setenv("PROCWATCH_SERVER_API_KEY", "env-key")

	_, err := execute(t, "--config", path, "status", "p1")
	require.NoError(t, err)
	require.Equal(t, []string{"env-key"}, fake.authHeaders())
}

func TestRootCmd_WritesDefaultConfigOnFirstRun(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := execute(t, "config", "path")
	require.NoError(t, err)

	path := strings.TrimSpace(out)
	require.FileExists(t, path)
	require.Equal(t, filepath.Join(os.Getenv("HOME"), ".config", "procwatch", "config.yaml"), path)
}
