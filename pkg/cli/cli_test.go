package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockapi/pkg/admin"
	"github.com/getmockd/mockapi/pkg/config"
	"github.com/getmockd/mockapi/pkg/engine"
	"github.com/getmockd/mockapi/pkg/logging"
)

func memoryConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Storage.Backend = config.BackendMemory
	cfg.Cache.Backend = config.BackendMemory
	cfg.Cache.TTL = time.Minute
	return cfg
}

func startStack(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	st, err := buildStack(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	ts := httptest.NewServer(st.server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// run executes the CLI with args and returns stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommands_EndToEnd(t *testing.T) {
	ts := startStack(t, memoryConfig())
	adminURL := "--admin-url=" + ts.URL

	out, err := run(t, "", "publish", adminURL, "-p", "Shop Front", "-r", "items",
		"--content", `[{"id":1,"name":"a"},{"id":2,"name":"b"}]`)
	require.NoError(t, err)
	assert.Contains(t, out, "Published GET "+ts.URL+"/shop-front/items")

	out, err = run(t, `{"ok":true}`, "publish", adminURL, "-p", "shop-front", "-r", "orders", "-m", "post", "-f", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Published POST")

	resp, err := http.Get(ts.URL + "/shop-front/items?sort=id&direction=desc&fields=name")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []map[string]any{{"name": "b"}, {"name": "a"}}, body)

	out, err = run(t, "", "list", adminURL, "-p", "shop-front")
	require.NoError(t, err)
	assert.Contains(t, out, "ROUTE")
	assert.Contains(t, out, "orders")
	assert.Contains(t, out, "items")

	out, err = run(t, "", "list", adminURL, "--json", "-p", "shop-front")
	require.NoError(t, err)
	var list []struct {
		Route  string `json:"route"`
		Method string `json:"method"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Len(t, list, 2)

	out, err = run(t, "", "status", adminURL, "-p", "shop-front", "-r", "items", "--code", "503", "--message", "down")
	require.NoError(t, err)
	assert.Contains(t, out, "GET")

	resp, err = http.Get(ts.URL + "/shop-front/items")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	out, err = run(t, "", "openapi", adminURL, "-p", "shop-front")
	require.NoError(t, err)
	doc, err := openapi3.NewLoader().LoadFromData([]byte(out))
	require.NoError(t, err)
	assert.NotNil(t, doc.Paths.Find("/shop-front/orders"))

	out, err = run(t, "", "delete", adminURL, "-p", "shop-front", "-r", "orders", "-m", "post")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted POST shop-front/orders")

	_, err = run(t, "", "delete", adminURL, "-p", "shop-front", "-r", "orders", "-m", "post")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "endpoint not found")
}

func TestOpenAPICommand_WritesFile(t *testing.T) {
	ts := startStack(t, memoryConfig())
	_, err := run(t, "", "publish", "--admin-url", ts.URL, "-p", "p", "-r", "r", "--content", `{"a":1}`)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "openapi.json")
	_, err = run(t, "", "openapi", "--admin-url", ts.URL, "-p", "p", "-o", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"openapi": "3.0.3"`)
}

func TestPublishCommand_Errors(t *testing.T) {
	ts := startStack(t, memoryConfig())

	_, err := run(t, "", "publish", "--admin-url", ts.URL, "-p", "p", "-r", "r")
	assert.ErrorContains(t, err, "no content")

	_, err = run(t, "", "publish", "--admin-url", ts.URL, "-p", "p", "-r", "r", "--content", "{broken")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	_, err = run(t, "", "publish", "--admin-url", ts.URL, "-p", "p")
	assert.ErrorContains(t, err, "route")
}

func TestClient_ConnectionError(t *testing.T) {
	c := NewAdminClient("http://127.0.0.1:1", WithTimeout(time.Second))
	err := c.Health(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "connection_error", apiErr.ErrorCode)
	assert.Contains(t, FormatError(err), "mockapi serve")
}

func TestClient_ParseError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/health") {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte(`{"error":"method not allowed","method":"GET","expected":"POST"}`))
	}))
	defer ts.Close()
	c := NewAdminClient(ts.URL + "/")

	err := c.Health(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "unknown_error", apiErr.ErrorCode)
	assert.Contains(t, apiErr.Message, "502")

	_, err = c.List(context.Background(), "p")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "method not allowed (expected POST)", apiErr.Message)
}

func TestReadContent(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "c.json")
	require.NoError(t, os.WriteFile(file, []byte(`[1,2]`), 0o600))

	tests := []struct {
		name  string
		flags publishFlags
		stdin string
		want  string
	}{
		{"inline", publishFlags{content: `{"a":1}`}, "", `{"a":1}`},
		{"file", publishFlags{file: file}, "", `[1,2]`},
		{"stdin", publishFlags{file: "-"}, `"x"`, `"x"`},
		{"not json becomes a string", publishFlags{content: "hello"}, "", `"hello"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readContent(&tt.flags, strings.NewReader(tt.stdin))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}

	_, err := readContent(&publishFlags{file: filepath.Join(dir, "missing")}, nil)
	assert.Error(t, err)
}

func TestApplyServeFlags(t *testing.T) {
	f := &serveFlags{}
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	bindServeFlags(fs, f)
	require.NoError(t, fs.Parse([]string{"--addr", ":9000", "--storage", "memory", "--no-cache", "--log-level", "debug"}))

	cfg := config.Default()
	applyServeFlags(cfg, f, fs)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, config.Default().Cache.TTL, cfg.Cache.TTL, "unset flags keep configured values")
	assert.True(t, cfg.Admin.Enabled)
}

func TestBuildStack_FileBackends(t *testing.T) {
	cfg := memoryConfig()
	cfg.Storage.Backend = config.BackendFile
	cfg.Storage.Dir = filepath.Join(t.TempDir(), "data")
	cfg.Cache.Backend = config.BackendFile
	cfg.Cache.Dir = filepath.Join(t.TempDir(), "cache")
	ts := startStack(t, cfg)

	c := NewAdminClient(ts.URL)
	_, err := c.Publish(context.Background(), &admin.PublishRequest{
		ProjectName: "p", Route: "r", Content: json.RawMessage(`[{"id":1}]`),
	})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(cfg.Storage.Dir, "p", "r_GET.json"))

	for _, want := range []string{engine.CacheMiss, engine.CacheHit} {
		resp, err := http.Get(ts.URL + "/p/r")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, want, resp.Header.Get(engine.HeaderCache))
	}
	entries, err := os.ReadDir(filepath.Join(cfg.Cache.Dir, "p", "r"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestBuildStack_DisabledFeatures(t *testing.T) {
	cfg := memoryConfig()
	cfg.Cache.Enabled = false
	cfg.Admin.Enabled = false
	ts := startStack(t, cfg)

	resp, err := http.Get(ts.URL + engine.AdminPrefix + "/endpoints?project=p")
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEqual(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + engine.AdminPrefix + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRunServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	require.NoError(t, runServe(ctx, memoryConfig(), logging.Nop(), &out))
	assert.Contains(t, out.String(), "listening on 127.0.0.1:")
	assert.Contains(t, out.String(), "Server stopped")
}

func TestConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mockapi.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":7000\"\ncache:\n  ttl: 5s\n"), 0o600))

	out, err := run(t, "", "config", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "7000")
	assert.Contains(t, out, "ttl: 5s")

	_, err = run(t, "", "config", "-c", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version", "--json")
	require.NoError(t, err)
	var v VersionOutput
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.NotEmpty(t, v.Version)
	assert.NotEmpty(t, v.Go)

	out, err = run(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "mockapi "))
}
