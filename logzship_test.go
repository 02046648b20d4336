package logzship_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/logzship"
)

// listener records decoded request bodies, one record slice per request.
type listener struct {
	mu       sync.Mutex
	requests [][]map[string]string
	queries  []string
	status   int
}

func (l *listener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body io.Reader = r.Body
	if r.Header.Get("Content-Encoding") == "gzip" {
		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer zr.Close()
		body = zr
	}

	var records []map[string]string
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 1<<20), 16<<20)
	for sc.Scan() {
		var rec map[string]string
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		records = append(records, rec)
	}

	l.mu.Lock()
	l.requests = append(l.requests, records)
	l.queries = append(l.queries, r.URL.RawQuery)
	status := l.status
	l.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func newTestClient(t *testing.T, url string, opts ...logzship.Option) *logzship.Client {
	t.Helper()
	cfg := logzship.DefaultConfig()
	cfg.Endpoint = url
	cfg.Token = logzship.NewSecret("test-token")
	cfg.MaxAttempts = 1

	c, err := logzship.New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*logzship.Config)
	}{
		{"blank token", func(c *logzship.Config) { c.Token = logzship.NewSecret("  ") }},
		{"blank endpoint", func(c *logzship.Config) { c.Endpoint = "" }},
		{"relative endpoint", func(c *logzship.Config) { c.Endpoint = "listener.logz.io" }},
		{"bad type", func(c *logzship.Config) { c.Type = "has space" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := logzship.DefaultConfig()
			cfg.Token = logzship.NewSecret("token")
			tt.modify(&cfg)

			c, err := logzship.New(cfg)
			assert.Nil(t, c)
			assert.True(t, errors.Is(err, logzship.ErrInvalidConfig), "got %v", err)
			var cerr *logzship.ConfigError
			assert.True(t, errors.As(err, &cerr))
		})
	}
}

func TestClient_PushDeliversRecords(t *testing.T) {
	l := &listener{}
	srv := httptest.NewServer(l)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	doc := `{"message":["LINE 1","LINE 2"],"source":"jenkins","@version":1}`
	require.NoError(t, c.Push(context.Background(), []byte(doc)))

	require.Len(t, l.requests, 1)
	records := l.requests[0]
	require.Len(t, records, 2)
	assert.Equal(t, "LINE 1", records[0]["message"])
	assert.Equal(t, "LINE 2", records[1]["message"])
	assert.Equal(t, "jenkins", records[0]["source"])
	assert.Equal(t, "1", records[0]["@version"])
	_, err := time.Parse(time.RFC3339Nano, records[0]["@timestamp"])
	assert.NoError(t, err)

	assert.Contains(t, l.queries[0], "token=test-token")
	assert.Contains(t, l.queries[0], "type="+logzship.DefaultType)
}

func TestClient_PushEmptyEnvelopeSendsNothing(t *testing.T) {
	l := &listener{}
	srv := httptest.NewServer(l)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	require.NoError(t, c.Push(context.Background(), []byte(`{"message":[]}`)))
	assert.Empty(t, l.requests)
}

func TestClient_PushSplitsAtThreshold(t *testing.T) {
	l := &listener{}
	srv := httptest.NewServer(l)
	defer srv.Close()

	cfg := logzship.DefaultConfig()
	cfg.Endpoint = srv.URL
	cfg.Token = logzship.NewSecret("test-token")
	cfg.Compress = false
	cfg.MaxBatchBytes = 256
	c, err := logzship.New(cfg)
	require.NoError(t, err)
	defer c.Close()

	lines := make([]string, 10)
	for i := range lines {
		lines[i] = strings.Repeat("x", 100)
	}
	env, err := logzship.BuildPayload(logzship.BuildData{Timestamp: "2000-01-01"}, "h", lines)
	require.NoError(t, err)
	require.NoError(t, c.PushDocument(context.Background(), env))

	total := 0
	for _, records := range l.requests {
		total += len(records)
	}
	assert.Equal(t, 10, total)
	assert.Greater(t, len(l.requests), 1)
}

func TestClient_PushServerError(t *testing.T) {
	l := &listener{status: http.StatusBadRequest}
	srv := httptest.NewServer(l)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	err := c.Push(context.Background(), []byte(`{"message":["a"]}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, logzship.ErrServer))
	var serr *logzship.ServerError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusBadRequest, serr.StatusCode)
	assert.NotContains(t, err.Error(), "test-token")

	// the failed batch is not carried into the next push
	l.mu.Lock()
	l.status = 0
	l.mu.Unlock()
	require.NoError(t, c.Push(context.Background(), []byte(`{"message":["b"]}`)))
	require.Len(t, l.requests, 2)
	require.Len(t, l.requests[1], 1)
	assert.Equal(t, "b", l.requests[1][0]["message"])
}

func TestClient_PushInvalidEnvelope(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")
	err := c.Push(context.Background(), []byte(`{"message":"not a list"}`))
	assert.True(t, errors.Is(err, logzship.ErrInvalidEnvelope))
}

func TestClient_PushDocumentNil(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")
	err := c.PushDocument(context.Background(), nil)
	assert.ErrorIs(t, err, logzship.ErrInvalidEnvelope)
}

func TestClient_Ship(t *testing.T) {
	l := &listener{}
	srv := httptest.NewServer(l)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	data := logzship.BuildData{
		Timestamp: "2000-01-01",
		Metadata:  json.RawMessage(`{"a":{"b":1,"d":[false,true]},"e":"f"}`),
	}
	require.NoError(t, c.Ship(context.Background(), data, "http://ci.local/", []string{"LINE 1"}))

	require.Len(t, l.requests, 1)
	rec := l.requests[0][0]
	assert.Equal(t, map[string]string{
		"message":         "LINE 1",
		"@timestamp":      rec["@timestamp"],
		"source":          "jenkins",
		"source_host":     "http://ci.local/",
		"@buildTimestamp": "2000-01-01",
		"@version":        "1",
		"a_b":             "1",
		"a_d[0]":          "false",
		"a_d[1]":          "true",
		"e":               "f",
	}, rec)
}

func TestClient_Metrics(t *testing.T) {
	l := &listener{}
	srv := httptest.NewServer(l)
	defer srv.Close()

	reg := prometheus.NewRegistry()
	c := newTestClient(t, srv.URL, logzship.WithMetrics(reg))
	require.NoError(t, c.Push(context.Background(), []byte(`{"message":["a","b"]}`)))

	expected := `
# HELP logzship_messages_sent_total Numbers of log records delivered to the listener
# TYPE logzship_messages_sent_total counter
logzship_messages_sent_total 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, bytes.NewBufferString(expected), "logzship_messages_sent_total"))
}

func TestClient_Close(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	err := c.Push(context.Background(), []byte(`{"message":["a"]}`))
	assert.ErrorIs(t, err, logzship.ErrClosed)
}
