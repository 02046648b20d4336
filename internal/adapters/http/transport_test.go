package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/logzship/internal/domain"
)

type recordingReporter struct {
	mu       sync.Mutex
	warnings []string
	errors   []string
	infos    []string
}

func (r *recordingReporter) Info(msg string)                  { r.add(&r.infos, msg) }
func (r *recordingReporter) InfoCause(msg string, _ error)    { r.add(&r.infos, msg) }
func (r *recordingReporter) Warning(msg string)               { r.add(&r.warnings, msg) }
func (r *recordingReporter) WarningCause(msg string, _ error) { r.add(&r.warnings, msg) }
func (r *recordingReporter) Error(msg string)                 { r.add(&r.errors, msg) }
func (r *recordingReporter) ErrorCause(msg string, _ error)   { r.add(&r.errors, msg) }

func (r *recordingReporter) add(dst *[]string, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*dst = append(*dst, msg)
}

type observation struct {
	messages, bytes int
	err             error
}

type recordingObserver struct {
	got []observation
}

func (o *recordingObserver) ObserveDispatch(messages, bytes int, err error) {
	o.got = append(o.got, observation{messages, bytes, err})
}

func newConfig(t *testing.T, endpoint string, compress bool) domain.SendRequestConfig {
	t.Helper()
	o := domain.DefaultRequestOptions()
	o.Endpoint = endpoint
	o.Token = domain.NewSecret("123456789")
	o.Compress = compress
	cfg, err := domain.NewSendRequestConfig(o)
	require.NoError(t, err)
	return cfg
}

func messages(lines ...string) []domain.FormattedMessage {
	out := make([]domain.FormattedMessage, len(lines))
	for i, l := range lines {
		out[i] = domain.NewFormattedMessage([]byte(l))
	}
	return out
}

func TestDispatch_PostsGzipJSONLines(t *testing.T) {
	var gotBody string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "123456789", r.URL.Query().Get("token"))
		assert.Equal(t, domain.DefaultType, r.URL.Query().Get("type"))
		assert.Equal(t, "gzip", r.Header.Get("Content-Encoding"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		zr, err := gzip.NewReader(r.Body)
		require.NoError(t, err)
		b, err := io.ReadAll(zr)
		require.NoError(t, err)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	obs := &recordingObserver{}
	tr, err := NewTransport(newConfig(t, ts.URL, true), nil, WithObserver(obs))
	require.NoError(t, err)
	defer tr.Close()

	err = tr.Dispatch(context.Background(), messages("{\"message\":\"LINE 1\"}\n", "{\"message\":\"LINE 2\"}\n"))
	require.NoError(t, err)

	assert.Equal(t, "{\"message\":\"LINE 1\"}\n{\"message\":\"LINE 2\"}\n", gotBody)
	require.Len(t, obs.got, 1)
	assert.Equal(t, 2, obs.got[0].messages)
	assert.Equal(t, len(gotBody), obs.got[0].bytes)
	assert.NoError(t, obs.got[0].err)
}

func TestDispatch_Uncompressed(t *testing.T) {
	var gotBody string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Content-Encoding"))
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
	}))
	defer ts.Close()

	tr, err := NewTransport(newConfig(t, ts.URL, false), nil, WithUserAgent("logzship/test"))
	require.NoError(t, err)

	require.NoError(t, tr.Dispatch(context.Background(), messages("a\n", "b\n")))
	assert.Equal(t, "a\nb\n", gotBody)
}

func TestDispatch_EmptyBatchSendsNothing(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer ts.Close()

	tr, err := NewTransport(newConfig(t, ts.URL, true), nil)
	require.NoError(t, err)

	require.NoError(t, tr.Dispatch(context.Background(), nil))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestDispatch_RetriesServerErrors(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	rep := &recordingReporter{}
	tr, err := NewTransport(newConfig(t, ts.URL, true), rep, WithRetryDelay(time.Millisecond, 5*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, tr.Dispatch(context.Background(), messages("x\n")))
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	assert.Len(t, rep.warnings, 1)
	assert.Len(t, rep.infos, 1)
	assert.Empty(t, rep.errors)
}

func TestDispatch_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer ts.Close()

	rep := &recordingReporter{}
	obs := &recordingObserver{}
	tr, err := NewTransport(newConfig(t, ts.URL, true), rep,
		WithRetryDelay(time.Millisecond, time.Millisecond), WithObserver(obs))
	require.NoError(t, err)

	err = tr.Dispatch(context.Background(), messages("x\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrServer))

	var serr *domain.ServerError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusBadGateway, serr.StatusCode)
	assert.Equal(t, "down", serr.Body)

	assert.EqualValues(t, domain.DefaultMaxAttempts, atomic.LoadInt32(&calls))
	assert.Len(t, rep.warnings, domain.DefaultMaxAttempts-1)
	assert.Len(t, rep.errors, 1)
	require.Len(t, obs.got, 1)
	assert.Error(t, obs.got[0].err)
}

func TestDispatch_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer ts.Close()

	tr, err := NewTransport(newConfig(t, ts.URL, true), nil, WithRetryDelay(time.Millisecond, time.Millisecond))
	require.NoError(t, err)

	err = tr.Dispatch(context.Background(), messages("x\n"))
	var serr *domain.ServerError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusUnauthorized, serr.StatusCode)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestDispatch_ConnectionFailureHidesToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	tr, err := NewTransport(newConfig(t, url, true), nil, WithRetryDelay(time.Millisecond, time.Millisecond))
	require.NoError(t, err)

	err = tr.Dispatch(context.Background(), messages("x\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrServer))

	var serr *domain.ServerError
	require.True(t, errors.As(err, &serr))
	assert.Zero(t, serr.StatusCode)
	assert.NotContains(t, err.Error(), "123456789")
}

func TestDispatch_CanceledContextStopsRetrying(t *testing.T) {
	var calls int32
	ctx, cancel := context.WithCancel(context.Background())
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		cancel()
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer ts.Close()

	tr, err := NewTransport(newConfig(t, ts.URL, true), nil, WithRetryDelay(time.Millisecond, time.Millisecond))
	require.NoError(t, err)

	err = tr.Dispatch(ctx, messages("x\n"))
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestNewTransport_RejectsUninitializedConfig(t *testing.T) {
	tr, err := NewTransport(domain.SendRequestConfig{}, nil)
	assert.Nil(t, tr)
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}
