package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}.withDefaults()
	assert.Equal(t, 10*time.Second, opts.ConnectTimeout)
	assert.Equal(t, 30*time.Second, opts.KeepAlive)
	assert.Equal(t, 600*time.Second, opts.IdleConnTimeout)

	opts = Options{ConnectTimeout: time.Second}.withDefaults()
	assert.Equal(t, time.Second, opts.ConnectTimeout)
}

func TestDoSuccessLeavesBodyUnread(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	c := New(Options{})
	defer c.Close()

	res, err := c.Do(context.Background(), http.MethodGet, srv.URL+"/key", http.Header{}, nil)
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))
}

func TestDoNonSuccessBecomesStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("<Error><Code>AccessDenied</Code></Error>"))
	}))
	defer srv.Close()

	c := New(Options{})
	defer c.Close()

	_, err := c.Do(context.Background(), http.MethodGet, srv.URL+"/key", http.Header{}, nil)
	require.Error(t, err)

	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusForbidden, serr.StatusCode)
	assert.Contains(t, serr.Body, "AccessDenied")
	assert.Contains(t, serr.Error(), "403")
}

func TestDoSendsPreparedHeadersAndBody(t *testing.T) {
	var gotAuth, gotHost string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotHost = r.Host
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Options{})
	defer c.Close()

	headers := http.Header{}
	headers.Set("Authorization", "AWS4-HMAC-SHA256 Credential=test")
	headers.Set("Host", "bucket.example.com")

	res, err := c.Do(context.Background(), http.MethodPut, srv.URL+"/key", headers, []byte("content"))
	require.NoError(t, err)
	_ = res.Body.Close()

	assert.Equal(t, "AWS4-HMAC-SHA256 Credential=test", gotAuth)
	assert.Equal(t, "bucket.example.com", gotHost, "Host header must override the URL host")
	assert.Equal(t, []byte("content"), gotBody)
}

func TestDoHonorsContextCancellation(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := New(Options{})
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := c.Do(ctx, http.MethodGet, srv.URL+"/key", http.Header{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
