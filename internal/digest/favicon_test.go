package digest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProberResolveReturnsFaviconURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/favicon.ico" {
			w.WriteHeader(http.StatusOK)

			return
		}

		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	prober := NewProber(100, time.Second, nil)

	got := prober.Resolve(context.Background(), server.URL+"/some/article")

	assert.Equal(t, server.URL+"/favicon.ico", got)
}

func TestProberResolveMissDegradesToEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	prober := NewProber(100, time.Second, nil)

	assert.Empty(t, prober.Resolve(context.Background(), server.URL+"/page"))
}

func TestProberResolveBadURLNeverErrors(t *testing.T) {
	prober := NewProber(100, time.Second, nil)

	assert.Empty(t, prober.Resolve(context.Background(), "::not-a-url"))
	assert.Empty(t, prober.Resolve(context.Background(), "relative/path"))
	assert.Empty(t, prober.Resolve(context.Background(), ""))
}

func TestProberResolveUnreachableHostDegradesToEmpty(t *testing.T) {
	prober := NewProber(100, 200*time.Millisecond, nil)

	assert.Empty(t, prober.Resolve(context.Background(), "http://127.0.0.1:1/page"))
}
