package dmc

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floodwatch-lk/flood-data-api/internal/cache"
	"github.com/floodwatch-lk/flood-data-api/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient() *Client {
	return NewClient(5*time.Second, discardLogger(), observability.NewMetricsForTesting())
}

func testCache() *cache.Cache {
	return cache.New(clockwork.NewFakeClock(), 15*time.Minute, 100)
}

func TestListingResolverPicksNewestArtifact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[
			{"name": "20240101.060000.json"},
			{"name": "20240102.120000.json"},
			{"name": "20240102.060000.json"},
			{"name": "README.md"},
			{"name": "latest.json"}
		]`))
	}))
	defer srv.Close()

	r := NewListingResolver(testClient(), srv.URL, ".json", testCache(), "latest_water_level_file")
	name, err := r.Latest(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "20240102.120000.json", name)
}

func TestListingResolverNoMatchReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[{"name": "notes.txt"}]`))
	}))
	defer srv.Close()

	r := NewListingResolver(testClient(), srv.URL, ".json", testCache(), "latest_water_level_file")
	name, err := r.Latest(context.Background())

	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestListingResolverMemoizesResult(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Write([]byte(`[{"name": "20240102.120000.json"}]`))
	}))
	defer srv.Close()

	r := NewListingResolver(testClient(), srv.URL, ".json", testCache(), "latest_water_level_file")
	ctx := context.Background()

	_, err := r.Latest(ctx)
	require.NoError(t, err)
	_, err = r.Latest(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
}

func TestListingResolverUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewListingResolver(testClient(), srv.URL, ".json", testCache(), "latest_water_level_file")
	_, err := r.Latest(context.Background())

	assert.ErrorContains(t, err, "status 500")
}

func TestIndexResolverSkipsRowsWithoutMarker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("20240102.130000.flood-warning\tFlood Warning\n" +
			"20240102.120000.water-level\tWater Level Report\n" +
			"20240102.060000.water-level\tWater Level Report\n"))
	}))
	defer srv.Close()

	r := NewIndexResolver(testClient(), srv.URL, "water-level", testCache(), "latest_water_level_doc")
	id, err := r.Latest(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "20240102.120000.water-level", id)
}

func TestIndexResolverNoMatchReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("20240102.130000.flood-warning\tFlood Warning\n\n"))
	}))
	defer srv.Close()

	r := NewIndexResolver(testClient(), srv.URL, "water-level", testCache(), "latest_water_level_doc")
	id, err := r.Latest(context.Background())

	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestTimestampFromArtifact(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"dated json file", "20240102.120000.json", "2024-01-02 12:00:00"},
		{"document id", "20240102.060000.water-level", "2024-01-02 06:00:00"},
		{"no prefix", "latest.json", ""},
		{"invalid date", "20241399.990000.json", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, timestampFromArtifact(tt.in))
		})
	}
}
