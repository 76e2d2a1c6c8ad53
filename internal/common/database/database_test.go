// internal/common/database/database_test.go
package database

import (
	"context"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"renovation-estimator/internal/common/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Embedded(t *testing.T) {
	files, err := fs.Glob(migrationsFS, migrationsDir+"/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		b, err := migrationsFS.ReadFile(f)
		require.NoError(t, err)
		assert.Contains(t, string(b), "-- +goose Up", f)
		assert.Contains(t, string(b), "-- +goose Down", f)
	}
}

func TestRedis_PingAndClose(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, client.Close())
}

func TestRedis_RequiresAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}

// fakeElasticsearch answers just enough of the API for EnsureIndex.
func fakeElasticsearch(t *testing.T, indexExists bool) (*httptest.Server, *[]string) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodHead && !indexExists:
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPut:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"acknowledged":true}`))
		default:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestElasticsearch_EnsureIndex(t *testing.T) {
	tests := []struct {
		name      string
		exists    bool
		wantPut   bool
		wantCalls int
	}{
		{name: "creates missing index", exists: false, wantPut: true, wantCalls: 2},
		{name: "leaves existing index", exists: true, wantPut: false, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := fakeElasticsearch(t, tt.exists)

			client, err := NewElasticsearch(config.ElasticsearchConfig{URL: srv.URL})
			require.NoError(t, err)

			require.NoError(t, client.EnsureIndex(context.Background(), "renovation-estimates", EstimatesMapping))
			assert.Len(t, *calls, tt.wantCalls)

			var put bool
			for _, c := range *calls {
				if strings.HasPrefix(c, http.MethodPut) {
					put = true
					assert.Equal(t, "PUT /renovation-estimates", c)
				}
			}
			assert.Equal(t, tt.wantPut, put)
		})
	}
}

func TestElasticsearch_Ping(t *testing.T) {
	srv, _ := fakeElasticsearch(t, true)

	client, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	assert.NoError(t, client.Ping(context.Background()))
}
