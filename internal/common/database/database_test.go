package database

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uni-directory/internal/common/config"
)

func TestNewRedis(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	require.NoError(t, client.Ping(context.Background()))
	require.NoError(t, client.Close())
}

func TestRedisPing_Down(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	mr.Close()
	err = client.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}

func TestNewElasticsearch(t *testing.T) {
	_, err := NewElasticsearch(config.ElasticsearchConfig{}, nil)
	assert.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"version": {"number": "8.11.0"}}`))
	}))
	defer srv.Close()

	es, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{srv.URL}, Index: "programmes"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "programmes", es.Index)
	assert.NoError(t, es.Ping(context.Background()))
}

func TestElasticsearchPing_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	es, err := NewElasticsearch(config.ElasticsearchConfig{URL: srv.URL}, nil)
	require.NoError(t, err)
	err = es.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
