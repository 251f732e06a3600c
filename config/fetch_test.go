package config

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchRuntimeConfigSuccess(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/binance/gate-01", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("only_new"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"algo":"maker-v1","data":{"assets_labels":[{"common":"BTC","venue":"XBT"}]}}`))
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL)
	cfg, err := f.Fetch(context.Background(), "binance", "gate-01", false)
	require.NoError(t, err)
	assert.Equal(t, "maker-v1", cfg.Algo)
	require.Len(t, cfg.Data.AssetsLabels, 1)
	assert.Equal(t, "BTC", cfg.Data.AssetsLabels[0].Common)
}

func TestFetchRuntimeConfigServerErrorWraps(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL)
	_, err := f.Fetch(context.Background(), "binance", "gate-01", false)
	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestDefaultAssetsAndSymbols(t *testing.T) {
	t.Parallel()
	cfg := RuntimeConfig{
		Data: Data{
			AssetsLabels: []AssetLabel{{Common: "BTC"}, {Common: "USDT"}},
			Markets:      []Market{{CommonSymbol: "BTC/USDT"}},
		},
	}
	assert.Equal(t, []string{"BTC", "USDT"}, cfg.DefaultAssets())
	assert.Equal(t, []string{"BTC/USDT"}, cfg.Symbols())
}
