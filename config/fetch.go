package config

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// ErrFetchFailed wraps any non-2xx response from the configurator.
var ErrFetchFailed = errors.New("config: fetch failed")

// Fetcher retrieves the runtime configuration document from the
// configurator service identified by a Bootstrap (spec §6.3: "GET a JSON
// blob, unmarshal into a struct", using a resty client).
type Fetcher struct {
	http *resty.Client
}

// NewFetcher builds a Fetcher pointed at the configurator's base URL.
func NewFetcher(baseURL string) *Fetcher {
	return &Fetcher{
		http: resty.New().SetBaseURL(baseURL),
	}
}

// Fetch retrieves the runtime configuration for exchangeID/instance. The
// onlyNew flag mirrors the configurator's own query parameter, letting
// callers ask for only what has changed since the last fetch.
func (f *Fetcher) Fetch(ctx context.Context, exchangeID, instance string, onlyNew bool) (RuntimeConfig, error) {
	var cfg RuntimeConfig
	resp, err := f.http.R().
		SetContext(ctx).
		SetQueryParam("only_new", fmt.Sprintf("%t", onlyNew)).
		SetResult(&cfg).
		Get(fmt.Sprintf("/%s/%s", exchangeID, instance))
	if err != nil {
		return RuntimeConfig{}, errors.Wrap(err, "config: fetch runtime config")
	}
	if resp.IsError() {
		return RuntimeConfig{}, errors.Wrapf(ErrFetchFailed, "status %d", resp.StatusCode())
	}
	return cfg, nil
}
