// Package config loads the gateway's two-stage configuration: a small
// bootstrap file read from local disk at process start, and a richer
// runtime configuration fetched over HTTP once the bootstrap identifies
// where to fetch it from (spec §6.3).
package config

import (
	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

// ErrMissingBootstrapField is returned by LoadBootstrap when a required
// key is absent or empty.
var ErrMissingBootstrapField = errors.New("config: missing bootstrap field")

// Bootstrap holds the handful of values the gateway needs before it can
// reach the network: where to fetch its runtime configuration, which
// exchange it is fronting, and which deployed instance it is.
type Bootstrap struct {
	BaseURL    string
	ExchangeID string
	Instance   string
}

// LoadBootstrap reads the bootstrap INI file at path. The expected
// section layout is:
//
//	[configurator]
//	base_url    = https://config.internal.example.com
//	exchange_id = binance
//	instance    = gate-01
func LoadBootstrap(path string) (Bootstrap, error) {
	f, err := ini.Load(path)
	if err != nil {
		return Bootstrap{}, errors.Wrap(err, "config: load bootstrap ini")
	}
	section := f.Section("configurator")

	b := Bootstrap{
		BaseURL:    section.Key("base_url").String(),
		ExchangeID: section.Key("exchange_id").String(),
		Instance:   section.Key("instance").String(),
	}
	if err := b.validate(); err != nil {
		return Bootstrap{}, err
	}
	return b, nil
}

func (b Bootstrap) validate() error {
	switch {
	case b.BaseURL == "":
		return errors.Wrap(ErrMissingBootstrapField, "base_url")
	case b.ExchangeID == "":
		return errors.Wrap(ErrMissingBootstrapField, "exchange_id")
	case b.Instance == "":
		return errors.Wrap(ErrMissingBootstrapField, "instance")
	}
	return nil
}
