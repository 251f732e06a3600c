package engine

import (
	"context"
	"sync/atomic"

	"github.com/meridianfx/marketgate/exchanges"
)

// CredentialPool owns one exchange driver per API credential and dispenses
// them round-robin, gating concurrent private-API calls behind a
// permits-sized semaphore (spec §4.3, §5 "private credential pool").
type CredentialPool struct {
	drivers []exchanges.Driver
	next    uint64
	permits chan struct{}
}

// NewCredentialPool builds a pool over one driver per credential. The
// semaphore is sized to len(drivers): at most one in-flight private call
// per credential at a time.
func NewCredentialPool(drivers []exchanges.Driver) *CredentialPool {
	permits := make(chan struct{}, len(drivers))
	for i := 0; i < len(drivers); i++ {
		permits <- struct{}{}
	}
	return &CredentialPool{drivers: drivers, permits: permits}
}

// Acquire blocks until a permit is free, then returns the next driver in
// round-robin order along with a release function the caller must invoke
// exactly once when done with it.
func (p *CredentialPool) Acquire(ctx context.Context) (exchanges.Driver, func(), error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case <-p.permits:
	}
	idx := atomic.AddUint64(&p.next, 1) - 1
	driver := p.drivers[int(idx)%len(p.drivers)]
	release := func() { p.permits <- struct{}{} }
	return driver, release, nil
}

// Close closes every driver in the pool, returning the first error
// encountered, if any.
func (p *CredentialPool) Close() error {
	var firstErr error
	for _, d := range p.drivers {
		if err := d.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// PublicPool wraps a single driver used for order-book polling, which the
// spec explicitly exempts from the private semaphore (§4.3: "not gated by
// the private semaphore").
type PublicPool struct {
	driver exchanges.Driver
}

// NewPublicPool wraps driver for ungated public-API use.
func NewPublicPool(driver exchanges.Driver) *PublicPool {
	return &PublicPool{driver: driver}
}

// Driver returns the single driver instance backing this pool.
func (p *PublicPool) Driver() exchanges.Driver {
	return p.driver
}

// Close closes the underlying driver.
func (p *PublicPool) Close() error {
	return p.driver.Close()
}
