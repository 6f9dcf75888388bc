package client

import (
	"context"
	"time"
)

// Readiness probe tuning. The backend may be asleep and take up to a minute to boot.
const (
	ProbeTimeout       = 8 * time.Second
	DefaultReadyWait   = 65 * time.Second
	readyInitialDelay  = 400 * time.Millisecond
	readyBackoffFactor = 1.6
	readyMaxDelay      = 5 * time.Second
)

// Prober tells callers whether the backend is reachable
type Prober struct {
	Client  *Client
	Timeout time.Duration

	// Sleep waits between probes; replaced in tests
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

// NewProber creates a Prober backed by c
func NewProber(c *Client) *Prober {
	return &Prober{Client: c, Timeout: ProbeTimeout, Sleep: SleepContext, Now: time.Now}
}

// Probe performs one bounded liveness check. Any failure means not ready.
func (p *Prober) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return p.Client.Health(ctx) == nil
}

// EnsureReady probes until the backend answers or maxWait elapses
func (p *Prober) EnsureReady(ctx context.Context, maxWait time.Duration) bool {
	if maxWait <= 0 {
		maxWait = DefaultReadyWait
	}
	deadline := p.Now().Add(maxWait)
	delay := readyInitialDelay

	for {
		if p.Probe(ctx) {
			return true
		}
		remaining := deadline.Sub(p.Now())
		if remaining <= 0 {
			return false
		}
		wait := delay
		if wait > remaining {
			wait = remaining
		}
		if err := p.Sleep(ctx, wait); err != nil {
			return false
		}
		delay = time.Duration(float64(delay) * readyBackoffFactor)
		if delay > readyMaxDelay {
			delay = readyMaxDelay
		}
	}
}

// SleepContext waits for d or until ctx is done
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
