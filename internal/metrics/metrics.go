package metrics

import (
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Payments tracks payment outcomes for the health endpoint.
type Payments struct {
	Initiated        Counter
	GatewayErrors    Counter
	Succeeded        Counter
	Failed           Counter
	StaleWrites      Counter
	WebhooksRejected Counter
	Reconciled       Counter
}

func NewPayments() *Payments {
	return &Payments{}
}

func (p *Payments) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"initiated":         p.Initiated.Load(),
		"gateway_errors":    p.GatewayErrors.Load(),
		"succeeded":         p.Succeeded.Load(),
		"failed":            p.Failed.Load(),
		"stale_writes":      p.StaleWrites.Load(),
		"webhooks_rejected": p.WebhooksRejected.Load(),
		"reconciled":        p.Reconciled.Load(),
	}
}
