package main

import (
	"math/rand/v2"
	"time"
)

const jitterWindow = 250 * time.Millisecond

// pacer decides how long the relay sleeps between batches.
type pacer struct {
	base    time.Duration
	max     time.Duration
	current time.Duration
	jitter  func(time.Duration) time.Duration
}

func newPacer(base, max time.Duration) *pacer {
	return &pacer{base: base, max: max, current: base, jitter: addJitter}
}

func (p *pacer) reset() {
	p.current = p.base
}

func (p *pacer) idle() time.Duration {
	p.reset()
	return p.jitter(p.base)
}

// failure doubles the wait up to max.
func (p *pacer) failure() time.Duration {
	if p.current < p.base {
		p.current = p.base
	}
	p.current *= 2
	if p.current > p.max {
		p.current = p.max
	}
	return p.jitter(p.current)
}

func addJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + rand.N(jitterWindow)
}
