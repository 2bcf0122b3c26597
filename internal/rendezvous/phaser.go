// Package rendezvous provides a reusable barrier for a dynamic set of parties.
//
// A Phaser counts registered parties and the number that have arrived in the
// current phase. When the last unarrived party arrives (or deregisters), the
// phase advances and every waiter is released at once. Parties may register
// and deregister at any time, which makes it a fit for work whose size is
// only known as it runs.
package rendezvous

import (
	"context"
	"sync"
)

// Phaser is a generation-counted barrier. The zero value is not usable; call New.
type Phaser struct {
	mu      sync.Mutex
	parties int
	arrived int
	phase   uint64
	advance chan struct{}
}

// New returns a Phaser with the given number of parties already registered.
func New(parties int) *Phaser {
	if parties < 0 {
		panic("rendezvous: negative party count")
	}
	return &Phaser{
		parties: parties,
		advance: make(chan struct{}),
	}
}

// Register adds one unarrived party to the current phase and returns the phase number.
func (p *Phaser) Register() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.parties++
	return p.phase
}

// ArriveAndDeregister records the caller's arrival and removes it from the
// party count without waiting. It returns the phase it arrived at.
func (p *Phaser) ArriveAndDeregister() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.parties == 0 {
		panic("rendezvous: deregister with no registered parties")
	}
	phase := p.phase
	p.parties--
	p.tryAdvanceLocked()
	return phase
}

// ArriveAndAwaitAdvance records the caller's arrival and blocks until every
// registered party has arrived or deregistered. It returns the new phase.
//
// If ctx ends first, the arrival is withdrawn and ctx.Err() is returned.
func (p *Phaser) ArriveAndAwaitAdvance(ctx context.Context) (uint64, error) {
	p.mu.Lock()
	if p.parties == 0 {
		p.mu.Unlock()
		panic("rendezvous: arrive with no registered parties")
	}
	phase := p.phase
	wait := p.advance
	p.arrived++
	p.tryAdvanceLocked()
	p.mu.Unlock()

	select {
	case <-wait:
		return phase + 1, nil
	case <-ctx.Done():
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.phase != phase {
			// Advanced concurrently with the cancellation.
			return p.phase, nil
		}
		p.arrived--
		return phase, ctx.Err()
	}
}

// RegisteredParties returns the number of parties currently registered.
func (p *Phaser) RegisteredParties() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.parties
}

func (p *Phaser) tryAdvanceLocked() {
	if p.arrived < p.parties {
		return
	}
	// Every remaining party is waiting; also covers the last party deregistering.
	p.arrived = 0
	p.phase++
	close(p.advance)
	p.advance = make(chan struct{})
}
