package handlers

import "sync"

// PendingBroadcasts tracks which operators have armed /broadcast and are
// expected to send the broadcast content as their next message. The state
// is process-local; a restart simply disarms.
type PendingBroadcasts struct {
	mu    sync.Mutex
	armed map[int64]bool
}

// NewPendingBroadcasts creates an empty pending set.
func NewPendingBroadcasts() *PendingBroadcasts {
	return &PendingBroadcasts{armed: make(map[int64]bool)}
}

// Arm marks the operator as owing broadcast content.
func (p *PendingBroadcasts) Arm(operatorID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.armed[operatorID] = true
}

// Consume clears and reports the operator's armed state.
func (p *PendingBroadcasts) Consume(operatorID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.armed[operatorID] {
		return false
	}
	delete(p.armed, operatorID)
	return true
}

// Disarm clears the operator's armed state without consuming it.
func (p *PendingBroadcasts) Disarm(operatorID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.armed, operatorID)
}
