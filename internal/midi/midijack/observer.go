package midijack

import "github.com/aethertone/midi/sdk/contracts"

// Observer exists so generic code can parameterize over every backend
// uniformly. JACK offers no client-side topology subscription here, so the
// callbacks are held but never invoked.
type Observer struct {
	callbacks contracts.ObserverCallbacks
}

// NewObserver builds the stub observer.
func NewObserver(callbacks contracts.ObserverCallbacks) (contracts.Observer, error) {
	return &Observer{callbacks: callbacks}, nil
}

// Close releases nothing; the observer holds no server resources.
func (o *Observer) Close() error { return nil }
