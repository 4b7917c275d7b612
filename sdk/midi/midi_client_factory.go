package midi

import (
	"errors"
	"fmt"

	"github.com/aethertone/midi/internal/midi/midijack"
	"github.com/aethertone/midi/sdk/contracts"
)

// ErrUnsupportedAPI is returned when no compiled-in backend matches the
// requested API tag.
var ErrUnsupportedAPI = errors.New("unsupported MIDI API")

// backends maps API tags to the corresponding backend bindings.
var backends = map[contracts.API]contracts.Backend{
	contracts.UnixJack: midijack.Backend(),
}

// backendFor resolves the backend for an API tag. Unspecified picks the JACK
// backend, the only one this module ships.
func backendFor(api contracts.API) (contracts.Backend, error) {
	if api == contracts.Unspecified {
		api = contracts.UnixJack
	}
	backend, ok := backends[api]
	if !ok {
		return contracts.Backend{}, fmt.Errorf("%w: %s", ErrUnsupportedAPI, api)
	}
	return backend, nil
}
