//go:build !jack
// +build !jack

package midijack

import "errors"

// errNoDriver is what Open reports when the module was built without JACK
// support. Clients degrade the same way they do when the server is down.
var errNoDriver = errors.New("built without JACK support (rebuild with -tags jack)")

type stubDriver struct{}

func (stubDriver) Open(string) (Client, error) {
	return nil, errNoDriver
}

func defaultDriver() Driver { return stubDriver{} }
