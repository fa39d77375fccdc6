// Package metrics constructs the metrics the application will track.
package metrics

import (
	"expvar"
	"runtime"
)

// m holds the set of metrics. The expvar package registers names globally
// so there can only be one set per process.
var m = struct {
	goroutines *expvar.Int
	requests   *expvar.Int
	errors     *expvar.Int
	panics     *expvar.Int
	blocks     *expvar.Int
}{
	goroutines: expvar.NewInt("goroutines"),
	requests:   expvar.NewInt("requests"),
	errors:     expvar.NewInt("errors"),
	panics:     expvar.NewInt("panics"),
	blocks:     expvar.NewInt("blocks_mined"),
}

// AddRequests increments the request metric by 1. Every 100 requests the
// goroutine count is sampled.
func AddRequests() int64 {
	m.requests.Add(1)

	v := m.requests.Value()
	if v%100 == 0 {
		m.goroutines.Set(int64(runtime.NumGoroutine()))
	}

	return v
}

// AddErrors increments the errors metric by 1.
func AddErrors() int64 {
	m.errors.Add(1)
	return m.errors.Value()
}

// AddPanics increments the panics metric by 1.
func AddPanics() int64 {
	m.panics.Add(1)
	return m.panics.Value()
}

// AddBlocks increments the mined blocks metric by 1.
func AddBlocks() int64 {
	m.blocks.Add(1)
	return m.blocks.Value()
}
