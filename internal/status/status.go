// Package status determines whether each local environment is up.
//
// The Aggregator cross-references the environments known to a registry with
// the containers running in the container runtime. Only two failures abort a
// run: an unreachable runtime and an unreadable registry. Anything that goes
// wrong for a single environment is recorded on that environment's row.
package status

import (
	"errors"
	"fmt"

	"github.com/egeskov/localenv/internal/registry"
)

// ErrRuntimeUnavailable is returned when the runtime does not answer the probe
var ErrRuntimeUnavailable = errors.New("container runtime unavailable")

// State is the classification of one environment
type State int

const (
	StateDown State = iota
	StateUp
	StateError
)

func (s State) String() string {
	switch s {
	case StateUp:
		return "UP"
	case StateDown:
		return "DOWN"
	case StateError:
		return "ERROR"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// EnvironmentStatus is one row of the report
type EnvironmentStatus struct {
	ID    registry.EnvironmentID
	State State
	// PrimaryURL is empty when the environment's host could not be resolved.
	PrimaryURL string
	// Err holds the failure behind StateError, or the config error when the URL is missing.
	Err error
}

// URLForHost returns http://<host>/
func URLForHost(host string) string {
	if host == "" {
		return ""
	}
	return "http://" + host + "/"
}
