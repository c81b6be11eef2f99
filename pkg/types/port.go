// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPort is the sentinel error wrapped by InvalidPortError.
var ErrInvalidPort = errors.New("invalid port")

type (
	// Port represents a TCP port the bridge dials to reach the orchestrator.
	// Unlike a listen port there is no auto-select value: 0 is invalid.
	Port int

	// InvalidPortError is returned when a Port value is outside 1-65535
	// or a port token cannot be parsed.
	InvalidPortError struct {
		Token string
		Value Port
	}
)

// ParsePort parses a decimal port token and validates its range.
func ParsePort(token string) (Port, error) {
	n, err := strconv.Atoi(strings.TrimSpace(token))
	if err != nil {
		return 0, &InvalidPortError{Token: token}
	}
	p := Port(n)
	if err := p.Validate(); err != nil {
		return 0, &InvalidPortError{Token: token, Value: p}
	}
	return p, nil
}

// String returns the decimal string representation of the Port.
func (p Port) String() string { return strconv.Itoa(int(p)) }

// Validate returns an error if the Port is outside 1-65535.
func (p Port) Validate() error {
	if p < 1 || p > 65535 {
		return &InvalidPortError{Token: p.String(), Value: p}
	}
	return nil
}

// Error implements the error interface for InvalidPortError.
func (e *InvalidPortError) Error() string {
	return fmt.Sprintf("invalid port %q: must be a number in 1-65535", e.Token)
}

// Unwrap returns ErrInvalidPort for errors.Is() compatibility.
func (e *InvalidPortError) Unwrap() error { return ErrInvalidPort }
