// SPDX-License-Identifier: MPL-2.0

package transport

import (
	"net"
	"strings"

	"github.com/invowk/m3bridge/internal/issue"
	"github.com/invowk/m3bridge/pkg/types"
)

// Loopback is dialed when an endpoint has no host.
const Loopback = "localhost"

// Endpoint is the orchestrator address.
type Endpoint struct {
	// Host is empty for the loopback interface.
	Host string
	Port types.Port
}

// ParseEndpoint parses "port" or "host:port". The token is split on its
// first colon. Errors are *issue.ArgumentParseError.
func ParseEndpoint(token string) (Endpoint, error) {
	host, portToken, found := strings.Cut(strings.TrimSpace(token), ":")
	if !found {
		host, portToken = "", host
	}
	port, err := types.ParsePort(portToken)
	if err != nil {
		return Endpoint{}, &issue.ArgumentParseError{Token: token, Cause: err}
	}
	return Endpoint{Host: strings.TrimSpace(host), Port: port}, nil
}

// Address returns the dialable host:port form.
func (e Endpoint) Address() string {
	host := e.Host
	if host == "" {
		host = Loopback
	}
	return net.JoinHostPort(host, e.Port.String())
}

// String implements fmt.Stringer.
func (e Endpoint) String() string {
	if e.Host == "" {
		return e.Port.String()
	}
	return e.Host + ":" + e.Port.String()
}
