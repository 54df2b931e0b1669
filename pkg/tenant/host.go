package tenant

import (
	"net"
	"strings"
)

const loopbackName = "localhost"

// Target is the outcome of parsing a request host.
type Target struct {
	// Root is true when the host addresses the control-plane domain.
	Root bool
	// ID is the tenant label when Root is false.
	ID ID
}

// ParseHost splits host into a tenant label relative to baseDomain.
//
//	example.com          -> root
//	acme.example.com     -> acme
//	localhost, 127.0.0.1 -> root
//	acme.localhost       -> acme
//
// Hosts outside baseDomain yield ErrUnknownHost, and labels that are not a
// single valid identifier yield ErrInvalidIdentifier.
func ParseHost(host, baseDomain string) (Target, error) {
	host = normalizeHost(host)
	base := normalizeHost(baseDomain)

	if host == "" {
		return Target{}, ErrUnknownHost
	}
	if host == base || host == loopbackName {
		return Target{Root: true}, nil
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return Target{Root: true}, nil
	}

	var label string
	switch {
	case base != "" && strings.HasSuffix(host, "."+base):
		label = strings.TrimSuffix(host, "."+base)
	case strings.HasSuffix(host, "."+loopbackName):
		label = strings.TrimSuffix(host, "."+loopbackName)
	default:
		return Target{}, ErrUnknownHost
	}

	if strings.Contains(label, ".") {
		return Target{}, ErrInvalidIdentifier
	}
	id, err := ParseID(label)
	if err != nil {
		return Target{}, err
	}
	return Target{ID: id}, nil
}

// normalizeHost lower-cases h and strips the port and a trailing dot.
func normalizeHost(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	if hostOnly, _, err := net.SplitHostPort(h); err == nil {
		h = hostOnly
	}
	h = strings.Trim(h, "[]")
	return strings.TrimSuffix(h, ".")
}
