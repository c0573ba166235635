// Package urlsafety validates user-supplied domains before any fetch touches
// them. It rejects non-HTTP(S) schemes and hosts that resolve to private or
// otherwise non-public addresses (SSRF guard).
package urlsafety

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

var (
	// ErrUnsupportedScheme is returned for anything other than http/https.
	ErrUnsupportedScheme = errors.New("only http/https URLs are supported")
	// ErrInvalidDomain is returned when no host can be parsed from the input.
	ErrInvalidDomain = errors.New("invalid domain URL")
	// ErrPrivateHost is returned when the host resolves to a private,
	// loopback, link-local, multicast, or unspecified address.
	ErrPrivateHost = errors.New("domain is not allowed (private/internal host)")
)

// LookupFunc resolves a hostname to its addresses. Swappable in tests.
type LookupFunc func(host string) ([]net.IP, error)

// Gate normalizes and validates domains.
type Gate struct {
	lookup LookupFunc
}

// NewGate creates a gate using the default system resolver.
func NewGate() *Gate {
	return &Gate{lookup: net.LookupIP}
}

// NewGateWithLookup creates a gate with a custom resolver.
func NewGateWithLookup(lookup LookupFunc) *Gate {
	return &Gate{lookup: lookup}
}

// NormalizeDomain validates a raw user-supplied domain and returns it reduced
// to scheme+host. A missing scheme defaults to https. Path, query, and
// fragment are stripped.
func (g *Gate) NormalizeDomain(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidDomain
	}

	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDomain, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrUnsupportedScheme
	}
	if u.Host == "" || u.Hostname() == "" {
		return "", ErrInvalidDomain
	}

	public, err := g.isPublicHost(u.Hostname())
	if err != nil || !public {
		return "", ErrPrivateHost
	}

	return fmt.Sprintf("%s://%s", u.Scheme, u.Host), nil
}

// isPublicHost resolves the host (literal IPs skip DNS) and requires every
// returned address to be publicly routable.
func (g *Gate) isPublicHost(host string) (bool, error) {
	if ip := net.ParseIP(host); ip != nil {
		return isPublicIP(ip), nil
	}

	ips, err := g.lookup(host)
	if err != nil {
		return false, fmt.Errorf("resolve host %q: %w", host, err)
	}
	if len(ips) == 0 {
		return false, nil
	}

	for _, ip := range ips {
		if !isPublicIP(ip) {
			return false, nil
		}
	}
	return true, nil
}

func isPublicIP(ip net.IP) bool {
	switch {
	case ip.IsPrivate(),
		ip.IsLoopback(),
		ip.IsLinkLocalUnicast(),
		ip.IsLinkLocalMulticast(),
		ip.IsMulticast(),
		ip.IsUnspecified():
		return false
	}
	return ip.IsGlobalUnicast()
}
