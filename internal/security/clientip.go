package security

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// IPResolver works out the address a request should be rate limited by.
// Forwarding headers are only honoured when the connection comes from one
// of the trusted proxy networks, otherwise any caller could pick its own key.
type IPResolver struct {
	trusted []*net.IPNet
}

// NewIPResolver accepts CIDRs ("10.0.0.0/8") or single addresses. With no
// entries every forwarding header is ignored.
func NewIPResolver(proxies []string) (*IPResolver, error) {
	resolver := &IPResolver{}
	for _, entry := range proxies {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", entry)
			}
			bits := 128
			if ip.To4() != nil {
				ip = ip.To4()
				bits = 32
			}
			resolver.trusted = append(resolver.trusted, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, network, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
		}
		resolver.trusted = append(resolver.trusted, network)
	}
	return resolver, nil
}

func (res *IPResolver) isTrusted(ip net.IP) bool {
	if res == nil || ip == nil {
		return false
	}
	for _, network := range res.trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP returns the caller's address. Behind a trusted proxy the
// X-Forwarded-For chain is walked from the right and the first hop that is
// not itself a trusted proxy wins, falling back to X-Real-IP. A nil
// resolver always uses the connection's remote address.
func (res *IPResolver) ClientIP(r *http.Request) string {
	remote := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		remote = host
	}
	if !res.isTrusted(net.ParseIP(remote)) {
		return remote
	}

	var hops []string
	for _, value := range r.Header.Values("X-Forwarded-For") {
		for _, hop := range strings.Split(value, ",") {
			if hop = strings.TrimSpace(hop); hop != "" {
				hops = append(hops, hop)
			}
		}
	}
	for i := len(hops) - 1; i >= 0; i-- {
		ip := net.ParseIP(hops[i])
		if ip == nil {
			// a malformed hop was not written by a proxy we trust
			break
		}
		if !res.isTrusted(ip) {
			return ip.String()
		}
	}

	if realIP := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); realIP != nil {
		return realIP.String()
	}
	return remote
}
