package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// proxyHeaders are consulted in order when the origin trusts its proxy.
var proxyHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// ParseAddr parses "ip", "ip:port" or "[v6]:port". IPv4-mapped IPv6
// addresses are unmapped so they match IPv4 rules.
func ParseAddr(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, false
	}
	if h, _, err := net.SplitHostPort(s); err == nil {
		s = h
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

// ClientAddr resolves the caller's address. With trustProxy it prefers
// the proxy headers (left-most X-Forwarded-For hop) over RemoteAddr.
func ClientAddr(r *http.Request, trustProxy bool) (netip.Addr, bool) {
	if trustProxy {
		for _, h := range proxyHeaders {
			v := r.Header.Get(h)
			if first, _, found := strings.Cut(v, ","); found {
				v = first
			}
			if addr, ok := ParseAddr(v); ok {
				return addr, true
			}
		}
	}
	return ParseAddr(r.RemoteAddr)
}

// ClientIP is ClientAddr as a string key, falling back to the raw
// RemoteAddr when it does not parse.
func ClientIP(r *http.Request, trustProxy bool) string {
	if addr, ok := ClientAddr(r, trustProxy); ok {
		return addr.String()
	}
	return r.RemoteAddr
}

// IPMatcher matches addresses against a list of IPs and CIDRs. A bare IP
// is stored as a single-address prefix.
type IPMatcher struct {
	prefixes []netip.Prefix
}

// NewIPMatcher parses list, skipping blanks and entries that are neither
// an IP nor a CIDR.
func NewIPMatcher(list []string) *IPMatcher {
	m := &IPMatcher{}
	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			m.prefixes = append(m.prefixes, p.Masked())
			continue
		}
		if addr, ok := ParseAddr(s); ok {
			m.prefixes = append(m.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return m
}

func (m *IPMatcher) IsEmpty() bool { return len(m.prefixes) == 0 }

func (m *IPMatcher) Len() int { return len(m.prefixes) }

// Allow reports whether addr falls inside any rule.
func (m *IPMatcher) Allow(addr netip.Addr) bool {
	if !addr.IsValid() {
		return false
	}
	addr = addr.Unmap()
	for _, p := range m.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
