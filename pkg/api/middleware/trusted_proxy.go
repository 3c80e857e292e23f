package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// TrustedProxies is the set of networks whose forwarding headers are believed.
type TrustedProxies []*net.IPNet

// ParseTrustedProxies parses CIDR ranges or bare IPs. Bare IPs become /32 or /128.
func ParseTrustedProxies(entries []string) (TrustedProxies, error) {
	var networks TrustedProxies
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy ip %q", entry)
			}
			if ip.To4() != nil {
				entry += "/32"
			} else {
				entry += "/128"
			}
		}
		_, network, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy cidr %q: %w", entry, err)
		}
		networks = append(networks, network)
	}
	return networks, nil
}

// Contains reports whether remoteAddr (host or host:port) is a trusted proxy.
func (t TrustedProxies) Contains(remoteAddr string) bool {
	if len(t) == 0 {
		return false
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	for _, network := range t {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP returns the caller's address. X-Real-IP and the leftmost
// X-Forwarded-For entry are only honoured when the direct peer is trusted.
func (t TrustedProxies) ClientIP(r *http.Request) string {
	if t.Contains(r.RemoteAddr) {
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip.String()
		}
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip.String()
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
