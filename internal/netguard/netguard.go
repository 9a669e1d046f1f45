// Package netguard decides whether a probe target points at an internal
// network. It only inspects the literal host; names are not resolved.
package netguard

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrBlocked is returned when a target host is internal and blocking is on.
var ErrBlocked = errors.New("internal host blocked")

var privateCIDRs []*net.IPNet

func init() {
	cidrs := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"169.254.0.0/16",
		"0.0.0.0/8",
		"::1/128",
		"fc00::/7",
		"fe80::/10",
	}
	for _, c := range cidrs {
		_, n, _ := net.ParseCIDR(c)
		privateCIDRs = append(privateCIDRs, n)
	}
}

// IsInternalHost returns true if the host is considered internal or loopback.
func IsInternalHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".internal") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsUnspecified() {
			return true
		}
		for _, n := range privateCIDRs {
			if n.Contains(ip) {
				return true
			}
		}
	}
	return false
}

// Check returns ErrBlocked for URLs whose host is internal.
func Check(u *url.URL) error {
	if IsInternalHost(u.Hostname()) {
		return fmt.Errorf("%w: %s", ErrBlocked, u.Host)
	}
	return nil
}
