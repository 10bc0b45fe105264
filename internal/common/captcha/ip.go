package captcha

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ZeroIP is reported when no source yields a valid address.
var ZeroIP = netip.IPv4Unspecified()

// IPSources holds the raw header values a client address may come from.
type IPSources struct {
	ForwardedFor string // X-Forwarded-For
	RemoteAddr   string
	ClientIP     string // Client-IP
}

// IPSourcesFromRequest reads the candidate sources from an inbound request.
func IPSourcesFromRequest(r *http.Request) IPSources {
	if r == nil {
		return IPSources{}
	}
	remote := r.RemoteAddr
	if host, _, err := net.SplitHostPort(remote); err == nil {
		remote = host
	}
	return IPSources{
		ForwardedFor: r.Header.Get("X-Forwarded-For"),
		RemoteAddr:   remote,
		ClientIP:     r.Header.Get("Client-IP"),
	}
}

// Resolve returns the first comma separated token, across ForwardedFor,
// RemoteAddr and ClientIP in that order, that parses as an IP address or
// as an address with a port.
func (s IPSources) Resolve() netip.Addr {
	for _, raw := range []string{s.ForwardedFor, s.RemoteAddr, s.ClientIP} {
		for _, token := range strings.Split(raw, ",") {
			if addr, ok := parseAddr(strings.TrimSpace(token)); ok {
				return addr
			}
		}
	}
	return ZeroIP
}

func parseAddr(token string) (netip.Addr, bool) {
	if addr, err := netip.ParseAddr(token); err == nil {
		return addr, true
	}
	if addrPort, err := netip.ParseAddrPort(token); err == nil {
		return addrPort.Addr(), true
	}
	return netip.Addr{}, false
}
