package clientip

import (
	"net"
	"net/http"
	"strings"
)

// Headers consulted by FromHeaders, highest priority first.
const (
	HeaderCloudflare   = "CF-Connecting-IP"
	HeaderDigitalOcean = "DO-Connecting-IP"
	HeaderForwardedFor = "X-Forwarded-For"
	HeaderRealIP       = "X-Real-IP"
)

// HeaderFunc returns a request header value, e.g. http.Header.Get.
type HeaderFunc func(name string) string

// GetIP returns the client's IP address from r. See FromHeaders.
func GetIP(r *http.Request) string {
	return FromHeaders(r.Header.Get, r.RemoteAddr)
}

// FromHeaders resolves the client IP from proxy headers, falling back to the
// peer address:
//  1. CF-Connecting-IP
//  2. DO-Connecting-IP
//  3. X-Forwarded-For (first valid entry)
//  4. X-Real-IP
//  5. remoteAddr
//
// The headers are client-controlled unless a proxy overwrites them. Returns
// "" when nothing parses.
func FromHeaders(header HeaderFunc, remoteAddr string) string {
	for _, name := range []string{HeaderCloudflare, HeaderDigitalOcean} {
		if parsed := parseIP(header(name)); parsed != "" {
			return parsed
		}
	}

	if forwarded := header(HeaderForwardedFor); forwarded != "" {
		for ip := range strings.SplitSeq(forwarded, ",") {
			if parsed := parseIP(ip); parsed != "" {
				return parsed
			}
		}
	}

	if parsed := parseIP(header(HeaderRealIP)); parsed != "" {
		return parsed
	}

	return PeerIP(remoteAddr)
}

// Chain returns every hop the request passed through, client first: the
// X-Forwarded-For entries followed by the peer address. ok is false when any
// entry is not a valid IP.
func Chain(header HeaderFunc, remoteAddr string) (hops []string, ok bool) {
	if forwarded := header(HeaderForwardedFor); strings.TrimSpace(forwarded) != "" {
		for entry := range strings.SplitSeq(forwarded, ",") {
			parsed := parseIP(entry)
			if parsed == "" {
				return nil, false
			}
			hops = append(hops, parsed)
		}
	}

	peer := PeerIP(remoteAddr)
	if peer == "" {
		return nil, false
	}
	return append(hops, peer), true
}

// PeerIP strips the port from a "host:port" peer address.
func PeerIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return parseIP(remoteAddr)
	}
	return parseIP(host)
}

// parseIP validates and normalizes an IP address string.
func parseIP(ipStr string) string {
	ipStr = strings.TrimSpace(ipStr)
	if ipStr == "" {
		return ""
	}
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return ""
	}
	return ip.String()
}
