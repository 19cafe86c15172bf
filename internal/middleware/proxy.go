package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/labstack/echo/v4"
)

// TrustedProxies makes c.RealIP() resolve the client behind the load
// balancer. Forwarding headers are honoured only when the peer address is in
// one of trustedCIDRs (TRUSTED_PROXIES). Without this the per-IP rate
// limiter would throttle every client as one.
func TrustedProxies(e *echo.Echo, trustedCIDRs []string) {
	e.IPExtractor = buildIPExtractor(trustedCIDRs)
}

// buildIPExtractor walks X-Forwarded-For from the right and returns the first
// hop that is not a trusted proxy. Entries left of that hop were written by
// the client and are ignored, so a forged header cannot pick the address.
func buildIPExtractor(trustedCIDRs []string) echo.IPExtractor {
	trusted := parsePrefixes(trustedCIDRs)

	return func(req *http.Request) string {
		peer := peerAddr(req.RemoteAddr)
		if !isTrusted(peer, trusted) {
			return peer
		}

		if xff := req.Header.Get(echo.HeaderXForwardedFor); xff != "" {
			hops := strings.Split(xff, ",")
			for i := len(hops) - 1; i >= 0; i-- {
				hop := strings.TrimSpace(hops[i])
				if _, err := netip.ParseAddr(hop); err != nil {
					break
				}
				if !isTrusted(hop, trusted) {
					return hop
				}
			}
		}

		if realIP := strings.TrimSpace(req.Header.Get(echo.HeaderXRealIP)); realIP != "" {
			if _, err := netip.ParseAddr(realIP); err == nil {
				return realIP
			}
		}

		return peer
	}
}

func parsePrefixes(cidrs []string) []netip.Prefix {
	out := make([]netip.Prefix, 0, len(cidrs))
	for _, cidr := range cidrs {
		p, err := netip.ParsePrefix(strings.TrimSpace(cidr))
		if err != nil {
			slog.Warn("ignoring invalid trusted proxy CIDR", slog.String("cidr", cidr))
			continue
		}
		out = append(out, p.Masked())
	}
	return out
}

// peerAddr strips the port from a "host:port" RemoteAddr.
func peerAddr(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func isTrusted(ip string, trusted []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
