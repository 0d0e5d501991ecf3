package gateway

import (
	"net"
	"net/http"
	"strings"

	"github.com/sitesmith/ai-gateway/internal/utils"
)

// originAllowed validates the Origin header against the computed same-origin
// values for this request. An absent Origin (same-origin browser requests and
// non-browser clients) is accepted; a present Origin must match exactly.
func originAllowed(r *http.Request) bool {
	origin := r.Header.Get(utils.HeaderOrigin)
	if origin == "" {
		return true
	}

	for _, allowed := range sameOriginValues(r) {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

// sameOriginValues computes the origins this server is being addressed as:
// scheme + host, plus the default-port-stripped form when the explicit port
// is the scheme default. Browsers omit default ports from Origin.
func sameOriginValues(r *http.Request) []string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get(utils.HeaderXForwardedProto); proto != "" {
		scheme = proto
	}

	values := []string{scheme + "://" + r.Host}

	if host, port, err := net.SplitHostPort(r.Host); err == nil {
		if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
			values = append(values, scheme+"://"+host)
		}
	}
	return values
}
