package proxy

import (
	"net/http"
	"strings"
)

// hopByHop is the RFC 7230 §6.1 fixed hop-by-hop header list every Go
// reverse proxy filters (the same list net/http/httputil.ReverseProxy's own
// unexported hopHeaders carries).
var hopByHop = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"TE",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// removeHopByHopHeaders deletes the fixed hop-by-hop headers plus any
// header named in h's own Connection value.
func removeHopByHopHeaders(h http.Header) {
	if conn := h.Get("Connection"); conn != "" {
		for _, f := range strings.Split(conn, ",") {
			h.Del(strings.TrimSpace(f))
		}
	}
	for _, name := range hopByHop {
		h.Del(name)
	}
}

// buildResponseHeaders assembles the client-facing response headers in a
// fixed order: Location (if the upstream sent one, already rewritten),
// Report-To (if a reporting group is configured),
// Content-Security-Policy-Report-Only (always), then every remaining
// upstream header that is neither hop-by-hop nor a Content-Security-Policy
// header of any casing, skipping names already set above.
func buildResponseHeaders(upstream http.Header, rewrittenLocation string, hasLocation bool, reportToValue string, hasReportTo bool, cspValue string) http.Header {
	out := http.Header{}
	if hasLocation {
		out.Set("Location", rewrittenLocation)
	}
	if hasReportTo {
		out.Set("Report-To", reportToValue)
	}
	out.Set("Content-Security-Policy-Report-Only", cspValue)

	filtered := upstream.Clone()
	removeHopByHopHeaders(filtered)
	for name, values := range filtered {
		if strings.EqualFold(name, "Content-Security-Policy") {
			continue
		}
		if _, already := out[name]; already {
			continue
		}
		for _, v := range values {
			out.Add(name, v)
		}
	}
	return out
}
