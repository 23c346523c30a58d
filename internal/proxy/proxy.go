// Package proxy implements the rewriting reverse proxy: it forwards every
// inbound request to the target origin, rewrites the response so the
// client's browser believes it's talking to the proxy's own origin, and
// injects the current report-only CSP.
package proxy

import (
	"mime"
	"net/http"
	"net/http/httputil"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cspderive/cspderive/internal/report"
)

// Relaxer is the subset of the policy engine the proxy needs: scraped
// form-action paths are fed back in as synthetic violations.
type Relaxer interface {
	EvaluateViolation(v report.Violation)
}

// PolicySource is the subset of the policy engine the proxy needs to read
// the current header value from.
type PolicySource interface {
	CurrentHeaderValue() string
}

// URLSink receives paths scraped out of proxied HTML, handing them to the
// crawl coordinator's frontier.
type URLSink interface {
	SendUrls(urls []string)
}

// Config configures one Server instance.
type Config struct {
	ProxyPort      int
	TargetDomain   string
	ReportingGroup *report.ReportingGroup // nil if no Reporting-API endpoint is configured
}

// Server is the rewriting reverse proxy bound to Config.ProxyPort.
type Server struct {
	cfg            Config
	engine         PolicySource
	relaxer        Relaxer
	sink           URLSink
	log            zerolog.Logger
	rewriter       *rewriter
	reportToValue  string
	hasReportTo    bool
	reverse        *httputil.ReverseProxy
}

// New builds a Server. engine supplies the current CSP header value,
// relaxer receives synthetic form-action violations scraped from proxied
// HTML, and sink receives scraped navigable URLs.
func New(cfg Config, engine PolicySource, relaxer Relaxer, sink URLSink, log zerolog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		engine:   engine,
		relaxer:  relaxer,
		sink:     sink,
		log:      log,
		rewriter: newRewriter(cfg.TargetDomain),
	}
	if cfg.ReportingGroup != nil {
		if b, err := marshalReportingGroup(*cfg.ReportingGroup); err == nil {
			s.reportToValue = b
			s.hasReportTo = true
		} else {
			log.Warn().Err(err).Msg("couldn't serialize reporting group, omitting Report-To")
		}
	}

	s.reverse = &httputil.ReverseProxy{
		Director:       s.director,
		ModifyResponse: s.modifyResponse,
		ErrorHandler:   s.handleError,
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.reverse.ServeHTTP(w, r)
}

// director rewrites the incoming request to target https://targetDomain,
// preserving the method and any header that isn't hop-by-hop.
func (s *Server) director(req *http.Request) {
	removeHopByHopHeaders(req.Header)
	req.URL.Scheme = "https"
	req.URL.Host = s.cfg.TargetDomain
	req.Host = s.cfg.TargetDomain
}

// handleError reports an upstream fetch failure to the client with a 502
// (503 for a refused connection): it still injects the current CSP header,
// but omits Report-To.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error().Err(err).Str("url", r.URL.String()).Msg("upstream fetch failed")

	status := http.StatusBadGateway
	if strings.Contains(err.Error(), "connection refused") {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Security-Policy-Report-Only", s.engine.CurrentHeaderValue())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte("upstream fetch failed: " + err.Error()))
}

// modifyResponse rewrites the upstream response in place: it reassembles
// the response headers in a fixed order, and, for text/html bodies,
// decodes, scrapes, substitutes, and re-encodes the body.
func (s *Server) modifyResponse(resp *http.Response) error {
	location := resp.Header.Get("Location")
	hasLocation := location != ""
	if hasLocation {
		location = s.rewriter.substituteDomain(location)
	}

	cspValue := s.engine.CurrentHeaderValue()

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)

	if mediaType == "text/html" {
		if err := s.rewriteHTMLBody(resp, contentType); err != nil {
			return err
		}
	}

	resp.Header = buildResponseHeaders(resp.Header, location, hasLocation, s.reportToValue, s.hasReportTo, cspValue)
	return nil
}

func (s *Server) rewriteHTMLBody(resp *http.Response, contentType string) error {
	raw, err := readAndClose(resp.Body)
	if err != nil {
		return err
	}

	decoded, enc, err := decodeBody(raw, contentType)
	if err != nil {
		return err
	}

	s.sink.SendUrls(s.rewriter.scrapeURLs(decoded))
	s.relaxFormActions(s.rewriter.scrapeFormActions(decoded))

	rewritten := s.rewriter.substituteDomain(decoded)

	reencoded, err := encodeBody(rewritten, enc)
	if err != nil {
		return err
	}

	resp.Body = newBodyReadCloser(reencoded)
	resp.ContentLength = int64(len(reencoded))
	resp.Header.Set("Content-Length", strconv.Itoa(len(reencoded)))
	return nil
}

// relaxFormActions feeds each scraped form action in as a synthetic
// violation against form-action, prefixing root-relative paths with this
// proxy's own origin so adjustToUri can match them.
func (s *Server) relaxFormActions(paths []string) {
	for _, p := range paths {
		if strings.HasPrefix(p, "/") {
			p = "https://localhost:" + strconv.Itoa(s.cfg.ProxyPort) + p
		}
		s.relaxer.EvaluateViolation(report.Violation{EffectiveDirective: "form-action", BlockedURI: p})
	}
}
