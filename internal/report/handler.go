package report

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// Relaxer is the subset of the policy engine this package depends on,
// letting handler tests substitute a stub without pulling in
// internal/policyengine.
type Relaxer interface {
	EvaluateViolation(v Violation)
}

// corsMethods and corsHeaders are the methods and headers the report
// endpoint accepts from any origin, since the browser sending a violation
// report is never same-origin with this server.
const (
	corsMethods = "GET, PUT, POST, DELETE, OPTIONS"
	corsHeaders = "Content-Type, Authorization, Content-Length, X-Requested-With"
)

// NewMux builds the report endpoint's handler: POST /uri for legacy
// application/csp-report bodies, POST /api for application/reports+json
// bodies. Both set permissive CORS headers on every response, including
// preflight OPTIONS requests.
func NewMux(relaxer Relaxer, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/uri", legacyHandler(relaxer, log))
	mux.HandleFunc("/api", reportingAPIHandler(log))
	return withCORS(mux)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", corsMethods)
		h.Set("Access-Control-Allow-Headers", corsHeaders)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// legacyHandler decodes a csp-report wrapped violation. It responds 200
// before processing the report, then forwards it to the relaxer if the
// wrapped report is present.
func legacyHandler(relaxer Relaxer, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var payload LegacyReport
		err := json.NewDecoder(r.Body).Decode(&payload)

		w.WriteHeader(http.StatusOK)

		if err != nil {
			log.Warn().Err(err).Msg("couldn't decode csp-report body")
			return
		}
		if payload.CSPReport == nil {
			return
		}
		relaxer.EvaluateViolation(payload.CSPReport.ToViolation())
	}
}

// reportingAPIHandler decodes a reports+json violation and logs it. This
// route is not wired to relaxation; it exists so Reporting-API clients have
// somewhere to deliver reports, not to drive policy changes.
func reportingAPIHandler(log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var payload ReportingAPIReport
		err := json.NewDecoder(r.Body).Decode(&payload)

		w.WriteHeader(http.StatusOK)

		if err != nil {
			log.Warn().Err(err).Msg("couldn't decode reports+json body")
			return
		}
		if payload.Type != "csp-violation" || payload.Body == nil {
			return
		}
		log.Info().Interface("body", payload.Body).Msg("reporting-api violation (not wired to relaxation)")
	}
}
