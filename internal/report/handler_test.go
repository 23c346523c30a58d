package report

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRelaxer struct {
	got []Violation
}

func (s *stubRelaxer) EvaluateViolation(v Violation) {
	s.got = append(s.got, v)
}

func TestLegacyHandler_ForwardsToRelaxer(t *testing.T) {
	relaxer := &stubRelaxer{}
	mux := NewMux(relaxer, zerolog.Nop())

	body := `{"csp-report":{"effective-directive":"script-src","blocked-uri":"https://cdn.example/lib.js"}}`
	req := httptest.NewRequest(http.MethodPost, "/uri", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/csp-report")
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, relaxer.got, 1)
	assert.Equal(t, "script-src", relaxer.got[0].EffectiveDirective)
	assert.Equal(t, "https://cdn.example/lib.js", relaxer.got[0].BlockedURI)
}

func TestLegacyHandler_NullReportIsIgnored(t *testing.T) {
	relaxer := &stubRelaxer{}
	mux := NewMux(relaxer, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/uri", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, relaxer.got)
}

func TestLegacyHandler_MalformedBodyStillRespondsOK(t *testing.T) {
	relaxer := &stubRelaxer{}
	mux := NewMux(relaxer, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/uri", strings.NewReader(`not json`))
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, relaxer.got)
}

func TestReportingAPIHandler_NeverForwardsToRelaxer(t *testing.T) {
	relaxer := &stubRelaxer{}
	mux := NewMux(relaxer, zerolog.Nop())

	body := `{"type":"csp-violation","age":10,"url":"https://example.com/","body":{"blocked":"https://cdn.example/x.js","directive":"script-src"}}`
	req := httptest.NewRequest(http.MethodPost, "/api", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/reports+json")
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, relaxer.got, "the /api route must not relax the policy")
}

func TestCORS_PreflightOptions(t *testing.T) {
	mux := NewMux(&stubRelaxer{}, zerolog.Nop())
	req := httptest.NewRequest(http.MethodOptions, "/uri", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, corsMethods, rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, corsHeaders, rec.Header().Get("Access-Control-Allow-Headers"))
}
