// Package policyengine holds the one piece of policy state that mutates
// while a crawl runs: the current report-only CSP, relaxed in place as
// violation reports arrive.
package policyengine

import (
	"regexp"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cspderive/cspderive/internal/csp"
	"github.com/cspderive/cspderive/internal/report"
)

// Engine owns a csp.Policy and relaxes it as violations are reported. All
// methods are safe for concurrent use: the report endpoint serves /uri and
// /api from net/http's per-connection goroutines, so the one shared map
// needs a lock even though handling any single report is sequential.
type Engine struct {
	mu          sync.Mutex
	policy      csp.Policy
	selfPattern *regexp.Regexp
	log         zerolog.Logger
}

// New constructs an Engine seeded with the strictest policy for the given
// reporting configuration, matching against selfPattern to recognize
// same-origin violations.
func New(selfPattern *regexp.Regexp, reportingAPIGroup, reportUriEndpoint string, log zerolog.Logger) *Engine {
	return &Engine{
		policy:      csp.MakeStrictPolicy(reportingAPIGroup, reportUriEndpoint),
		selfPattern: selfPattern,
		log:         log,
	}
}

// CurrentHeaderValue returns the current policy's
// Content-Security-Policy-Report-Only header value.
func (e *Engine) CurrentHeaderValue() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.policy.Serialize()
}

// EvaluateViolation relaxes the policy entry named by v.EffectiveDirective
// in response to a reported violation. If no entry by that name exists,
// the report is ignored. If v.BlockedURI is empty, the entry is dropped
// outright (there is nothing to adjust to). Otherwise the entry is
// replaced by csp.AdjustToUri's result, or removed if the named directive
// cannot be adjusted at all (it isn't a SourceOption-kind directive).
func (e *Engine) EvaluateViolation(v report.Violation) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d, present := e.policy[v.EffectiveDirective]
	if !present {
		return
	}

	if v.BlockedURI == "" {
		e.log.Warn().Str("directive", v.EffectiveDirective).Msg("violation with no blocked-uri, dropping directive")
		delete(e.policy, v.EffectiveDirective)
		return
	}

	adjusted, ok := csp.AdjustToUri(d, v.BlockedURI, e.selfPattern)
	if !ok {
		e.log.Warn().Str("directive", v.EffectiveDirective).Msg("directive is not adjustable, dropping it")
		delete(e.policy, v.EffectiveDirective)
		return
	}
	e.policy[v.EffectiveDirective] = adjusted
}
