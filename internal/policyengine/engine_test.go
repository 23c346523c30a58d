package policyengine

import (
	"regexp"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cspderive/cspderive/internal/report"
)

func TestEngine_StrictScaffold(t *testing.T) {
	e := New(nil, "", "http://localhost:9/uri", zerolog.Nop())
	got := e.CurrentHeaderValue()

	for _, want := range []string{"default-src 'none'", "report-uri http://localhost:9/uri"} {
		if !contains(got, want) {
			t.Errorf("expected header to contain %q, got %q", want, got)
		}
	}
	for _, unwanted := range []string{"sandbox", "report-to "} {
		if contains(got, unwanted) {
			t.Errorf("expected header not to contain %q, got %q", unwanted, got)
		}
	}
}

func TestEngine_ScriptViolationRelaxesScriptSrc(t *testing.T) {
	e := New(nil, "", "", zerolog.Nop())
	e.EvaluateViolation(report.Violation{EffectiveDirective: "script-src", BlockedURI: "https://cdn.example/lib.js"})

	got := e.CurrentHeaderValue()
	if !contains(got, "script-src https://cdn.example") {
		t.Errorf("expected relaxed script-src, got %q", got)
	}
}

func TestEngine_InlineViolation(t *testing.T) {
	e := New(nil, "", "", zerolog.Nop())
	e.EvaluateViolation(report.Violation{EffectiveDirective: "style-src", BlockedURI: "inline"})

	got := e.CurrentHeaderValue()
	if !contains(got, "style-src 'unsafe-inline'") {
		t.Errorf("expected style-src 'unsafe-inline', got %q", got)
	}
}

func TestEngine_SelfViolation(t *testing.T) {
	selfPattern := regexp.MustCompile(`(https?://localhost:9000).*`)
	e := New(selfPattern, "", "", zerolog.Nop())
	e.EvaluateViolation(report.Violation{EffectiveDirective: "img-src", BlockedURI: "http://localhost:9000/a.png"})

	got := e.CurrentHeaderValue()
	if !contains(got, "img-src 'self'") {
		t.Errorf("expected img-src 'self', got %q", got)
	}
}

func TestEngine_IgnoresViolationForAbsentDirective(t *testing.T) {
	e := New(nil, "", "", zerolog.Nop())
	before := e.CurrentHeaderValue()
	e.EvaluateViolation(report.Violation{EffectiveDirective: "report-to", BlockedURI: "https://x.example"})
	after := e.CurrentHeaderValue()

	if before != after {
		t.Errorf("expected no change for a directive absent from the policy, got %q -> %q", before, after)
	}
}

func TestEngine_EmptyBlockedURIDropsDirective(t *testing.T) {
	e := New(nil, "", "", zerolog.Nop())
	e.EvaluateViolation(report.Violation{EffectiveDirective: "script-src", BlockedURI: ""})

	got := e.CurrentHeaderValue()
	// script-src-attr and script-src-elem are separate directives and stay.
	for _, part := range strings.Split(got, "; ") {
		if part == "script-src" || strings.HasPrefix(part, "script-src ") {
			t.Errorf("expected script-src to be dropped, got %q", got)
		}
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && (func() bool {
		for i := 0; i+len(needle) <= len(haystack); i++ {
			if haystack[i:i+len(needle)] == needle {
				return true
			}
		}
		return false
	})()
}
