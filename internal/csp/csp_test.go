package csp

import (
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func sortOptions() cmp.Option {
	return cmpopts.SortSlices(func(a, b Option) bool {
		return a.Serialize() < b.Serialize()
	})
}

func TestParseDirective_RoundTrip(t *testing.T) {
	cases := []string{
		"script-src 'self' https://cdn.example",
		"script-src-elem 'self' 'nonce-abc123'",
		"default-src 'none'",
		"base-uri 'self'",
		"sandbox allow-scripts allow-forms",
		"plugin-types application/pdf",
		"report-uri https://example.com/csp-report",
		"block-all-mixed-content",
	}
	for _, in := range cases {
		t.Run(in, func(t *testing.T) {
			d, ok := ParseDirective(in)
			if !ok {
				t.Fatalf("ParseDirective(%q) failed to recognize", in)
			}
			if got := d.Serialize(); got != in {
				t.Errorf("round trip: got %q, want %q", got, in)
			}
		})
	}
}

func TestParseDirective_PrefixAmbiguity(t *testing.T) {
	d, ok := ParseDirective("script-src-elem 'self'")
	if !ok {
		t.Fatal("expected a match")
	}
	if d.Name != "script-src-elem" {
		t.Errorf("got directive %q, want script-src-elem (longest-name match)", d.Name)
	}
}

func TestParseDirective_Unrecognized(t *testing.T) {
	if _, ok := ParseDirective("not-a-real-directive 'self'"); ok {
		t.Error("expected no match for an unrecognized directive name")
	}
}

func TestMultiOptionParser_DropsUnrecognizedTokens(t *testing.T) {
	d, ok := ParseDirective("script-src 'self' %garbage% https://ok.example")
	if !ok {
		t.Fatal("expected a match")
	}
	want := []Option{Self(), HostSourceOption("ok.example", "https", "")}
	if diff := cmp.Diff(want, d.Options, sortOptions()); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestAdjustToUri_Self(t *testing.T) {
	selfPattern := regexp.MustCompile(`(https?://localhost:8080).*`)
	d := Directive{Name: "script-src", Options: []Option{None()}}
	got, ok := AdjustToUri(d, "http://localhost:8080/app.js", selfPattern)
	if !ok {
		t.Fatal("expected ok=true")
	}
	want := Directive{Name: "script-src", Options: []Option{Self()}}
	if diff := cmp.Diff(want, got, sortOptions()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestAdjustToUri_InlineAndEval(t *testing.T) {
	d := Directive{Name: "script-src"}
	got, _ := AdjustToUri(d, "inline", nil)
	if diff := cmp.Diff([]Option{UnsafeInline()}, got.Options, sortOptions()); diff != "" {
		t.Errorf("inline mismatch (-want +got):\n%s", diff)
	}

	got, _ = AdjustToUri(d, "eval", nil)
	if diff := cmp.Diff([]Option{UnsafeEval()}, got.Options, sortOptions()); diff != "" {
		t.Errorf("eval mismatch (-want +got):\n%s", diff)
	}
}

func TestAdjustToUri_SchemeSource(t *testing.T) {
	d := Directive{Name: "img-src"}
	got, _ := AdjustToUri(d, "data", nil)
	if diff := cmp.Diff([]Option{SchemeSourceOption("data")}, got.Options, sortOptions()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestAdjustToUri_HostSource_DropsPath(t *testing.T) {
	d := Directive{Name: "script-src"}
	got, _ := AdjustToUri(d, "https://cdn.example/lib.js", nil)
	want := []Option{HostSourceOption("cdn.example", "https", "")}
	if diff := cmp.Diff(want, got.Options, sortOptions()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestAdjustToUri_RemovesNone(t *testing.T) {
	d := Directive{Name: "script-src", Options: []Option{None()}}
	got, _ := AdjustToUri(d, "https://cdn.example", nil)
	for _, o := range got.Options {
		if isNone(o) {
			t.Errorf("expected 'none' to be removed, got %v", got.Options)
		}
	}
}

func TestAdjustToUri_DoesNotDuplicate(t *testing.T) {
	d := Directive{Name: "script-src", Options: []Option{HostSourceOption("cdn.example", "https", "")}}
	got, _ := AdjustToUri(d, "https://cdn.example", nil)
	if len(got.Options) != 1 {
		t.Errorf("expected no duplicate option, got %v", got.Options)
	}
}

func TestAdjustToUri_UnrecognizedLeavesUnchanged(t *testing.T) {
	d := Directive{Name: "script-src", Options: []Option{Self()}}
	got, ok := AdjustToUri(d, "!!!not a uri!!!", nil)
	if !ok {
		t.Fatal("expected ok=true even when the URI isn't recognized")
	}
	if diff := cmp.Diff(d.Options, got.Options, sortOptions()); diff != "" {
		t.Errorf("expected options unchanged (-want +got):\n%s", diff)
	}
}

func TestAdjustToUri_NonSourceDirective(t *testing.T) {
	d := Directive{Name: "sandbox"}
	_, ok := AdjustToUri(d, "https://cdn.example", nil)
	if ok {
		t.Error("expected ok=false for a non-SourceOption directive")
	}
}

func TestMakeStrictPolicy_OmitsSandbox(t *testing.T) {
	p := MakeStrictPolicy("", "")
	if _, present := p["sandbox"]; present {
		t.Error("sandbox cannot appear in a report-only policy")
	}
}

func TestMakeStrictPolicy_StrictestSourceIsNone(t *testing.T) {
	p := MakeStrictPolicy("", "")
	d, ok := p["default-src"]
	if !ok {
		t.Fatal("expected default-src to be present")
	}
	if diff := cmp.Diff([]Option{None()}, d.Options); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestMakeStrictPolicy_ReportEndpoints(t *testing.T) {
	p := MakeStrictPolicy("csp-endpoint", "https://example.com/csp-report")
	if d, ok := p["report-to"]; !ok || d.Serialize() != "report-to csp-endpoint" {
		t.Errorf("report-to = %+v", d)
	}
	if d, ok := p["report-uri"]; !ok || d.Serialize() != "report-uri https://example.com/csp-report" {
		t.Errorf("report-uri = %+v", d)
	}
}

func TestMakeStrictPolicy_OmitsReportEndpointsWhenUnset(t *testing.T) {
	p := MakeStrictPolicy("", "")
	if _, ok := p["report-to"]; ok {
		t.Error("report-to should be omitted when no group is configured")
	}
	if _, ok := p["report-uri"]; ok {
		t.Error("report-uri should be omitted when no endpoint is configured")
	}
}

func TestPolicySerialize_DeterministicOrder(t *testing.T) {
	p := MakeStrictPolicy("", "")
	a := p.Serialize()
	b := p.Serialize()
	if a != b {
		t.Errorf("serialization is not deterministic: %q vs %q", a, b)
	}
}
