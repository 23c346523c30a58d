package csp

import "regexp"

// Directive is one named directive of a policy, e.g. script-src with its
// option list.
type Directive struct {
	Name    string
	Options []Option
}

// Serialize returns the directive's wire form, e.g. "script-src 'self'
// https://cdn.example". A directive with no options serializes as its
// bare name, which for sandbox/plugin-types/the boolean directives means
// "deny everything" per the CSP grammar.
func (d Directive) Serialize() string {
	if len(d.Options) == 0 {
		return d.Name
	}
	out := d.Name
	for _, opt := range d.Options {
		out += " " + opt.Serialize()
	}
	return out
}

// AdjustToUri relaxes d just enough to permit blockedURI, following the
// six-step algorithm: self-match, then "inline", then "eval", then a bare
// scheme, then a host[:port], and finally leaving d unchanged if none of
// those recognize blockedURI. It reports ok=false only when d's directive
// is not of SourceOption kind, signaling to the caller that d cannot be
// adjusted at all (the caller should instead drop the directive).
func AdjustToUri(d Directive, blockedURI string, selfPattern *regexp.Regexp) (Directive, bool) {
	def, found := registry[d.Name]
	if !found || def.Kind != optKindSource {
		return Directive{}, false
	}

	var newOpt SourceOption
	switch {
	case selfPattern != nil && selfPattern.MatchString(blockedURI):
		newOpt = Self()
	case blockedURI == "inline":
		newOpt = UnsafeInline()
	case blockedURI == "eval":
		newOpt = UnsafeEval()
	case schemeOnlyPattern.MatchString(blockedURI):
		newOpt = SchemeSourceOption(blockedURI)
	default:
		m := hostURIPattern.FindStringSubmatch(blockedURI)
		if m == nil {
			log().Warn().Str("directive", d.Name).Str("blockedUri", blockedURI).
				Msg("couldn't handle URI")
			return d, true
		}
		newOpt = HostSourceOption(m[2], m[1], m[3])
	}

	return Directive{Name: d.Name, Options: addSourceOption(d.Options, newOpt)}, true
}

// addSourceOption appends opt to options, dropping any existing 'none' and
// not duplicating opt if it is already present.
func addSourceOption(options []Option, opt Option) []Option {
	out := make([]Option, 0, len(options)+1)
	found := false
	for _, o := range options {
		if isNone(o) {
			continue
		}
		if o == opt {
			found = true
		}
		out = append(out, o)
	}
	if !found {
		out = append(out, opt)
	}
	return out
}
