package csp

import "sort"

// optionKind identifies which grammar a directive's value follows.
type optionKind int

const (
	optKindSource optionKind = iota
	optKindSandbox
	optKindMime
	optKindText
	optKindNone
)

// definition is the per-directive metadata the registry holds: its option
// grammar, the contexts it may legally appear in, and how to compute its
// "strictest" form for makeStrictPolicy.
type definition struct {
	Name                     string
	Kind                     optionKind
	CanBeInHeader            bool
	CanBeInReportOnlyHeader  bool
	CanBeInMetaElement       bool
	Parse                    func(value string) []Option
	// Strictest returns the tightest option set for this directive, and
	// ok=false if this directive is never constructed by makeStrictPolicy
	// on its own (report-to/report-uri, which need caller-supplied values).
	Strictest func() (options []Option, ok bool)
}

var registry = map[string]definition{}

// directiveOrder fixes a deterministic serialization order: document
// directives, then fetch, then navigation, then reporting, then the
// boolean directives, in registration order.
var directiveOrder []string

func register(d definition) {
	registry[d.Name] = d
	directiveOrder = append(directiveOrder, d.Name)
}

func strictestSource() (options []Option, ok bool)  { return []Option{None()}, true }
func strictestEmpty() (options []Option, ok bool)   { return []Option{}, true }
func strictestNone() (options []Option, ok bool)    { return nil, false }

func init() {
	// Document directives.
	register(definition{Name: "base-uri", Kind: optKindSource, CanBeInHeader: true, CanBeInReportOnlyHeader: true, CanBeInMetaElement: true, Parse: parseSourceOptions, Strictest: strictestSource})
	register(definition{Name: "plugin-types", Kind: optKindMime, CanBeInHeader: true, CanBeInReportOnlyHeader: true, CanBeInMetaElement: true, Parse: parseMimeTypeOptions, Strictest: strictestEmpty})
	register(definition{Name: "sandbox", Kind: optKindSandbox, CanBeInHeader: true, CanBeInReportOnlyHeader: false, CanBeInMetaElement: false, Parse: parseSandboxOptions, Strictest: strictestEmpty})

	// Fetch directives.
	for _, name := range []string{
		"child-src", "connect-src", "default-src", "font-src", "frame-src",
		"img-src", "manifest-src", "media-src", "object-src", "prefetch-src",
		"script-src", "script-src-attr", "script-src-elem",
		"style-src", "style-src-attr", "style-src-elem", "worker-src",
	} {
		register(definition{Name: name, Kind: optKindSource, CanBeInHeader: true, CanBeInReportOnlyHeader: true, CanBeInMetaElement: true, Parse: parseSourceOptions, Strictest: strictestSource})
	}

	// Navigation directives.
	register(definition{Name: "form-action", Kind: optKindSource, CanBeInHeader: true, CanBeInReportOnlyHeader: true, CanBeInMetaElement: true, Parse: parseSourceOptions, Strictest: strictestSource})
	register(definition{Name: "frame-ancestors", Kind: optKindSource, CanBeInHeader: true, CanBeInReportOnlyHeader: true, CanBeInMetaElement: false, Parse: parseSourceOptions, Strictest: strictestSource})
	register(definition{Name: "navigate-to", Kind: optKindSource, CanBeInHeader: true, CanBeInReportOnlyHeader: true, CanBeInMetaElement: false, Parse: parseSourceOptions, Strictest: strictestSource})

	// Reporting directives: never constructed by the generic strictest
	// path; makeStrictPolicy special-cases them using caller-supplied
	// endpoint/group values.
	register(definition{Name: "report-to", Kind: optKindText, CanBeInHeader: true, CanBeInReportOnlyHeader: true, CanBeInMetaElement: false, Parse: parseTextOptions, Strictest: strictestNone})
	register(definition{Name: "report-uri", Kind: optKindText, CanBeInHeader: true, CanBeInReportOnlyHeader: true, CanBeInMetaElement: false, Parse: parseTextOptions, Strictest: strictestNone})

	// Boolean directives.
	register(definition{Name: "block-all-mixed-content", Kind: optKindNone, CanBeInHeader: true, CanBeInReportOnlyHeader: true, CanBeInMetaElement: true, Parse: func(string) []Option { return nil }, Strictest: strictestEmpty})
	register(definition{Name: "upgrade-insecure-requests", Kind: optKindNone, CanBeInHeader: true, CanBeInReportOnlyHeader: true, CanBeInMetaElement: true, Parse: func(string) []Option { return nil }, Strictest: strictestEmpty})
}

// ParseDirective scans the declared directive names for the one whose name
// prefixes s (at a token boundary), longest name first so that e.g.
// script-src-elem is preferred over the shorter script-src when both are
// viable prefixes. An unrecognized name yields no directive.
func ParseDirective(s string) (Directive, bool) {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	for _, name := range names {
		if !hasPrefixAtBoundary(s, name) {
			continue
		}
		def := registry[name]
		value := ""
		if len(s) > len(name) {
			value = s[len(name)+1:]
		}
		return Directive{Name: name, Options: def.Parse(value)}, true
	}
	return Directive{}, false
}

func hasPrefixAtBoundary(s, prefix string) bool {
	if len(s) < len(prefix) || s[:len(prefix)] != prefix {
		return false
	}
	return len(s) == len(prefix) || s[len(prefix)] == ' '
}

// MakeStrictPolicy builds the strictest report-only policy: every
// directive eligible for a report-only header, each set to its tightest
// option set. reportingAPIGroup and reportUriEndpoint, when non-empty,
// populate report-to/report-uri; otherwise those two directives are
// omitted (there is no "strictest" form of an opaque reporting endpoint).
func MakeStrictPolicy(reportingAPIGroup, reportUriEndpoint string) Policy {
	p := Policy{}
	for _, name := range directiveOrder {
		def := registry[name]
		if !def.CanBeInReportOnlyHeader {
			continue
		}
		switch name {
		case "report-to":
			if reportingAPIGroup == "" {
				continue
			}
			p[name] = Directive{Name: name, Options: []Option{ArbitraryTextOption{Text: reportingAPIGroup}}}
		case "report-uri":
			if reportUriEndpoint == "" {
				continue
			}
			p[name] = Directive{Name: name, Options: []Option{ArbitraryTextOption{Text: reportUriEndpoint}}}
		default:
			opts, ok := def.Strictest()
			if !ok {
				continue
			}
			p[name] = Directive{Name: name, Options: opts}
		}
	}
	return p
}
