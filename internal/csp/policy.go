package csp

import "strings"

// Policy is a report-only CSP: a set of directives keyed by name. Only
// directives for which CanBeInReportOnlyHeader is true ever belong here;
// the report-only header this package emits never carries enforcing-only
// directives like sandbox.
type Policy map[string]Directive

// Serialize renders the policy as a Content-Security-Policy-Report-Only
// header value, directives joined by "; " in a fixed, deterministic order.
func (p Policy) Serialize() string {
	parts := make([]string, 0, len(p))
	for _, name := range directiveOrder {
		d, ok := p[name]
		if !ok {
			continue
		}
		parts = append(parts, d.Serialize())
	}
	return strings.Join(parts, "; ")
}
