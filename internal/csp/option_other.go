package csp

import "strings"

// SandboxOption is a single token of the sandbox directive's value, e.g.
// allow-scripts.
type SandboxOption struct {
	Value string
}

func (s SandboxOption) Serialize() string { return s.Value }

// sandboxTokens is the closed set of tokens the sandbox directive accepts.
var sandboxTokens = map[string]bool{
	"allow-downloads":                         true,
	"allow-forms":                             true,
	"allow-modals":                            true,
	"allow-orientation-lock":                  true,
	"allow-pointer-lock":                      true,
	"allow-popups":                            true,
	"allow-popups-to-escape-sandbox":          true,
	"allow-presentation":                      true,
	"allow-same-origin":                       true,
	"allow-scripts":                           true,
	"allow-storage-access-by-user-activation":  true,
	"allow-top-navigation":                    true,
	"allow-top-navigation-by-user-activation":  true,
	"allow-top-navigation-to-custom-protocols": true,
}

// MimeTypeOption is a single token of the plugin-types directive's value,
// e.g. application/pdf.
type MimeTypeOption struct {
	Type    string
	Subtype string
	Params  []string
}

func (m MimeTypeOption) Serialize() string {
	var b strings.Builder
	b.WriteString(m.Type)
	b.WriteByte('/')
	b.WriteString(m.Subtype)
	for _, p := range m.Params {
		b.WriteByte(';')
		b.WriteString(p)
	}
	return b.String()
}

// ArbitraryTextOption carries a directive value this package does not parse
// further, e.g. the group name of report-to or the URI of report-uri.
type ArbitraryTextOption struct {
	Text string
}

func (a ArbitraryTextOption) Serialize() string { return a.Text }

// NoOption is the carrier for directives that never take a value
// (block-all-mixed-content, upgrade-insecure-requests). It never appears
// inside a Directive's Options slice; a Directive with zero options
// serializes as its bare name.
type NoOption struct{}

func (NoOption) Serialize() string { return "" }
