// Package csp provides a typed, bidirectionally-convertible representation
// of Content-Security-Policy directives and their option grammars.
package csp

import "strings"

// Option is one token inside a directive's value, e.g. 'self' or
// https://cdn.example. SourceOption is a small comparable struct so that
// source-option collections can use plain struct equality for set
// semantics (dedup, None-removal) instead of a generic comparator.
// MimeTypeOption holds a slice and is not comparable.
type Option interface {
	// Serialize returns the wire form of this option, e.g. 'self' or
	// https://example.com:443.
	Serialize() string
}

// SourceKind identifies which closed-set alternative a SourceOption holds.
type SourceKind int

const (
	KindSelf SourceKind = iota
	KindUnsafeEval
	KindUnsafeHashes
	KindUnsafeInline
	KindNone
	KindStrictDynamic
	KindReportSample
	KindNonce
	KindHash
	KindSchemeSource
	KindHostSource
)

// SourceOption is the option type used by fetch, navigation, and base-uri
// directives. It is a closed variant set; the Kind field selects which
// fields are meaningful.
type SourceOption struct {
	Kind SourceKind

	// Nonce holds the nonce value for KindNonce.
	Nonce string
	// Algorithm and Hash hold the two halves of a 'sha256-...' style
	// value for KindHash.
	Algorithm string
	Hash      string
	// Scheme holds the scheme for KindSchemeSource, and optionally for
	// KindHostSource.
	Scheme string
	// Host and Port hold the host and optional port for KindHostSource.
	Host string
	Port string
}

func Self() SourceOption           { return SourceOption{Kind: KindSelf} }
func UnsafeEval() SourceOption     { return SourceOption{Kind: KindUnsafeEval} }
func UnsafeHashes() SourceOption   { return SourceOption{Kind: KindUnsafeHashes} }
func UnsafeInline() SourceOption   { return SourceOption{Kind: KindUnsafeInline} }
func None() SourceOption           { return SourceOption{Kind: KindNone} }
func StrictDynamic() SourceOption  { return SourceOption{Kind: KindStrictDynamic} }
func ReportSample() SourceOption   { return SourceOption{Kind: KindReportSample} }

func NonceOption(nonce string) SourceOption {
	return SourceOption{Kind: KindNonce, Nonce: nonce}
}

func HashOption(algorithm, hash string) SourceOption {
	return SourceOption{Kind: KindHash, Algorithm: algorithm, Hash: hash}
}

func SchemeSourceOption(scheme string) SourceOption {
	return SourceOption{Kind: KindSchemeSource, Scheme: scheme}
}

func HostSourceOption(host, scheme, port string) SourceOption {
	return SourceOption{Kind: KindHostSource, Host: host, Scheme: scheme, Port: port}
}

// Serialize returns the wire form of a source option, e.g. 'self',
// 'nonce-abc', https://example.com:443.
func (s SourceOption) Serialize() string {
	switch s.Kind {
	case KindSelf:
		return "'self'"
	case KindUnsafeEval:
		return "'unsafe-eval'"
	case KindUnsafeHashes:
		return "'unsafe-hashes'"
	case KindUnsafeInline:
		return "'unsafe-inline'"
	case KindNone:
		return "'none'"
	case KindStrictDynamic:
		return "'strict-dynamic'"
	case KindReportSample:
		return "'report-sample'"
	case KindNonce:
		return "'nonce-" + s.Nonce + "'"
	case KindHash:
		return "'" + s.Algorithm + "-" + s.Hash + "'"
	case KindSchemeSource:
		return s.Scheme + ":"
	case KindHostSource:
		var b strings.Builder
		if s.Scheme != "" {
			b.WriteString(s.Scheme)
			b.WriteString("://")
		}
		b.WriteString(s.Host)
		if s.Port != "" {
			b.WriteByte(':')
			b.WriteString(s.Port)
		}
		return b.String()
	default:
		return ""
	}
}

// isNone reports whether opt is the SourceOption 'none'.
func isNone(opt Option) bool {
	so, ok := opt.(SourceOption)
	return ok && so.Kind == KindNone
}
