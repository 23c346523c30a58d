package csp

import "regexp"

// singleOptionParser recognizes one token of a directive's value and
// reports whether it applies.
type singleOptionParser func(token string) (Option, bool)

var (
	nonceTokenPattern = regexp.MustCompile(`^'nonce-([^'-]+)'$`)
	hashTokenPattern   = regexp.MustCompile(`^'([^'-]+)-([^'-]+)'$`)
	schemeTokenPattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9+.-]*):$`)
	hostTokenPattern   = regexp.MustCompile(`^(?:([A-Za-z][A-Za-z0-9+.-]*):/{1,2})?([\w.~-]+)(?::([0-9]+))?$`)

	// schemeOnlyPattern and hostURIPattern are used by AdjustToUri against
	// raw blocked-uri values rather than already space-split tokens.
	// hostURIPattern is intentionally not end-anchored: a blocked-uri such
	// as https://cdn.example/lib.js is reduced to the https://cdn.example
	// origin by matching only the leading scheme+host+port portion.
	schemeOnlyPattern = regexp.MustCompile(`^[A-Za-z-]+$`)
	hostURIPattern    = regexp.MustCompile(`^(?:([A-Za-z][A-Za-z0-9+.-]*):/{1,2})?([\w.~-]+)(?::([0-9]+))?`)
)

// sourceOptionParsers is tried in order for every space-delimited token of
// a SourceOption-kind directive's value. Order matters: more specific
// quoted-keyword recognizers must run before the loose HostSource
// recognizer, and Nonce must run before Hash since 'nonce-x' also matches
// the Hash grammar.
var sourceOptionParsers = []singleOptionParser{
	recognizeSelf,
	recognizeUnsafeEval,
	recognizeUnsafeHashes,
	recognizeUnsafeInline,
	recognizeNone,
	recognizeStrictDynamic,
	recognizeReportSample,
	recognizeNonce,
	recognizeHash,
	recognizeSchemeSource,
	recognizeHostSource,
}

func recognizeSelf(tok string) (Option, bool) {
	if tok == "'self'" {
		return Self(), true
	}
	return nil, false
}

func recognizeUnsafeEval(tok string) (Option, bool) {
	if tok == "'unsafe-eval'" {
		return UnsafeEval(), true
	}
	return nil, false
}

func recognizeUnsafeHashes(tok string) (Option, bool) {
	if tok == "'unsafe-hashes'" {
		return UnsafeHashes(), true
	}
	return nil, false
}

func recognizeUnsafeInline(tok string) (Option, bool) {
	if tok == "'unsafe-inline'" {
		return UnsafeInline(), true
	}
	return nil, false
}

func recognizeNone(tok string) (Option, bool) {
	if tok == "'none'" {
		return None(), true
	}
	return nil, false
}

func recognizeStrictDynamic(tok string) (Option, bool) {
	if tok == "'strict-dynamic'" {
		return StrictDynamic(), true
	}
	return nil, false
}

func recognizeReportSample(tok string) (Option, bool) {
	if tok == "'report-sample'" {
		return ReportSample(), true
	}
	return nil, false
}

func recognizeNonce(tok string) (Option, bool) {
	m := nonceTokenPattern.FindStringSubmatch(tok)
	if m == nil {
		return nil, false
	}
	return NonceOption(m[1]), true
}

func recognizeHash(tok string) (Option, bool) {
	m := hashTokenPattern.FindStringSubmatch(tok)
	if m == nil {
		return nil, false
	}
	return HashOption(m[1], m[2]), true
}

func recognizeSchemeSource(tok string) (Option, bool) {
	m := schemeTokenPattern.FindStringSubmatch(tok)
	if m == nil {
		return nil, false
	}
	return SchemeSourceOption(m[1]), true
}

func recognizeHostSource(tok string) (Option, bool) {
	m := hostTokenPattern.FindStringSubmatch(tok)
	if m == nil {
		return nil, false
	}
	return HostSourceOption(m[2], m[1], m[3]), true
}

// parseSourceOptions is the MultiOptionParser for SourceOption-kind
// directives: it splits value on spaces and dispatches each token to the
// ordered recognizer list, dropping any token no recognizer claims.
func parseSourceOptions(value string) []Option {
	var out []Option
	for _, tok := range splitTokens(value) {
		for _, rec := range sourceOptionParsers {
			if opt, ok := rec(tok); ok {
				out = append(out, opt)
				break
			}
		}
	}
	return out
}

func parseSandboxOptions(value string) []Option {
	var out []Option
	for _, tok := range splitTokens(value) {
		if sandboxTokens[tok] {
			out = append(out, SandboxOption{Value: tok})
		}
	}
	return out
}

func parseMimeTypeOptions(value string) []Option {
	var out []Option
	for _, tok := range splitTokens(value) {
		parts := splitOnce(tok, '/')
		if parts == nil {
			continue
		}
		typ, rest := parts[0], parts[1]
		subtype := rest
		var params []string
		for i := 0; i < len(rest); i++ {
			if rest[i] == ';' {
				subtype = rest[:i]
				for _, p := range splitAll(rest[i+1:], ';') {
					params = append(params, p)
				}
				break
			}
		}
		out = append(out, MimeTypeOption{Type: typ, Subtype: subtype, Params: params})
	}
	return out
}

func parseTextOptions(value string) []Option {
	if value == "" {
		return nil
	}
	return []Option{ArbitraryTextOption{Text: value}}
}

func splitTokens(value string) []string {
	return splitAll(value, ' ')
}

func splitAll(s string, sep byte) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// splitOnce splits tok at the first occurrence of sep, or returns nil if
// sep is absent.
func splitOnce(tok string, sep byte) []string {
	for i := 0; i < len(tok); i++ {
		if tok[i] == sep {
			return []string{tok[:i], tok[i+1:]}
		}
	}
	return nil
}
