// Package report decodes the two CSP violation-report wire formats browsers
// emit and exposes the minimal Violation shape the policy engine consumes.
package report

// Violation is the policy engine's view of a reported violation: just
// enough to look up a directive and attempt to relax it.
type Violation struct {
	EffectiveDirective string
	BlockedURI         string
}

// LegacyReport is the application/csp-report wire format: a single
// top-level csp-report object wrapping the violation fields.
type LegacyReport struct {
	CSPReport *CSPReportBody `json:"csp-report"`
}

// CSPReportBody is the browser's legacy CSP violation report payload.
type CSPReportBody struct {
	BlockedURI         string `json:"blocked-uri,omitempty"`
	Disposition        string `json:"disposition,omitempty"`
	DocumentURI        string `json:"document-uri,omitempty"`
	EffectiveDirective string `json:"effective-directive,omitempty"`
	OriginalPolicy     string `json:"original-policy,omitempty"`
	Referrer           string `json:"referrer,omitempty"`
	ScriptSample       string `json:"script-sample,omitempty"`
	StatusCode         string `json:"status-code,omitempty"`
	ViolatedDirective  string `json:"violated-directive,omitempty"`
}

// ToViolation extracts the fields the policy engine needs.
func (b CSPReportBody) ToViolation() Violation {
	return Violation{EffectiveDirective: b.EffectiveDirective, BlockedURI: b.BlockedURI}
}

// ReportingAPIReport is the application/reports+json wire format. It is
// logged but not wired to relaxation, so this type carries no ToViolation
// method.
type ReportingAPIReport struct {
	Type      string            `json:"type,omitempty"`
	Age       int               `json:"age,omitempty"`
	URL       string            `json:"url,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	Body      *ReportingAPIBody `json:"body,omitempty"`
}

// ReportingAPIBody is the nested body object of a ReportingAPIReport.
type ReportingAPIBody struct {
	Blocked   string `json:"blocked,omitempty"`
	Directive string `json:"directive,omitempty"`
	Policy    string `json:"policy,omitempty"`
	Status    string `json:"status,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
}

// ReportingGroup is the outbound Report-To header value: the Reporting-API
// group definition that tells browsers where to deliver future reports+json
// reports.
type ReportingGroup struct {
	Group     string              `json:"group"`
	MaxAge    int                 `json:"max_age"`
	Endpoints []ReportingEndpoint `json:"endpoints"`
}

// ReportingEndpoint is one delivery endpoint inside a ReportingGroup.
type ReportingEndpoint struct {
	URL string `json:"url"`
}

// NewReportingGroup builds the group definition emitted in the Report-To
// header when a Reporting-API endpoint is configured. MaxAge is 126 days,
// in seconds.
func NewReportingGroup(endpoint string) ReportingGroup {
	return ReportingGroup{
		Group:     "csp-endpoint",
		MaxAge:    10886400,
		Endpoints: []ReportingEndpoint{{URL: endpoint}},
	}
}
