package proxy

import (
	"regexp"

	"github.com/dlclark/regexp2"
)

// rewriter holds the three scraping/substitution patterns compiled for one
// target domain. The first two are plain RE2 (stdlib regexp); the
// form-action pattern needs negative lookahead, which RE2 cannot express,
// so it is compiled with github.com/dlclark/regexp2 instead.
type rewriter struct {
	domainSub  *regexp.Regexp
	urlScrape  *regexp.Regexp
	formAction *regexp2.Regexp
}

func newRewriter(targetDomain string) *rewriter {
	escaped := regexp.QuoteMeta(targetDomain)
	return &rewriter{
		domainSub: regexp.MustCompile(`(https?:)?//` + escaped),
		urlScrape: regexp.MustCompile(`(?:href|action)="(?:https?://)?(?:` + escaped + `)?([^."#?]+(?:html?)?)"`),
		formAction: regexp2.MustCompile(
			`(?:<|&gt)form(?:(?!>|&lt).)*action=["']([^"']*)["'](?:(?!>|&lt).)*(?:>|&lt)`,
			regexp2.None,
		),
	}
}

// substituteDomain converts absolute references to the target origin into
// root-relative paths: "(https?:)?//example.com" -> "".
func (rw *rewriter) substituteDomain(body string) string {
	return rw.domainSub.ReplaceAllString(body, "")
}

// scrapeURLs returns every non-blank group-1 capture of the href/action
// pattern.
func (rw *rewriter) scrapeURLs(body string) []string {
	var out []string
	for _, m := range rw.urlScrape.FindAllStringSubmatch(body, -1) {
		if m[1] != "" {
			out = append(out, m[1])
		}
	}
	return out
}

// scrapeFormActions returns every action="..." capture from a <form> tag,
// tolerant of HTML-escaped and unescaped markup.
func (rw *rewriter) scrapeFormActions(body string) []string {
	var out []string
	m, _ := rw.formAction.FindStringMatch(body)
	for m != nil {
		if g := m.GroupByNumber(1); g != nil && len(g.Captures) > 0 {
			out = append(out, g.String())
		}
		m, _ = rw.formAction.FindNextMatch(m)
	}
	return out
}
