package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstituteDomain(t *testing.T) {
	rw := newRewriter("example.com")

	cases := map[string]string{
		`<a href="https://example.com/foo.html">`: `<a href="/foo.html">`,
		`//example.com/x`:                          `/x`,
		`https://other.com/x`:                      `https://other.com/x`,
	}
	for in, want := range cases {
		assert.Equal(t, want, rw.substituteDomain(in), "input: %s", in)
	}
}

func TestScrapeURLs(t *testing.T) {
	rw := newRewriter("example.com")
	body := `<a href="https://example.com/foo.html">link</a> <a href="/bar">other</a>`

	// The capture class excludes '.', so foo.html is not captured; captures
	// keep their leading slash.
	got := rw.scrapeURLs(body)
	assert.ElementsMatch(t, []string{"/bar"}, got)
}

func TestScrapeFormActions(t *testing.T) {
	rw := newRewriter("example.com")
	body := `<form method="post" action="/submit">...</form>`

	got := rw.scrapeFormActions(body)
	assert.Equal(t, []string{"/submit"}, got)
}

func TestScrapeFormActions_MultipleForms(t *testing.T) {
	rw := newRewriter("example.com")
	body := `<form action="/one"></form><form action="/two"></form>`

	got := rw.scrapeFormActions(body)
	assert.Equal(t, []string{"/one", "/two"}, got)
}
