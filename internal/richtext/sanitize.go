package richtext

import (
	"regexp"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// Policy returns the shared sanitizer policy for rendered content. It is a
// UGC policy extended with the classes, data attributes and iframes the
// renderer emits.
func Policy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = newPolicy()
	})
	return policy
}

func newPolicy() *bluemonday.Policy {
	classRegexp := regexp.MustCompile(`^[a-zA-Z0-9 _:/\[\]\.\-]+$`)
	dataRegexp := regexp.MustCompile(`^[a-zA-Z0-9 ,:_\-]*$`)
	embedSrcRegexp := regexp.MustCompile(`^https://`)

	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(classRegexp).Globally()
	p.AllowAttrs(
		"data-language",
		"data-line-numbers",
		"data-highlight-lines",
		"data-callout",
		"data-layout",
		"data-media-id",
	).Matching(dataRegexp).Globally()

	p.AllowElements("figure", "figcaption", "cite", "footer", "u", "s")
	p.AllowAttrs("loading").Matching(regexp.MustCompile(`^(lazy|eager)$`)).OnElements("img")
	p.AllowAttrs("sizes").Matching(regexp.MustCompile(`^[a-z0-9 (),:\-]+$`)).OnElements("img")

	p.AllowAttrs("src").Matching(embedSrcRegexp).OnElements("iframe")
	p.AllowAttrs("title", "allow").OnElements("iframe")
	p.AllowAttrs("allowfullscreen").OnElements("iframe")

	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	p.RequireNoReferrerOnLinks(true)
	return p
}

// Sanitize strips anything from s the policy does not allow.
func Sanitize(s string) string {
	return Policy().Sanitize(s)
}
