package helpers

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy
)

// StrictHTMLPolicy returns a shared bluemonday policy that strips every HTML
// element and attribute.
func StrictHTMLPolicy() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// SanitizeHTMLStrict removes every HTML tag from s and trims it. The result is
// still entity-escaped, so it is safe to embed in markup.
func SanitizeHTMLStrict(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.TrimSpace(StrictHTMLPolicy().Sanitize(s))
}

// PlainText strips markup from s and decodes entities, for text that is fed
// to a model or shown in a terminal rather than rendered as HTML.
func PlainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(SanitizeHTMLStrict(s)))
}
