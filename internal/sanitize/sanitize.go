// Package sanitize cleans user and model supplied text before it is stored.
// Descriptions and chat messages are plain text; bluemonday's strict policy
// removes any markup a client or language model slipped in.
package sanitize

import (
	"html"
	"net/url"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the singleton strict policy. Initialized once via sync.Once for
// thread-safe lazy initialization.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared sanitization policy, initializing it on first call.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Text strips every HTML element from input and trims surrounding
// whitespace. Entities escaped by the policy are decoded again so the stored
// value reads the way the user typed it ("AT&T", not "AT&amp;T").
func Text(input string) string {
	if input == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(getPolicy().Sanitize(input)))
}

// URL returns raw if it is an absolute http(s) URL, otherwise "".
// Citation and image links come from model output and are rendered as
// hrefs by the frontend.
func URL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
