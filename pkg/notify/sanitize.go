package notify

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// Sanitizer cleans message text before it is inserted as markup.
type Sanitizer interface {
	Sanitize(s string) string
}

func defaultSanitizer() Sanitizer {
	textPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements("b", "strong", "i", "em", "u", "br", "span", "code", "p", "ul", "ol", "li")
		policy.AllowAttrs("class").OnElements("span", "p", "code")
		policy.AllowAttrs("href").OnElements("a")
		policy.AllowStandardURLs()
		policy.RequireNoFollowOnLinks(true)
		textPolicy = policy
	})
	return textPolicy
}

func sanitizeText(s Sanitizer, raw string) string {
	return strings.TrimSpace(s.Sanitize(raw))
}
