// Package sanitize cleans user-supplied text before it is stored. Rich
// fields (document descriptions, message bodies) keep safe formatting;
// single-line fields (titles, subjects) lose all markup.
package sanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Policies are built once and shared; bluemonday policies are safe for
// concurrent use after construction.
var (
	richPolicy  *bluemonday.Policy
	plainPolicy *bluemonday.Policy
	policyOnce  sync.Once
)

func policies() (*bluemonday.Policy, *bluemonday.Policy) {
	policyOnce.Do(func() {
		richPolicy = bluemonday.UGCPolicy()

		// Quality manuals are full of tables.
		richPolicy.AllowElements("table", "thead", "tbody", "tfoot", "tr", "td", "th", "caption")
		richPolicy.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
		richPolicy.AllowAttrs("class").Globally()

		// Links open in a new tab and never pass a referrer.
		richPolicy.RequireNoReferrerOnLinks(true)
		richPolicy.AddTargetBlankToFullyQualifiedLinks(true)

		plainPolicy = bluemonday.StrictPolicy()
	})
	return richPolicy, plainPolicy
}

// HTML strips dangerous markup (script, iframe, event handlers, javascript:
// URLs) and keeps safe formatting. Must be applied to every rich-text field
// before it is written.
func HTML(input string) string {
	if input == "" {
		return ""
	}
	rich, _ := policies()
	return rich.Sanitize(input)
}

// Text removes every tag and trims surrounding whitespace. Entities such as
// &amp; are left escaped, so the result is safe to embed in HTML as is.
func Text(input string) string {
	if input == "" {
		return ""
	}
	_, plain := policies()
	return strings.TrimSpace(plain.Sanitize(input))
}
