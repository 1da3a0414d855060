// Package content applies the rich-text rules for post bodies and excerpts.
package content

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var (
	colorValue    = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|rgba?\(\s*[0-9.%\s,]+\)|[a-zA-Z]+)$`)
	languageClass = regexp.MustCompile(`^language-[A-Za-z0-9_+-]+$`)
)

// Policy sanitizes HTML produced by the authoring editor. A disabled policy passes HTML through
// untouched and is only meant for trusted single-author setups.
type Policy struct {
	enabled bool
	policy  *bluemonday.Policy
}

// NewPolicy returns the allow-list used for excerpts and content: bluemonday's UGC policy plus
// the marks and inline styles the editor emits.
func NewPolicy(enabled bool) *Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("mark", "u", "s")
	p.AllowStyles("text-align").MatchingEnum("left", "right", "center", "justify").Globally()
	p.AllowStyles("color", "background-color").Matching(colorValue).Globally()
	p.AllowAttrs("class").Matching(languageClass).OnElements("code", "pre")
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)

	return &Policy{enabled: enabled, policy: p}
}

// Enabled reports whether Sanitize rewrites its input.
func (p *Policy) Enabled() bool {
	return p != nil && p.enabled
}

// Sanitize strips everything outside the allow-list and trims surrounding space.
func (p *Policy) Sanitize(html string) string {
	if !p.Enabled() {
		return strings.TrimSpace(html)
	}
	return strings.TrimSpace(p.policy.Sanitize(html))
}

// WordCount counts the words a reader sees, ignoring markup. Adjacent block elements do not
// merge their words.
func WordCount(html string) int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return len(strings.Fields(html))
	}

	count := 0
	doc.Find("*").Not("script, style").Contents().Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "#text" {
			count += len(strings.Fields(s.Text()))
		}
	})
	return count
}

// IsBlank reports whether html renders no visible text and no image.
func IsBlank(html string) bool {
	if strings.TrimSpace(html) == "" {
		return true
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	return strings.TrimSpace(doc.Text()) == "" && doc.Find("img").Length() == 0
}
