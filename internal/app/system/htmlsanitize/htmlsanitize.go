// Package htmlsanitize cleans user-authored rich text before storage and
// display. Indicator descriptions, review remarks, and evidence notes may
// carry formatting from a rich text editor; everything else is treated as
// plain text and escaped.
package htmlsanitize

import (
	"html"
	"html/template"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	// Rich text editors emit class names and inline styles on tables.
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-zA-Z0-9\s\-_]+$`)).Globally()
	p.AllowAttrs("style").OnElements("table", "thead", "tbody", "tfoot", "tr", "th", "td")

	return p
}

// tagPattern matches something that looks like an HTML tag. A bare < or >
// in prose does not count.
var tagPattern = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

// Sanitize strips unsafe markup from an HTML fragment, keeping the
// formatting vocabulary a rich text editor produces.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}

// SanitizeToHTML sanitizes s and marks the result safe for template use.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// IsPlainText reports whether s carries no HTML tags.
func IsPlainText(s string) bool {
	return !tagPattern.MatchString(s)
}

// PlainTextToHTML escapes plain text and converts it to a single HTML
// paragraph with newlines as line breaks.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	escaped := html.EscapeString(strings.ReplaceAll(s, "\r\n", "\n"))
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>"
}

// PrepareForDisplay renders stored text for a template: plain text is
// escaped and paragraph-wrapped, HTML is sanitized.
func PrepareForDisplay(s string) template.HTML {
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return template.HTML(PlainTextToHTML(s))
	}
	return SanitizeToHTML(s)
}
