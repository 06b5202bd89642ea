package testutil

import (
	"fmt"
	"strings"
)

// Redaction is one value SanitizeHAR replaced.
type Redaction struct {
	Entry  int // 1-based
	Method string
	// URL is the request URL without its query, which may hold tokens.
	URL   string
	Field string
}

func (r Redaction) String() string {
	return fmt.Sprintf("#%d %s %s: %s", r.Entry, r.Method, r.URL, r.Field)
}

// Redactions lists what differs between a recording and its sanitized copy,
// entry by entry.
func Redactions(original, sanitized *HARLog) []Redaction {
	var out []Redaction
	n := min(len(original.Entries), len(sanitized.Entries))
	for i := range n {
		before, after := original.Entries[i], sanitized.Entries[i]
		add := func(field string) {
			out = append(out, Redaction{
				Entry:  i + 1,
				Method: before.Request.Method,
				URL:    withoutQuery(before.Request.URL),
				Field:  field,
			})
		}

		if before.Request.URL != after.Request.URL {
			add("url query")
		}
		for _, name := range changedHeaders(before.Request.Headers, after.Request.Headers) {
			add("request header " + name)
		}
		if before.Request.Body != after.Request.Body {
			add("request body")
		}
		for _, name := range changedHeaders(before.Response.Headers, after.Response.Headers) {
			add("response header " + name)
		}
		if before.Response.Content.Text != after.Response.Content.Text {
			add("response body")
		}
	}
	return out
}

func changedHeaders(before, after []HARHeader) []string {
	var names []string
	for i := range min(len(before), len(after)) {
		if before[i].Value != after[i].Value {
			names = append(names, before[i].Name)
		}
	}
	return names
}

func withoutQuery(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i]
	}
	return u
}
