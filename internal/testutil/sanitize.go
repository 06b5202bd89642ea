package testutil

import (
	"net/url"
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// SensitivePatterns match parameter, header and JSON field names whose
// values must not end up in a recording.
var SensitivePatterns = []string{
	`(?i)password`,
	`(?i)passwd`,
	`(?i)secret`,
	`(?i)answer`,

	`(?i)token`,
	`(?i)session`,
	`(?i)auth`,
	`(?i)jwt`,
	`(?i)bearer`,

	`(?i)api_?key`,
	`(?i)credential`,
	`(?i)private_key`,

	`(?i)acctnum`,
	`(?i)acctname`,
	`(?i)userdefined`,
	`(?i)client_number`,
	`(?i)email`,
}

// SensitiveKeys are names that only count when they match exactly, since
// they are too short to use as patterns.
var SensitiveKeys = map[string]bool{
	"pin": true,
	"acn": true,
}

// SensitiveHeaders are redacted whole.
var SensitiveHeaders = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"x-api-key":           true,
	"x-transaction-token": true,
}

// Cookie headers keep their cookie names so that a replayed session still
// sets the cookies the client looks for.
var cookieHeaders = map[string]bool{
	"cookie":     true,
	"set-cookie": true,
}

// OFX statement elements carrying account identifiers.
var ofxTags = []string{"ACCTID", "ACCTKEY", "NAME", "MEMO"}

var (
	keyPatterns  []*regexp.Regexp
	jsonPatterns []*regexp.Regexp
	ofxPatterns  []*regexp.Regexp
)

func init() {
	names := append([]string(nil), SensitivePatterns...)
	for key := range SensitiveKeys {
		names = append(names, `(?i)`+regexp.QuoteMeta(key))
	}

	for _, p := range SensitivePatterns {
		keyPatterns = append(keyPatterns, regexp.MustCompile(p))
	}
	for _, p := range names {
		jsonPatterns = append(jsonPatterns,
			regexp.MustCompile(`("`+p+`")\s*:\s*"[^"]*"`),
			regexp.MustCompile(`("`+p+`")\s*:\s*([^",}\]\s][^",}\]]*)`),
		)
	}
	for _, tag := range ofxTags {
		ofxPatterns = append(ofxPatterns, regexp.MustCompile(`(<`+tag+`>)[^<\r\n]*`))
	}
}

// SanitizeHAR returns a copy of har with sensitive values replaced by
// [REDACTED].
func SanitizeHAR(har *HARLog) *HARLog {
	sanitized := &HARLog{Entries: make([]HAREntry, len(har.Entries))}
	for i, e := range har.Entries {
		sanitized.Entries[i] = HAREntry{
			Request: HARRequest{
				Method:  e.Request.Method,
				URL:     sanitizeURL(e.Request.URL),
				Headers: sanitizeHeaders(e.Request.Headers),
				Body:    sanitizeBody(e.Request.Body),
			},
			Response: HARResponse{
				Status:  e.Response.Status,
				Headers: sanitizeHeaders(e.Response.Headers),
				Content: HARContent{
					MimeType: e.Response.Content.MimeType,
					Text:     sanitizeContent(e.Response.Content),
					Encoding: e.Response.Content.Encoding,
					Size:     e.Response.Content.Size,
				},
			},
		}
	}
	return sanitized
}

func sanitizeContent(c HARContent) string {
	if c.Encoding == "base64" {
		return c.Text
	}
	if strings.Contains(c.Text, "<OFX>") {
		return SanitizeOFX(c.Text)
	}
	return sanitizeBody(c.Text)
}

func sanitizeURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.RawQuery == "" {
		return rawURL
	}

	query := parsed.Query()
	for key := range query {
		if isSensitiveKey(key) {
			query.Set(key, redacted)
		}
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

func sanitizeHeaders(headers []HARHeader) []HARHeader {
	sanitized := make([]HARHeader, len(headers))
	for i, h := range headers {
		name := strings.ToLower(h.Name)
		switch {
		case cookieHeaders[name]:
			sanitized[i] = HARHeader{Name: h.Name, Value: sanitizeCookies(h.Value)}
		case SensitiveHeaders[name], isSensitiveKey(name):
			sanitized[i] = HARHeader{Name: h.Name, Value: redacted}
		default:
			sanitized[i] = h
		}
	}
	return sanitized
}

// sanitizeCookies redacts the values of a Cookie or Set-Cookie header and
// leaves names and attributes alone.
func sanitizeCookies(value string) string {
	parts := strings.Split(value, ";")
	for i, part := range parts {
		name, _, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		if i > 0 && isCookieAttribute(name) {
			continue
		}
		prefix := ""
		if i > 0 {
			prefix = " "
		}
		parts[i] = prefix + name + "=" + redacted
	}
	return strings.Join(parts, ";")
}

func isCookieAttribute(name string) bool {
	switch strings.ToLower(name) {
	case "path", "domain", "expires", "max-age", "samesite":
		return true
	}
	return false
}

func sanitizeBody(body string) string {
	trimmed := strings.TrimSpace(body)
	switch {
	case trimmed == "":
		return body
	case strings.HasPrefix(trimmed, "{"), strings.HasPrefix(trimmed, "["):
		return sanitizeJSONBody(body)
	case strings.HasPrefix(trimmed, "<"):
		return body
	case strings.Contains(body, "="):
		return sanitizeFormBody(body)
	}
	return body
}

func sanitizeFormBody(body string) string {
	values, err := url.ParseQuery(body)
	if err != nil {
		return body
	}
	for key := range values {
		if isSensitiveKey(key) {
			values.Set(key, redacted)
		}
	}
	return values.Encode()
}

func sanitizeJSONBody(body string) string {
	result := body
	for _, re := range jsonPatterns {
		result = re.ReplaceAllString(result, `$1: "`+redacted+`"`)
	}
	return result
}

// SanitizeOFX redacts account identifiers and payee names from a QFX/OFX
// statement.
func SanitizeOFX(doc string) string {
	for _, re := range ofxPatterns {
		doc = re.ReplaceAllString(doc, `${1}`+redacted)
	}
	return doc
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	if SensitiveKeys[lower] {
		return true
	}
	for _, re := range keyPatterns {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}
