// Package testutil records HTTP exchanges as HAR files and replays them,
// both for plain http.Client traffic and for rod-driven browser sessions.
package testutil

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"
	"unicode/utf8"
)

// HARLog is the simplified HAR layout the recordings are stored in.
type HARLog struct {
	Entries []HAREntry `json:"entries"`
}

// HAREntry is one request and the response it got.
type HAREntry struct {
	Request  HARRequest  `json:"request"`
	Response HARResponse `json:"response"`
}

type HARRequest struct {
	Method  string      `json:"method"`
	URL     string      `json:"url"`
	Headers []HARHeader `json:"headers,omitempty"`
	Body    string      `json:"body,omitempty"`
}

type HARResponse struct {
	Status  int         `json:"status"`
	Headers []HARHeader `json:"headers,omitempty"`
	Content HARContent  `json:"content"`
}

type HARHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// HARContent holds a response body. Non UTF-8 bodies are base64 encoded.
type HARContent struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
	Encoding string `json:"encoding,omitempty"`
	Size     int    `json:"size,omitempty"`
}

// Body returns the decoded response body.
func (r HARResponse) Body() []byte {
	if r.Content.Encoding == "base64" {
		if data, err := base64.StdEncoding.DecodeString(r.Content.Text); err == nil {
			return data
		}
	}
	return []byte(r.Content.Text)
}

// Header returns the recorded headers as an http.Header. Repeated names,
// Set-Cookie in particular, are kept.
func (r HARResponse) Header() http.Header {
	h := make(http.Header, len(r.Headers))
	for _, hh := range r.Headers {
		h.Add(hh.Name, hh.Value)
	}
	if h.Get("Content-Type") == "" && r.Content.MimeType != "" {
		h.Set("Content-Type", r.Content.MimeType)
	}
	return h
}

func harHeaders(h http.Header) []HARHeader {
	var out []HARHeader
	for name, values := range h {
		for _, v := range values {
			out = append(out, HARHeader{Name: name, Value: v})
		}
	}
	return out
}

func harContent(mimeType string, body []byte) HARContent {
	c := HARContent{MimeType: mimeType, Size: len(body)}
	if utf8.Valid(body) {
		c.Text = string(body)
	} else {
		c.Text = base64.StdEncoding.EncodeToString(body)
		c.Encoding = "base64"
	}
	return c
}

// Browser exports (Chrome DevTools, Firefox) wrap the entries in a "log"
// object and carry request bodies in postData.
type browserHAR struct {
	Log struct {
		Entries []struct {
			Request struct {
				Method   string      `json:"method"`
				URL      string      `json:"url"`
				Headers  []HARHeader `json:"headers,omitempty"`
				PostData *struct {
					Text string `json:"text"`
				} `json:"postData,omitempty"`
			} `json:"request"`
			Response HARResponse `json:"response"`
		} `json:"entries"`
	} `json:"log"`
}

// LoadHAR reads a HAR file in either the simplified or the browser export
// layout.
func LoadHAR(path string) (*HARLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read HAR file: %w", err)
	}

	var exported browserHAR
	if err := json.Unmarshal(data, &exported); err == nil && len(exported.Log.Entries) > 0 {
		har := &HARLog{Entries: make([]HAREntry, len(exported.Log.Entries))}
		for i, e := range exported.Log.Entries {
			req := HARRequest{Method: e.Request.Method, URL: e.Request.URL, Headers: e.Request.Headers}
			if e.Request.PostData != nil {
				req.Body = e.Request.PostData.Text
			}
			har.Entries[i] = HAREntry{Request: req, Response: e.Response}
		}
		return har, nil
	}

	var har HARLog
	if err := json.Unmarshal(data, &har); err != nil {
		return nil, fmt.Errorf("parse HAR JSON: %w", err)
	}
	return &har, nil
}

// SaveHAR writes har as indented JSON.
func SaveHAR(path string, har *HARLog) error {
	data, err := json.MarshalIndent(har, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal HAR: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write HAR file: %w", err)
	}
	return nil
}

// MustLoadHAR loads a HAR file and fails the test if it cannot be loaded.
func MustLoadHAR(t *testing.T, path string) *HARLog {
	t.Helper()

	har, err := LoadHAR(path)
	if err != nil {
		t.Fatalf("failed to load HAR file %s: %v", path, err)
	}
	return har
}

func headerValue(headers []HARHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}
