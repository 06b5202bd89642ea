package testutil

import (
	"bytes"
	"io"
	"net/http"
	"sync"
)

// Recorder is an http.RoundTripper that keeps every exchange it forwards.
type Recorder struct {
	next http.RoundTripper

	mu      sync.Mutex
	entries []HAREntry
}

// NewRecorder records traffic sent through next, or http.DefaultTransport
// when next is nil.
func NewRecorder(next http.RoundTripper) *Recorder {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Recorder{next: next}
}

func (r *Recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	var reqBody []byte
	if req.Body != nil {
		data, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, err
		}
		reqBody = data
		req.Body = io.NopCloser(bytes.NewReader(data))
	}

	resp, err := r.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	respBody, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(respBody))

	entry := HAREntry{
		Request: HARRequest{
			Method:  req.Method,
			URL:     req.URL.String(),
			Headers: harHeaders(req.Header),
			Body:    string(reqBody),
		},
		Response: HARResponse{
			Status:  resp.StatusCode,
			Headers: harHeaders(resp.Header),
			Content: harContent(resp.Header.Get("Content-Type"), respBody),
		},
	}

	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()

	return resp, nil
}

// HAR returns a copy of everything recorded so far.
func (r *Recorder) HAR() *HARLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &HARLog{Entries: append([]HAREntry(nil), r.entries...)}
}

// Save writes the recording to path, sanitized unless raw is set.
func (r *Recorder) Save(path string, raw bool) error {
	har := r.HAR()
	if !raw {
		har = SanitizeHAR(har)
	}
	return SaveHAR(path, har)
}
