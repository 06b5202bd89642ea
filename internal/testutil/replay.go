package testutil

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Replayer serves recorded responses in place of the network. It is an
// http.RoundTripper and, through Middleware, a rod hijack handler.
//
// Requests are matched on method and URL, first with the full URL and then
// with the path alone. Repeated requests to the same URL consume the
// recordings in order; once they run out the last one keeps being served.
type Replayer struct {
	mu      sync.Mutex
	entries []HAREntry
	used    []bool
	exact   map[string][]int
	paths   map[string][]int
	matched int
	missed  int

	// passthrough serves unmatched requests; nil answers them with 404.
	passthrough http.RoundTripper
	logger      *zap.Logger
}

type ReplayerOption func(*Replayer)

// WithPassthrough sends unmatched requests to rt. For browser sessions any
// non-nil rt lets the request through to the real network.
func WithPassthrough(rt http.RoundTripper) ReplayerOption {
	return func(r *Replayer) { r.passthrough = rt }
}

func WithLogger(l *zap.Logger) ReplayerOption {
	return func(r *Replayer) { r.logger = l }
}

func NewReplayer(har *HARLog, opts ...ReplayerOption) *Replayer {
	r := &Replayer{
		entries: har.Entries,
		used:    make([]bool, len(har.Entries)),
		exact:   make(map[string][]int),
		paths:   make(map[string][]int),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	for i, e := range har.Entries {
		exact, path, err := matchKeys(e.Request.Method, e.Request.URL)
		if err != nil {
			r.logger.Warn("skipping unparseable recording", zap.String("url", e.Request.URL), zap.Error(err))
			continue
		}
		r.exact[exact] = append(r.exact[exact], i)
		r.paths[path] = append(r.paths[path], i)
	}
	return r
}

// matchKeys returns the full-URL and path-only keys of a request. Query
// parameters are re-encoded so their order does not matter.
func matchKeys(method, rawURL string) (exact, path string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", err
	}
	method = strings.ToUpper(method)
	base := u.Scheme + "://" + u.Host + u.Path
	exact = method + " " + base
	if q := u.Query(); len(q) > 0 {
		exact += "?" + q.Encode()
	}
	return exact, method + " " + base, nil
}

func (r *Replayer) lookup(method, rawURL string) (*HAREntry, bool) {
	exact, path, err := matchKeys(method, rawURL)
	if err != nil {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, candidates := range [][]int{r.exact[exact], r.paths[path]} {
		if i, ok := r.next(candidates); ok {
			r.matched++
			return r.follow(&r.entries[i]), true
		}
	}
	r.missed++
	return nil, false
}

// next must be called with r.mu held.
func (r *Replayer) next(candidates []int) (int, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	for _, i := range candidates {
		if !r.used[i] {
			r.used[i] = true
			return i, true
		}
	}
	return candidates[len(candidates)-1], true
}

// follow resolves recorded redirects whose target is also recorded. Must
// be called with r.mu held.
func (r *Replayer) follow(entry *HAREntry) *HAREntry {
	const maxRedirects = 10

	current := entry
	for i := 0; i < maxRedirects; i++ {
		if current.Response.Status < 300 || current.Response.Status >= 400 {
			return current
		}
		location := headerValue(current.Response.Headers, "Location")
		if location == "" {
			return current
		}
		exact, path, err := matchKeys(http.MethodGet, location)
		if err != nil {
			return current
		}
		target, ok := r.next(r.exact[exact])
		if !ok {
			if target, ok = r.next(r.paths[path]); !ok {
				return current
			}
		}
		r.logger.Debug("following recorded redirect", zap.String("location", location))
		current = &r.entries[target]
	}
	return current
}

// RoundTrip implements http.RoundTripper.
func (r *Replayer) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		_ = req.Body.Close()
	}

	entry, ok := r.lookup(req.Method, req.URL.String())
	if !ok {
		r.logger.Debug("no recording", zap.String("method", req.Method), zap.String("url", req.URL.String()))
		if r.passthrough != nil {
			return r.passthrough.RoundTrip(req)
		}
		return notFoundResponse(req), nil
	}
	r.logger.Debug("replayed", zap.String("url", req.URL.String()), zap.Int("status", entry.Response.Status))

	header := entry.Response.Header()
	header.Del("Content-Encoding")
	header.Del("Content-Length")
	body := entry.Response.Body()

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", entry.Response.Status, http.StatusText(entry.Response.Status)),
		StatusCode:    entry.Response.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}, nil
}

func notFoundResponse(req *http.Request) *http.Response {
	body := []byte(`{"error": "no recording found for URL"}`)
	return &http.Response{
		Status:        "404 Not Found",
		StatusCode:    http.StatusNotFound,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"Content-Type": {"application/json"}},
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}

// Middleware returns a rod hijack handler serving the recordings. Use with
// router.MustAdd("*", replayer.Middleware()).
func (r *Replayer) Middleware() func(*rod.Hijack) {
	return func(ctx *rod.Hijack) {
		reqURL := ctx.Request.URL().String()

		entry, ok := r.lookup(ctx.Request.Method(), reqURL)
		if !ok {
			if r.passthrough != nil {
				_ = ctx.LoadResponse(nil, true)
				return
			}
			payload := ctx.Response.Payload()
			payload.ResponseCode = http.StatusNotFound
			payload.ResponseHeaders = []*proto.FetchHeaderEntry{{Name: "Content-Type", Value: "application/json"}}
			payload.Body = []byte(`{"error": "no recording found for URL"}`)
			r.logger.Debug("no recording", zap.String("url", reqURL))
			return
		}

		var headers []*proto.FetchHeaderEntry
		for _, h := range entry.Response.Headers {
			switch strings.ToLower(h.Name) {
			case "content-encoding", "content-length", "location":
				continue
			}
			headers = append(headers, &proto.FetchHeaderEntry{Name: h.Name, Value: h.Value})
		}
		if headerValue(entry.Response.Headers, "Content-Type") == "" && entry.Response.Content.MimeType != "" {
			headers = append(headers, &proto.FetchHeaderEntry{Name: "Content-Type", Value: entry.Response.Content.MimeType})
		}

		payload := ctx.Response.Payload()
		payload.ResponseCode = entry.Response.Status
		payload.ResponseHeaders = headers
		payload.Body = entry.Response.Body()
	}
}

// Stats reports how many requests were served from and missed by the
// recordings.
func (r *Replayer) Stats() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return map[string]int{
		"entries": len(r.entries),
		"matched": r.matched,
		"missed":  r.missed,
	}
}
