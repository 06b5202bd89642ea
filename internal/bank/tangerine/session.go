package tangerine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"
)

const DefaultTimeout = 30 * time.Second

// Transport is the cookie-carrying HTTP capability the login flow and the
// API operations share.
type Transport interface {
	Get(ctx context.Context, rawURL string, header http.Header) (*Response, error)
	Post(ctx context.Context, rawURL string, header http.Header, body []byte) (*Response, error)
	// Cookie returns the value of the named cookie that would be sent to rawURL.
	Cookie(rawURL, name string) (string, bool)
	SetCookies(rawURL string, cookies []*http.Cookie) error
	// Reset drops every cookie.
	Reset() error
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Method     string
	URL        string
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Session is the default Transport. It is not safe for concurrent use: one
// Session backs exactly one logical login.
type Session struct {
	// ID changes on every Reset and only serves log correlation.
	ID string

	client    *http.Client
	userAgent string
}

// NewSession wraps httpClient (or a client with DefaultTimeout when nil)
// with a fresh cookie jar. The caller's client is copied, not mutated.
func NewSession(httpClient *http.Client, userAgent string) (*Session, error) {
	c := &http.Client{Timeout: DefaultTimeout}
	if httpClient != nil {
		copied := *httpClient
		c = &copied
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	s := &Session{client: c, userAgent: userAgent}
	if err := s.Reset(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) Reset() error {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return fmt.Errorf("create cookie jar: %w", err)
	}
	s.client.Jar = jar
	s.ID = uuid.NewString()
	return nil
}

func (s *Session) Get(ctx context.Context, rawURL string, header http.Header) (*Response, error) {
	return s.do(ctx, http.MethodGet, rawURL, header, nil)
}

func (s *Session) Post(ctx context.Context, rawURL string, header http.Header, body []byte) (*Response, error) {
	return s.do(ctx, http.MethodPost, rawURL, header, body)
}

func (s *Session) Cookie(rawURL, name string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	for _, c := range s.client.Jar.Cookies(u) {
		if c.Name == name && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}

func (s *Session) SetCookies(rawURL string, cookies []*http.Cookie) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse cookie url: %w", err)
	}
	s.client.Jar.SetCookies(u, cookies)
	return nil
}

func (s *Session) do(ctx context.Context, method, rawURL string, header http.Header, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	for name, values := range header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s response: %w", method, rawURL, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		Method:     method,
		URL:        rawURL,
	}, nil
}
