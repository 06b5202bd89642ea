// Package tangerine is a client for Tangerine's web REST API: login, account
// and transaction reads, QFX statement downloads and money movement.
package tangerine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/grez-lucas/bank-client/internal/bank"
)

// Client exposes the API operations on top of one authenticated session.
// It is not safe for concurrent use; give each logical session its own
// Client.
type Client struct {
	transport   Transport
	login       *LoginFlow
	endpoints   Endpoints
	userAgent   string
	downloadDir string
	logger      *zap.Logger
}

var _ bank.Client = (*Client)(nil)

type options struct {
	endpoints     Endpoints
	locale        string
	userAgent     string
	timeout       time.Duration
	httpClient    *http.Client
	transport     Transport
	authenticator Authenticator
	downloadDir   string
	logger        *zap.Logger
}

// Option configures a Client.
type Option func(*options)

func WithEndpoints(e Endpoints) Option {
	return func(o *options) { o.endpoints = e }
}

func WithLocale(locale string) Option {
	return func(o *options) { o.locale = locale }
}

func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithTimeout bounds every request. Ignored when WithHTTPClient or
// WithTransport is given.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithHTTPClient sets the client the default Session copies. Its Jar is
// replaced.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func WithTransport(t Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithAuthenticator replaces the HTML form login.
func WithAuthenticator(a Authenticator) Option {
	return func(o *options) { o.authenticator = a }
}

// WithDownloadDir is where DownloadOFX saves statements.
func WithDownloadDir(dir string) Option {
	return func(o *options) { o.downloadDir = dir }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// NewClient builds a client that asks secrets for login credentials.
func NewClient(secrets bank.SecretProvider, opts ...Option) (*Client, error) {
	o := options{
		endpoints: DefaultEndpoints(),
		locale:    DefaultLocale,
		userAgent: DefaultUserAgent,
		timeout:   DefaultTimeout,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	transport := o.transport
	if transport == nil {
		httpClient := o.httpClient
		if httpClient == nil {
			httpClient = &http.Client{Timeout: o.timeout}
		}
		s, err := NewSession(httpClient, o.userAgent)
		if err != nil {
			return nil, err
		}
		transport = s
	}

	auth := o.authenticator
	if auth == nil {
		if secrets == nil {
			return nil, fmt.Errorf("tangerine: a secret provider is required for form login")
		}
		auth = &FormAuthenticator{
			Secrets:   secrets,
			Endpoints: o.endpoints,
			Locale:    o.locale,
			Logger:    o.logger,
		}
	}

	logger := o.logger.With(zap.String("bank", string(bank.BankTangerine)))

	return &Client{
		transport:   transport,
		login:       NewLoginFlow(transport, auth, o.endpoints, o.locale, logger),
		endpoints:   o.endpoints,
		userAgent:   o.userAgent,
		downloadDir: o.downloadDir,
		logger:      logger,
	}, nil
}

// Start logs in. See LoginFlow.Start.
func (c *Client) Start(ctx context.Context) error {
	return c.login.Start(ctx)
}

// End logs out. See LoginFlow.End.
func (c *Client) End(ctx context.Context) error {
	return c.login.End(ctx)
}

// WithSession logs in, runs fn and always logs out afterwards.
func (c *Client) WithSession(ctx context.Context, fn func(ctx context.Context) error) error {
	return bank.WithSession(ctx, c, fn)
}

func (c *Client) apiGet(ctx context.Context, path string) ([]byte, error) {
	if !c.login.Active() {
		return nil, bank.ErrNotLoggedIn
	}

	resp, err := c.transport.Get(ctx, c.endpoints.apiURL(path), http.Header{"Accept": {"application/json"}})
	if err != nil {
		return nil, err
	}
	if err := expectOK(resp); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) apiPost(ctx context.Context, path string, data any) ([]byte, error) {
	token, err := c.login.Token()
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	header := http.Header{
		HeaderWebFlavour:       {webFlavour},
		"Accept":               {"application/json"},
		"Content-Type":         {"application/json"},
		"Origin":               {c.endpoints.Origin},
		"Referer":              {c.endpoints.Referer},
		"User-Agent":           {c.userAgent},
		HeaderTransactionToken: {token},
	}

	resp, err := c.transport.Post(ctx, c.endpoints.apiURL(path), header, body)
	if err != nil {
		return nil, err
	}
	if err := expectOK(resp); err != nil {
		return nil, err
	}
	c.logger.Debug("api post", zap.String("path", path), zap.Int("status", resp.StatusCode))
	return resp.Body, nil
}

func getJSON[T any](ctx context.Context, c *Client, path string, spec responseSpec) (T, error) {
	body, err := c.apiGet(ctx, path)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeAs[T](body, spec)
}

func postJSON[T any](ctx context.Context, c *Client, path string, data any, spec responseSpec) (T, error) {
	body, err := c.apiPost(ctx, path, data)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeAs[T](body, spec)
}

const maxErrorBody = 512

func expectOK(resp *Response) error {
	if resp.OK() {
		return nil
	}
	body := string(resp.Body)
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	// Query strings can carry one-time tokens.
	u, _, _ := strings.Cut(resp.URL, "?")
	return &bank.HTTPError{
		StatusCode: resp.StatusCode,
		Method:     resp.Method,
		URL:        u,
		Body:       body,
	}
}
