package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"

	"github.com/grez-lucas/bank-client/internal/bank"
	"github.com/grez-lucas/bank-client/internal/bank/tangerine"
)

const (
	DefaultTimeout      = 5 * time.Minute
	defaultPollInterval = time.Second
)

// Authenticator lets the user log in through a real browser window and then
// hands the browser's cookies, the security token included, to the client's
// Transport. Use it when the form login is blocked by bot detection or a
// second factor the form flow cannot answer.
type Authenticator struct {
	endpoints    tangerine.Endpoints
	locale       string
	secrets      bank.SecretProvider
	launch       LaunchConfig
	browser      *rod.Browser
	hijacker     func(*rod.Hijack)
	timeout      time.Duration
	pollInterval time.Duration
	fastTyping   bool
	logger       *zap.Logger
}

var _ tangerine.Authenticator = (*Authenticator)(nil)

type Option func(*Authenticator)

// WithSecrets pre-fills the client number so only the PIN and any challenge
// are left to the user.
func WithSecrets(s bank.SecretProvider) Option {
	return func(a *Authenticator) { a.secrets = s }
}

func WithLocale(locale string) Option {
	return func(a *Authenticator) { a.locale = locale }
}

func WithLaunchConfig(cfg LaunchConfig) Option {
	return func(a *Authenticator) { a.launch = cfg }
}

// WithBrowser reuses a connected browser instead of launching one. The
// caller keeps ownership of it.
func WithBrowser(b *rod.Browser) Option {
	return func(a *Authenticator) { a.browser = b }
}

// WithHijacker routes every page request through h, e.g. a HAR replayer.
func WithHijacker(h func(*rod.Hijack)) Option {
	return func(a *Authenticator) { a.hijacker = h }
}

// WithTimeout bounds the whole interactive login.
func WithTimeout(d time.Duration) Option {
	return func(a *Authenticator) { a.timeout = d }
}

func WithPollInterval(d time.Duration) Option {
	return func(a *Authenticator) { a.pollInterval = d }
}

func WithFastTyping(enabled bool) Option {
	return func(a *Authenticator) { a.fastTyping = enabled }
}

func WithLogger(l *zap.Logger) Option {
	return func(a *Authenticator) { a.logger = l }
}

func NewAuthenticator(endpoints tangerine.Endpoints, opts ...Option) *Authenticator {
	a := &Authenticator{
		endpoints:    endpoints,
		locale:       tangerine.DefaultLocale,
		timeout:      DefaultTimeout,
		pollInterval: defaultPollInterval,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Authenticator) Authenticate(ctx context.Context, t tangerine.Transport) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	b := a.browser
	if b == nil {
		launched, err := Launch(a.launch)
		if err != nil {
			return err
		}
		defer func() { _ = launched.Close() }()
		b = launched
	}

	page, err := stealth.Page(b)
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}
	defer func() { _ = page.Close() }()
	page = page.Context(ctx)

	if a.hijacker != nil {
		router := page.HijackRequests()
		if err := router.Add("*", "", a.hijacker); err != nil {
			return fmt.Errorf("install hijacker: %w", err)
		}
		go router.Run()
		defer func() { _ = router.Stop() }()
	}

	loginURL := a.endpoints.LoginPageURL(a.locale)
	a.logger.Debug("opening login page in browser", zap.String("url", loginURL))
	if err := page.Navigate(loginURL); err != nil {
		return a.stepError("login_page", err)
	}
	if err := page.WaitLoad(); err != nil {
		return a.stepError("login_page", err)
	}
	if err := WaitForIFrames(page); err != nil {
		return a.stepError("login_page", err)
	}

	if a.secrets != nil {
		if err := a.prefill(ctx, page); err != nil {
			return err
		}
	}

	a.logger.Info("waiting for login to complete in the browser", zap.Duration("timeout", a.timeout))
	cookies, err := a.waitForToken(ctx, page)
	if err != nil {
		return err
	}

	if err := t.SetCookies(a.endpoints.SecureBaseURL, toHTTPCookies(cookies)); err != nil {
		return fmt.Errorf("copy browser cookies: %w", err)
	}
	a.logger.Debug("browser cookies copied", zap.Int("count", len(cookies)))
	return nil
}

func (a *Authenticator) prefill(ctx context.Context, page *rod.Page) error {
	cred, err := a.secrets.Credential(ctx)
	if err != nil {
		return fmt.Errorf("get credential: %w", err)
	}

	el := FindInFrames(page, tangerine.SelectorIdentifierInput)
	if el == nil {
		a.logger.Warn("client number field not found; leaving it to the user")
		return nil
	}

	pace := HumanPace
	if a.fastTyping {
		pace = Instant
	}
	if err := TypeText(ctx, el, cred.Identifier, pace); err != nil {
		return a.stepError("client_number", err)
	}
	return nil
}

// waitForToken polls the browser's cookies for the secure host until the
// security token shows up.
func (a *Authenticator) waitForToken(ctx context.Context, page *rod.Page) ([]*proto.NetworkCookie, error) {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		cookies, err := page.Cookies([]string{a.endpoints.TokenURL()})
		if err != nil && ctx.Err() == nil {
			return nil, a.stepError("token", err)
		}
		if hasToken(cookies) {
			return cookies, nil
		}

		select {
		case <-ctx.Done():
			return nil, &bank.AuthError{
				BankCode: bank.BankTangerine,
				Step:     "token",
				Cause:    errors.Join(bank.ErrMissingToken, ctx.Err()),
				Details:  "browser login did not complete",
			}
		case <-ticker.C:
		}
	}
}

func (a *Authenticator) stepError(step string, err error) error {
	return &bank.AuthError{BankCode: bank.BankTangerine, Step: step, Cause: err}
}

func hasToken(cookies []*proto.NetworkCookie) bool {
	for _, c := range cookies {
		if c.Name == tangerine.TokenCookie && c.Value != "" {
			return true
		}
	}
	return false
}

// toHTTPCookies converts CDP cookies for a cookie jar. Host-only cookies
// (no leading dot) lose their Domain so the jar keeps them host-only.
func toHTTPCookies(cookies []*proto.NetworkCookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		hc := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}
		if strings.HasPrefix(c.Domain, ".") {
			hc.Domain = c.Domain
		}
		if !c.Session && c.Expires > 0 {
			hc.Expires = time.Unix(int64(c.Expires), 0)
		}
		out = append(out, hc)
	}
	return out
}
