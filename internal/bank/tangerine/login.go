package tangerine

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/grez-lucas/bank-client/internal/bank"
)

// Authenticator runs the provider's login sequence against a Transport.
// On success the transport must hold the session cookies, TokenCookie
// included.
type Authenticator interface {
	Authenticate(ctx context.Context, t Transport) error
}

// FormAuthenticator logs in through the legacy HTML login pages, asking a
// SecretProvider for the client number, the PIN and, when the server
// demands it, the answer to a security challenge.
type FormAuthenticator struct {
	Secrets   bank.SecretProvider
	Endpoints Endpoints
	Locale    string
	Logger    *zap.Logger
}

type challengeQuestion struct {
	Question string `json:"question"`
}

func (a *FormAuthenticator) Authenticate(ctx context.Context, t Transport) error {
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	locale := a.Locale
	if locale == "" {
		locale = DefaultLocale
	}
	loginURL := a.Endpoints.pageURL(pathLoginPage)

	logger.Debug("opening login page")
	resp, err := t.Get(ctx, a.Endpoints.LoginPageURL(locale), nil)
	if err != nil {
		return err
	}
	if err := checkLoginPage("login_page", resp); err != nil {
		return err
	}

	cred, err := a.Secrets.Credential(ctx)
	if err != nil {
		return fmt.Errorf("get credential: %w", err)
	}

	logger.Debug("submitting client number")
	if err := a.postForm(ctx, t, "client_number", loginURL, url.Values{
		"command": {"PersonalCIF"},
		"ACN":     {cred.Identifier},
	}); err != nil {
		return err
	}

	if err := a.answerChallenge(ctx, t, logger, loginURL); err != nil {
		return err
	}

	logger.Debug("submitting PIN")
	if err := a.getPage(ctx, t, "pin_page", loginURL, url.Values{
		"command": {"displayPIN"},
		"device":  {"web"},
		"locale":  {locale},
	}); err != nil {
		return err
	}
	if err := a.postForm(ctx, t, "pin", loginURL, url.Values{
		"locale":     {locale},
		"command":    {"validatePINCommand"},
		"BUTTON":     {"Go"},
		"PIN":        {cred.Secret},
		"Go":         {"Next"},
		"callSource": {"4"},
	}); err != nil {
		return err
	}

	if err := a.getPage(ctx, t, "pinpad", loginURL, url.Values{"command": {"PINPADPersonal"}}); err != nil {
		return err
	}
	return a.getPage(ctx, t, "account_summary", loginURL, url.Values{
		"command": {"displayAccountSummary"},
		"fill":    {"1"},
	})
}

func (a *FormAuthenticator) answerChallenge(ctx context.Context, t Transport, logger *zap.Logger, loginURL string) error {
	resp, err := t.Get(ctx, a.Endpoints.apiURL(pathChallenge), http.Header{"Accept": {"application/json"}})
	if err != nil {
		return err
	}
	if err := expectOK(resp); err != nil {
		return err
	}

	challenge, err := decodeAs[*challengeQuestion](resp.Body, payload("challenge_question"))
	if err != nil {
		return &bank.AuthError{BankCode: bank.BankTangerine, Step: "challenge", Cause: err}
	}
	if challenge == nil || strings.TrimSpace(challenge.Question) == "" {
		logger.Debug("no security challenge requested")
		return nil
	}

	logger.Debug("answering security challenge")
	answer, err := a.Secrets.SecondFactor(ctx, challenge.Question)
	if err != nil {
		return fmt.Errorf("get second factor: %w", err)
	}

	return a.postForm(ctx, t, "challenge", loginURL, url.Values{
		"command": {"verifyChallengeQuestions"},
		"BUTTON":  {"Next"},
		"Answer":  {answer},
		"Next":    {"Next"},
	})
}

func (a *FormAuthenticator) getPage(ctx context.Context, t Transport, step, rawURL string, query url.Values) error {
	resp, err := t.Get(ctx, rawURL+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	return checkLoginPage(step, resp)
}

func (a *FormAuthenticator) postForm(ctx context.Context, t Transport, step, rawURL string, form url.Values) error {
	header := http.Header{"Content-Type": {"application/x-www-form-urlencoded"}}
	resp, err := t.Post(ctx, rawURL, header, []byte(form.Encode()))
	if err != nil {
		return err
	}
	return checkLoginPage(step, resp)
}

func checkLoginPage(step string, resp *Response) error {
	if err := expectOK(resp); err != nil {
		return err
	}
	if info := DetectLoginError(string(resp.Body)); info != nil {
		return loginStepError(step, info)
	}
	return nil
}

// LoginFlow owns the lifecycle of one authenticated session. It is not safe
// for concurrent use.
type LoginFlow struct {
	transport Transport
	auth      Authenticator
	endpoints Endpoints
	locale    string
	logger    *zap.Logger

	active    bool
	startedAt time.Time
}

func NewLoginFlow(t Transport, auth Authenticator, endpoints Endpoints, locale string, logger *zap.Logger) *LoginFlow {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locale == "" {
		locale = DefaultLocale
	}
	return &LoginFlow{
		transport: t,
		auth:      auth,
		endpoints: endpoints,
		locale:    locale,
		logger:    logger,
	}
}

// Active reports whether Start succeeded and End has not run since.
func (f *LoginFlow) Active() bool {
	return f.active
}

// Start logs in. Calling Start on an active flow ends that session first.
// A failed Start leaves the flow inactive with no cookies.
func (f *LoginFlow) Start(ctx context.Context) error {
	if f.active {
		f.logger.Info("restarting active session")
		if err := f.End(ctx); err != nil {
			f.logger.Warn("logout before re-login failed", zap.Error(err))
		}
	}

	if err := f.transport.Reset(); err != nil {
		return err
	}

	if err := f.auth.Authenticate(ctx, f.transport); err != nil {
		f.discard()
		return err
	}

	if _, ok := f.transport.Cookie(f.endpoints.TokenURL(), TokenCookie); !ok {
		f.discard()
		return &bank.AuthError{
			BankCode: bank.BankTangerine,
			Step:     "token",
			Cause:    bank.ErrMissingToken,
			Details:  "cookie " + TokenCookie + " not set",
		}
	}

	f.active = true
	f.startedAt = time.Now()
	f.logger.Info("session started", f.sessionField())
	return nil
}

// End logs out. It is a no-op when no session is active. The local session
// is dropped even if the logout request fails.
func (f *LoginFlow) End(ctx context.Context) error {
	if !f.active {
		return nil
	}

	field := f.sessionField()
	elapsed := time.Since(f.startedAt)
	query := url.Values{
		"command": {"displayLogout"},
		"device":  {"web"},
		"locale":  {f.locale},
	}
	resp, err := f.transport.Get(ctx, f.endpoints.pageURL(pathInitialPage)+"?"+query.Encode(), nil)
	if err == nil {
		err = expectOK(resp)
	}

	f.discard()

	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	f.logger.Info("session ended", field, zap.Duration("duration", elapsed))
	return nil
}

// Token returns the current security token for a state-changing request.
func (f *LoginFlow) Token() (string, error) {
	if !f.active {
		return "", bank.ErrNotLoggedIn
	}
	token, ok := f.transport.Cookie(f.endpoints.TokenURL(), TokenCookie)
	if !ok {
		return "", bank.ErrSessionExpired
	}
	return token, nil
}

func (f *LoginFlow) discard() {
	f.active = false
	f.startedAt = time.Time{}
	if err := f.transport.Reset(); err != nil {
		f.logger.Warn("reset transport", zap.Error(err))
	}
}

func (f *LoginFlow) sessionField() zap.Field {
	if s, ok := f.transport.(*Session); ok {
		return zap.String("session_id", s.ID)
	}
	return zap.Skip()
}
