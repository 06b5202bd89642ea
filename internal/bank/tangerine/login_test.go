package tangerine

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grez-lucas/bank-client/internal/bank"
	"github.com/grez-lucas/bank-client/internal/bank/tangerine/tangerinetest"
	"github.com/grez-lucas/bank-client/internal/secrets"
)

func TestLogin_Success(t *testing.T) {
	srv := newServer(t, nil)
	c := newTestClient(t, srv)

	require.NoError(t, c.Start(context.Background()))

	assert.True(t, c.login.Active())
	token, err := c.login.Token()
	require.NoError(t, err)
	assert.Equal(t, srv.Token(), token)

	assert.Equal(t, []string{
		"GET /web/InitialTangerine.html?command=displayLoginRegular",
		"POST /web/Tangerine.html",
		"GET /web/rest/v1/customers/my/security/challenge-question",
		"GET /web/Tangerine.html?command=displayPIN",
		"POST /web/Tangerine.html",
		"GET /web/Tangerine.html?command=PINPADPersonal",
		"GET /web/Tangerine.html?command=displayAccountSummary",
	}, paths(srv.Requests()))

	posts := srv.RequestsTo("/web/Tangerine.html")
	var forms []url.Values
	for _, r := range posts {
		if r.Method == http.MethodPost {
			form, err := url.ParseQuery(r.Body)
			require.NoError(t, err)
			forms = append(forms, form)
		}
	}
	require.Len(t, forms, 2)
	assert.Equal(t, tangerinetest.Identifier, forms[0].Get("ACN"))
	assert.Equal(t, "validatePINCommand", forms[1].Get("command"))
	assert.Equal(t, tangerinetest.PIN, forms[1].Get("PIN"))
	assert.Equal(t, "4", forms[1].Get("callSource"))

	first := srv.Requests()[0]
	assert.Equal(t, DefaultLocale, first.Query.Get("locale"))
	assert.Equal(t, DefaultUserAgent, first.Header.Get("User-Agent"))
}

func TestLogin_TokenScopedToAppPath(t *testing.T) {
	srv := newServer(t, func(c *tangerinetest.Config) {
		c.TokenPath = "/web"
		c.RotateToken = true
	})
	c := newTestClient(t, srv)

	require.NoError(t, c.Start(context.Background()))
	token, err := c.login.Token()
	require.NoError(t, err)
	assert.Equal(t, srv.Token(), token)

	_, err = c.MoveMoney(context.Background(), sampleTransfer())
	require.NoError(t, err)
	reqs := srv.RequestsTo(moveMoneyPath)
	require.Len(t, reqs, 1)
	assert.Equal(t, token, reqs[0].Header.Get(HeaderTransactionToken))

	rotated, err := c.login.Token()
	require.NoError(t, err)
	assert.Equal(t, srv.Token(), rotated)
	assert.NotEqual(t, token, rotated)

	require.NoError(t, c.End(context.Background()))
	assert.Equal(t, 1, srv.Logouts())
}

func TestLogin_WithSecurityChallenge(t *testing.T) {
	srv := newServer(t, func(c *tangerinetest.Config) {
		c.Question = tangerinetest.Question
		c.Answer = tangerinetest.Answer
	})
	c := newTestClient(t, srv)

	require.NoError(t, c.Start(context.Background()))

	var answered bool
	for _, r := range srv.RequestsTo("/web/Tangerine.html") {
		form, _ := url.ParseQuery(r.Body)
		if form.Get("command") == "verifyChallengeQuestions" {
			answered = true
			assert.Equal(t, tangerinetest.Answer, form.Get("Answer"))
		}
	}
	assert.True(t, answered, "challenge answer should be posted")
}

func TestLogin_WrongChallengeAnswer(t *testing.T) {
	srv := newServer(t, func(c *tangerinetest.Config) {
		c.Question = tangerinetest.Question
		c.Answer = "something else"
	})
	c := newTestClient(t, srv)

	err := c.Start(context.Background())

	var authErr *bank.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "challenge", authErr.Step)
	assert.ErrorIs(t, err, bank.ErrInvalidCredentials)
	assert.False(t, c.login.Active())
}

func TestLogin_WrongPIN(t *testing.T) {
	srv := newServer(t, nil)
	c, err := NewClient(&secrets.Static{
		Cred: bank.Credential{Identifier: tangerinetest.Identifier, Secret: "0000"},
	}, WithEndpoints(serverEndpoints(srv)))
	require.NoError(t, err)

	err = c.Start(context.Background())

	var authErr *bank.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "pin", authErr.Step)
	assert.Equal(t, bank.BankTangerine, authErr.BankCode)
	assert.Contains(t, authErr.Details, "PIN_INVALID")
	assert.ErrorIs(t, err, bank.ErrInvalidCredentials)
	assert.ErrorIs(t, err, bank.ErrAuthenticationFailed)
	assert.NotContains(t, err.Error(), "0000")

	_, err = c.ListAccounts(context.Background())
	assert.ErrorIs(t, err, bank.ErrNotLoggedIn)
}

func TestLogin_UnknownClientNumber(t *testing.T) {
	srv := newServer(t, nil)
	c, err := NewClient(&secrets.Static{
		Cred: bank.Credential{Identifier: "999", Secret: tangerinetest.PIN},
	}, WithEndpoints(serverEndpoints(srv)))
	require.NoError(t, err)

	err = c.Start(context.Background())

	var authErr *bank.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "client_number", authErr.Step)
	assert.Empty(t, srv.RequestsTo("/web/rest/v1/customers/my/security/challenge-question"))
}

func TestLogin_MissingSecrets(t *testing.T) {
	srv := newServer(t, nil)
	c, err := NewClient(&secrets.Static{}, WithEndpoints(serverEndpoints(srv)))
	require.NoError(t, err)

	err = c.Start(context.Background())

	assert.ErrorIs(t, err, secrets.ErrNoCredential)
	assert.False(t, c.login.Active())
}

func TestLogin_MissingToken(t *testing.T) {
	srv := newServer(t, func(c *tangerinetest.Config) { c.OmitToken = true })
	c := newTestClient(t, srv)

	err := c.Start(context.Background())

	var authErr *bank.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "token", authErr.Step)
	assert.ErrorIs(t, err, bank.ErrMissingToken)
	assert.False(t, c.login.Active())

	before := len(srv.Requests())

	_, err = c.ListAccounts(context.Background())
	assert.ErrorIs(t, err, bank.ErrNotLoggedIn)

	_, err = c.MoveMoney(context.Background(), TransferRequest{AccountID: tangerinetest.ChequingNumber})
	assert.ErrorIs(t, err, bank.ErrNotLoggedIn)

	assert.Len(t, srv.Requests(), before, "nothing is sent without a session")
}

func TestLogin_ChallengeEndpointRejected(t *testing.T) {
	srv := newServer(t, func(c *tangerinetest.Config) {
		c.StatusOverrides = map[string]string{pathChallenge: "SYSTEM_ERROR"}
	})
	c := newTestClient(t, srv)

	err := c.Start(context.Background())

	var authErr *bank.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "challenge", authErr.Step)
	var apiErr *APIResponseError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "SYSTEM_ERROR", apiErr.StatusCode)
}

func TestLogin_LoginPageHTTPError(t *testing.T) {
	srv := newServer(t, func(c *tangerinetest.Config) {
		c.HTTPStatusOverrides = map[string]int{pathLoginPage: http.StatusServiceUnavailable}
	})
	c := newTestClient(t, srv)

	err := c.Start(context.Background())

	var httpErr *bank.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	assert.False(t, c.login.Active())
}

func TestEnd_Twice(t *testing.T) {
	srv := newServer(t, nil)
	c := newTestClient(t, srv)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	require.NoError(t, c.End(ctx))
	require.NoError(t, c.End(ctx))

	assert.Equal(t, 1, srv.Logouts())
	assert.False(t, c.login.Active())
	_, err := c.Me(ctx)
	assert.ErrorIs(t, err, bank.ErrNotLoggedIn)
}

func TestEnd_WithoutStart(t *testing.T) {
	srv := newServer(t, nil)
	c := newTestClient(t, srv)

	require.NoError(t, c.End(context.Background()))

	assert.Empty(t, srv.Requests())
}

func TestEnd_LogoutFailureStillDropsSession(t *testing.T) {
	srv := newServer(t, nil)
	c := newTestClient(t, srv)
	require.NoError(t, c.Start(context.Background()))

	srv.Close()
	err := c.End(context.Background())

	assert.ErrorContains(t, err, "logout")
	assert.False(t, c.login.Active())
	_, ok := c.transport.Cookie(srv.Secure.URL, TokenCookie)
	assert.False(t, ok)
}

func TestStart_Reentrant(t *testing.T) {
	srv := newServer(t, nil)
	c := newTestClient(t, srv)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	require.NoError(t, c.Start(ctx))

	assert.Equal(t, 1, srv.Logouts(), "previous session is logged out first")
	assert.True(t, c.login.Active())
	token, err := c.login.Token()
	require.NoError(t, err)
	assert.Equal(t, "token-2", token)
}

func TestStart_ResetsSessionID(t *testing.T) {
	srv := newServer(t, nil)
	s, err := NewSession(nil, "")
	require.NoError(t, err)
	c := newTestClient(t, srv, WithTransport(s))

	first := s.ID
	require.NoError(t, c.Start(context.Background()))

	assert.NotEqual(t, first, s.ID)
}

type cookieAuthenticator struct {
	baseURL string
	err     error
}

func (a *cookieAuthenticator) Authenticate(ctx context.Context, tr Transport) error {
	if a.err != nil {
		return a.err
	}
	return tr.SetCookies(a.baseURL, []*http.Cookie{{Name: TokenCookie, Value: "token-1", Path: "/"}})
}

func TestStart_CustomAuthenticator(t *testing.T) {
	srv := newServer(t, nil)
	c, err := NewClient(nil,
		WithEndpoints(serverEndpoints(srv)),
		WithAuthenticator(&cookieAuthenticator{baseURL: srv.Secure.URL}),
	)
	require.NoError(t, err)

	require.NoError(t, c.Start(context.Background()))

	token, err := c.login.Token()
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)
	assert.Empty(t, srv.Requests(), "no form login when an authenticator is given")
}

func TestStart_AuthenticatorFailure(t *testing.T) {
	srv := newServer(t, nil)
	boom := errors.New("browser crashed")
	c, err := NewClient(nil,
		WithEndpoints(serverEndpoints(srv)),
		WithAuthenticator(&cookieAuthenticator{err: boom}),
	)
	require.NoError(t, err)

	err = c.Start(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.False(t, c.login.Active())
}

func TestNewClient_RequiresSecrets(t *testing.T) {
	_, err := NewClient(nil)

	assert.Error(t, err)
}

func TestWithSession(t *testing.T) {
	srv := newServer(t, nil)
	c := newTestClient(t, srv)

	var accounts []Account
	err := c.WithSession(context.Background(), func(ctx context.Context) error {
		var err error
		accounts, err = c.ListAccounts(ctx)
		return err
	})

	require.NoError(t, err)
	assert.Len(t, accounts, 4)
	assert.Equal(t, 1, srv.Logouts())
	assert.False(t, c.login.Active())
}

func TestWithSession_BodyErrorStillLogsOut(t *testing.T) {
	srv := newServer(t, nil)
	c := newTestClient(t, srv)
	boom := errors.New("boom")

	err := c.WithSession(context.Background(), func(ctx context.Context) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, srv.Logouts())
}
