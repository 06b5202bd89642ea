package tangerine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grez-lucas/bank-client/internal/bank"
	"github.com/grez-lucas/bank-client/internal/bank/tangerine/tangerinetest"
	"github.com/grez-lucas/bank-client/internal/secrets"
)

func newServer(t *testing.T, configure func(*tangerinetest.Config)) *tangerinetest.Server {
	t.Helper()

	cfg := tangerinetest.DefaultConfig()
	if configure != nil {
		configure(&cfg)
	}
	srv := tangerinetest.New(cfg)
	t.Cleanup(srv.Close)
	return srv
}

func serverEndpoints(srv *tangerinetest.Server) Endpoints {
	return Endpoints{
		SecureBaseURL:   srv.Secure.URL,
		DownloadBaseURL: srv.Download.URL,
		Origin:          srv.Secure.URL,
		Referer:         srv.Secure.URL + "/app/",
	}
}

func testSecrets() *secrets.Static {
	return &secrets.Static{
		Cred:    bank.Credential{Identifier: tangerinetest.Identifier, Secret: tangerinetest.PIN},
		Answers: map[string]string{tangerinetest.Question: tangerinetest.Answer},
	}
}

func newTestClient(t *testing.T, srv *tangerinetest.Server, opts ...Option) *Client {
	t.Helper()

	c, err := NewClient(testSecrets(), append([]Option{WithEndpoints(serverEndpoints(srv))}, opts...)...)
	require.NoError(t, err)
	return c
}

// loggedInClient returns a started client that is logged out on cleanup.
func loggedInClient(t *testing.T, srv *tangerinetest.Server, opts ...Option) *Client {
	t.Helper()

	c := newTestClient(t, srv, opts...)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() { _ = c.End(context.Background()) })
	return c
}

func paths(reqs []tangerinetest.Request) []string {
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.Method + " " + r.Path
		if cmd := r.Query.Get("command"); cmd != "" {
			out[i] += "?command=" + cmd
		}
	}
	return out
}
