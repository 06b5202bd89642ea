// Package tangerinetest runs a fake Tangerine on two httptest servers: the
// secure host (login pages and REST API) and the statement download host.
package tangerinetest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

const (
	tokenCookie   = "TRANSACTION_TOKEN"
	tokenHeader   = "x-transaction-token"
	statusSuccess = "SUCCESS"
)

// Config is the account the fake bank serves. Payload fields are marshalled
// as-is under their envelope key.
type Config struct {
	Identifier string
	PIN        string
	// Question triggers the security challenge when non-empty.
	Question string
	Answer   string

	// OmitToken completes the login without setting the token cookie.
	OmitToken bool
	// RotateToken issues a new token after every accepted POST.
	RotateToken bool
	// TokenPath scopes the token cookie. Empty means "/".
	TokenPath string

	DownloadToken string
	Statement     string

	Customer          any
	Accounts          any
	AccountDetails    map[string]any
	Transactions      any
	Pending           any
	Recipients        any
	MoveMoneyAccounts any

	// StatusOverrides answers a REST path (relative to /web/rest) with the
	// given envelope status instead of SUCCESS.
	StatusOverrides map[string]string
	// HTTPStatusOverrides answers a request path with a bare HTTP status.
	HTTPStatusOverrides map[string]int
}

// Request is a request as the fake bank saw it.
type Request struct {
	Host   string // "secure" or "download"
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   string
}

// Server is the running fake bank.
type Server struct {
	Secure   *httptest.Server
	Download *httptest.Server

	mu        sync.Mutex
	cfg       Config
	requests  []Request
	token     string
	tokenSeq  int
	logouts   int
	acnOK     bool
	answerOK  bool
	postCount int
}

// New starts both hosts. Call Close when done.
func New(cfg Config) *Server {
	s := &Server{cfg: cfg}

	secure := chi.NewRouter()
	secure.Use(s.record("secure"), s.overrideStatus)
	secure.Get("/web/InitialTangerine.html", s.initialPage)
	secure.Get("/web/Tangerine.html", s.loginPage)
	secure.Post("/web/Tangerine.html", s.loginForm)
	secure.Route("/web/rest", func(r chi.Router) {
		r.Get("/v1/customers/my/security/challenge-question", s.challenge)
		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.Get("/v1/customers/my", s.serve("customer", func(c Config) any { return c.Customer }))
			r.Get("/pfm/v1/accounts", s.serve("accounts", func(c Config) any { return c.Accounts }))
			r.Get("/v1/accounts/{number}", s.accountSummary)
			r.Get("/pfm/v1/transactions", s.serve("transactions", func(c Config) any { return c.Transactions }))
			r.Get("/v1/customers/my/pending-transactions", s.serve("pending_transactions", func(c Config) any { return c.Pending }))
			r.Get("/v1/customers/my/emt-recipients", s.serve("recipient", func(c Config) any { return c.Recipients }))
			r.Get("/v1/customers/my/accounts", s.serve("accounts", func(c Config) any { return c.MoveMoneyAccounts }))
			r.Get("/v1/customers/my/security/transaction-download-token", s.downloadToken)
			r.Post("/v1/accounts/{number}/transactions/movemoney", s.transfer("transfer"))
			r.Post("/v1/accounts/{number}/transactions/emts", s.transfer("emt"))
		})
	})

	download := chi.NewRouter()
	download.Use(s.record("download"), s.overrideStatus)
	download.Get("/{file}", s.statement)

	s.Secure = httptest.NewServer(secure)
	s.Download = httptest.NewServer(download)
	return s
}

func (s *Server) Close() {
	s.Secure.Close()
	s.Download.Close()
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsTo returns the requests whose path equals path.
func (s *Server) RequestsTo(path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Logouts counts logout page hits.
func (s *Server) Logouts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logouts
}

// Token is the currently valid security token, "" when logged out.
func (s *Server) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Server) record(host string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(strings.NewReader(string(body)))

			s.mu.Lock()
			s.requests = append(s.requests, Request{
				Host:   host,
				Method: r.Method,
				Path:   r.URL.Path,
				Query:  r.URL.Query(),
				Header: r.Header.Clone(),
				Body:   string(body),
			})
			s.mu.Unlock()

			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) overrideStatus(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if code, ok := s.cfg.HTTPStatusOverrides[r.URL.Path]; ok {
			http.Error(w, http.StatusText(code), code)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		token := s.token
		s.mu.Unlock()

		c, err := r.Cookie(tokenCookie)
		if err != nil || token == "" || c.Value != token {
			http.Error(w, `{"error":"not authenticated"}`, http.StatusUnauthorized)
			return
		}
		if r.Method == http.MethodPost && r.Header.Get(tokenHeader) != token {
			http.Error(w, `{"error":"bad transaction token"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- login pages ---

func (s *Server) initialPage(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("command") {
	case "displayLoginRegular":
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "test-jsession", Path: "/"})
		writePage(w, "")
	case "displayLogout":
		s.mu.Lock()
		s.logouts++
		s.token = ""
		s.acnOK, s.answerOK = false, false
		s.mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: tokenCookie, Value: "", Path: s.tokenPath(), MaxAge: -1})
		writePage(w, "")
	default:
		http.Error(w, "unknown command", http.StatusBadRequest)
	}
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("command") {
	case "displayPIN", "PINPADPersonal", "displayAccountSummary":
		writePage(w, "")
	default:
		http.Error(w, "unknown command", http.StatusBadRequest)
	}
}

func (s *Server) loginForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.PostForm.Get("command") {
	case "PersonalCIF":
		if r.PostForm.Get("ACN") != s.cfg.Identifier {
			writeErrorPage(w, "ACN_INVALID", "We don't recognize that client number.")
			return
		}
		s.acnOK = true
		writePage(w, "")
	case "verifyChallengeQuestions":
		if !s.acnOK || !strings.EqualFold(r.PostForm.Get("Answer"), s.cfg.Answer) {
			writeErrorPage(w, "CHALLENGE_FAILED", "That answer doesn't match our records.")
			return
		}
		s.answerOK = true
		writePage(w, "")
	case "validatePINCommand":
		if !s.acnOK || (s.cfg.Question != "" && !s.answerOK) {
			writeErrorPage(w, "OUT_OF_SEQUENCE", "Please start again.")
			return
		}
		if r.PostForm.Get("PIN") != s.cfg.PIN {
			writeErrorPage(w, "PIN_INVALID", "The PIN you entered is incorrect.")
			return
		}
		if !s.cfg.OmitToken {
			s.issueToken(w)
		}
		writePage(w, "")
	default:
		http.Error(w, "unknown command", http.StatusBadRequest)
	}
}

// issueToken must be called with s.mu held.
func (s *Server) issueToken(w http.ResponseWriter) {
	s.tokenSeq++
	s.token = fmt.Sprintf("token-%d", s.tokenSeq)
	http.SetCookie(w, &http.Cookie{Name: tokenCookie, Value: s.token, Path: s.tokenPath()})
}

func (s *Server) tokenPath() string {
	if s.cfg.TokenPath == "" {
		return "/"
	}
	return s.cfg.TokenPath
}

func writePage(w http.ResponseWriter, banner string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<html><body><div id="errorMessage">%s</div><form id="login"></form></body></html>`, banner)
}

func writeErrorPage(w http.ResponseWriter, code, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<html><body><div id="errorMessage" data-error-code="%s"><span class="error-text">%s</span></div></body></html>`, code, msg)
}

// --- REST ---

func (s *Server) challenge(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	acnOK := s.acnOK
	s.mu.Unlock()

	if !acnOK {
		s.writeEnvelope(w, r, "UNAUTHORIZED", nil)
		return
	}
	if s.cfg.Question == "" {
		s.writeEnvelope(w, r, "", map[string]any{"challenge_question": nil})
		return
	}
	s.writeEnvelope(w, r, "", map[string]any{
		"challenge_question": map[string]string{"question": s.cfg.Question},
	})
}

func (s *Server) serve(key string, value func(Config) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeEnvelope(w, r, "", map[string]any{key: value(s.cfg)})
	}
}

func (s *Server) accountSummary(w http.ResponseWriter, r *http.Request) {
	details, ok := s.cfg.AccountDetails[chi.URLParam(r, "number")]
	if !ok {
		s.writeEnvelope(w, r, "ACCOUNT_NOT_FOUND", nil)
		return
	}
	s.writeEnvelope(w, r, "", map[string]any{"account_summary": details})
}

func (s *Server) downloadToken(w http.ResponseWriter, r *http.Request) {
	// This endpoint has no response_status.
	writeJSON(w, map[string]any{"token": s.cfg.DownloadToken})
}

func (s *Server) transfer(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		s.postCount++
		ref := fmt.Sprintf("%s-%d", kind, s.postCount)
		if s.cfg.RotateToken {
			s.issueToken(w)
		}
		s.mu.Unlock()

		s.writeEnvelope(w, r, "", map[string]any{"confirmation_number": ref})
	}
}

// writeEnvelope answers with status (SUCCESS when empty) unless the path has
// a status override.
func (s *Server) writeEnvelope(w http.ResponseWriter, r *http.Request, status string, payload map[string]any) {
	if status == "" {
		status = statusSuccess
	}
	if override, ok := s.cfg.StatusOverrides[strings.TrimPrefix(r.URL.Path, "/web/rest")]; ok {
		status = override
	}

	env := map[string]any{}
	if status == statusSuccess {
		for k, v := range payload {
			env[k] = v
		}
		env["response_status"] = map[string]string{"status_code": status}
	} else {
		env["response_status"] = map[string]string{"status_code": status, "message": "rejected by test server"}
	}
	writeJSON(w, env)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// --- statement download ---

func (s *Server) statement(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("userDefined") != s.cfg.DownloadToken {
		http.Error(w, "invalid download token", http.StatusForbidden)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.intu.qfx")
	_, _ = io.WriteString(w, s.cfg.Statement)
}
