package tangerine

import (
	"net/url"
	"strings"
)

const (
	DefaultLocale    = "en_CA"
	DefaultUserAgent = "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:57.0) Gecko/20100101 Firefox/57.0"

	// TokenCookie holds the transaction security token after a successful
	// login. Its value goes out as HeaderTransactionToken on every POST.
	TokenCookie            = "TRANSACTION_TOKEN"
	HeaderTransactionToken = "x-transaction-token"
	HeaderWebFlavour       = "x-web-flavour"
	webFlavour             = "fbe"

	StatusSuccess = "SUCCESS"
)

// Endpoints are the hosts the client talks to. The zero value is not usable;
// start from DefaultEndpoints.
type Endpoints struct {
	// SecureBaseURL serves the login pages and the REST API under /web/rest.
	SecureBaseURL string
	// DownloadBaseURL serves statement files.
	DownloadBaseURL string
	Origin          string
	Referer         string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		SecureBaseURL:   "https://secure.tangerine.ca",
		DownloadBaseURL: "https://ofx.tangerine.ca",
		Origin:          "https://www.tangerine.ca",
		Referer:         "https://www.tangerine.ca/app/",
	}
}

func (e Endpoints) apiURL(path string) string {
	return strings.TrimRight(e.SecureBaseURL, "/") + "/web/rest" + path
}

func (e Endpoints) pageURL(path string) string {
	return strings.TrimRight(e.SecureBaseURL, "/") + path
}

// TokenURL is where the security token cookie is looked up. The server may
// scope the cookie to the application path, so the host root is not enough.
func (e Endpoints) TokenURL() string {
	return e.apiURL("/")
}

// LoginPageURL is the entry page of the interactive login.
func (e Endpoints) LoginPageURL(locale string) string {
	if locale == "" {
		locale = DefaultLocale
	}
	query := url.Values{
		"command": {"displayLoginRegular"},
		"device":  {"web"},
		"locale":  {locale},
	}
	return e.pageURL(pathInitialPage) + "?" + query.Encode()
}

// Login and page paths on the secure host.
const (
	pathInitialPage = "/web/InitialTangerine.html"
	pathLoginPage   = "/web/Tangerine.html"
)

// REST paths, relative to /web/rest.
const (
	pathCustomer          = "/v1/customers/my"
	pathAccounts          = "/pfm/v1/accounts"
	pathAccount           = "/v1/accounts/%s"
	pathTransactions      = "/pfm/v1/transactions"
	pathPending           = "/v1/customers/my/pending-transactions"
	pathRecipients        = "/v1/customers/my/emt-recipients"
	pathMoveMoneyAccounts = "/v1/customers/my/accounts"
	pathChallenge         = "/v1/customers/my/security/challenge-question"
	pathDownloadToken     = "/v1/customers/my/security/transaction-download-token"
	pathMoveMoney         = "/v1/accounts/%s/transactions/movemoney"
	pathEmailMoney        = "/v1/accounts/%s/transactions/emts"
)

// Date layouts used on the wire. Transaction periods are whole days at
// midnight UTC; the suffix stays literal because ".000" is a layout element.
const (
	dateLayout           = "2006-01-02"
	transactionDaySuffix = "T00:00:00.000Z"
	statementDateLayout  = "20060102"
)
