package tangerine

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Me returns the logged-in customer's profile.
func (c *Client) Me(ctx context.Context) (*Customer, error) {
	return getJSON[*Customer](ctx, c, pathCustomer, payload("customer"))
}

func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	return getJSON[[]Account](ctx, c, pathAccounts, payload("accounts"))
}

// GetAccount returns the detail view of the account with the given number.
func (c *Client) GetAccount(ctx context.Context, number string) (*AccountSummary, error) {
	path := fmt.Sprintf(pathAccount, url.PathEscape(number)) + "?billing-cycle-ranges=true"
	return getJSON[*AccountSummary](ctx, c, path, payload("account_summary"))
}

// ListTransactions returns posted transactions of the given accounts between
// from and to, both taken as whole days.
func (c *Client) ListTransactions(ctx context.Context, accountIDs []string, from, to time.Time) ([]Transaction, error) {
	query := url.Values{
		"accountIdentifiers":   {strings.Join(accountIDs, ",")},
		"hideAuthorizedStatus": {"True"},
		"periodFrom":           {from.Format(dateLayout) + transactionDaySuffix},
		"periodTo":             {to.Format(dateLayout) + transactionDaySuffix},
		"skip":                 {"0"},
	}
	return getJSON[[]Transaction](ctx, c, pathTransactions+"?"+query.Encode(), payload("transactions"))
}

func (c *Client) ListPendingTransactions(ctx context.Context) ([]PendingTransaction, error) {
	query := url.Values{"include-mf-transactions": {"true"}}
	return getJSON[[]PendingTransaction](ctx, c, pathPending+"?"+query.Encode(), payload("pending_transactions"))
}

// ListEmailRecipients returns the registered Interac e-Transfer payees.
func (c *Client) ListEmailRecipients(ctx context.Context) ([]Recipient, error) {
	return getJSON[[]Recipient](ctx, c, pathRecipients, payload("recipient"))
}

// ListMoveMoneyAccounts returns the whole envelope listing the accounts that
// can send and receive internal transfers.
func (c *Client) ListMoveMoneyAccounts(ctx context.Context) (Envelope, error) {
	query := url.Values{"actionCode": {"MOVE_MONEY"}}
	return getJSON[Envelope](ctx, c, pathMoveMoneyAccounts+"?"+query.Encode(), payload(""))
}

// downloadToken fetches a one-time statement download token. This endpoint
// does not answer with a regular response_status.
func (c *Client) downloadToken(ctx context.Context) (string, error) {
	return getJSON[string](ctx, c, pathDownloadToken, responseSpec{key: "token"})
}
