package tangerine

import "github.com/shopspring/decimal"

// AccountType is the product type the API reports for an account.
type AccountType string

const (
	AccountTypeChequing   AccountType = "CHEQUING"
	AccountTypeSavings    AccountType = "SAVINGS"
	AccountTypeCreditCard AccountType = "CREDIT_CARD"
)

// Account is one entry of the account list.
type Account struct {
	ID           string          `json:"id,omitempty"`
	Number       string          `json:"number"`
	Type         AccountType     `json:"type"`
	DisplayName  string          `json:"display_name"`
	Nickname     string          `json:"nickname"`
	Description  string          `json:"description,omitempty"`
	CurrencyType string          `json:"currency_type,omitempty"`
	Balance      decimal.Decimal `json:"account_balance"`
}

// AccountSummary is the detail view of a single account. Credit cards only
// expose their display name and nickname here.
type AccountSummary struct {
	Number          string          `json:"number,omitempty"`
	Type            AccountType     `json:"type,omitempty"`
	DisplayName     string          `json:"display_name"`
	AccountNickName string          `json:"account_nick_name"`
	Description     string          `json:"description,omitempty"`
	Balance         decimal.Decimal `json:"account_balance"`
}

type Customer struct {
	ClientNumber string `json:"client_number,omitempty"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email,omitempty"`
}

type Transaction struct {
	ID              int64           `json:"id"`
	AccountID       string          `json:"account_id"`
	TransactionDate string          `json:"transaction_date"`
	PostedDate      string          `json:"posted_date,omitempty"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status,omitempty"`
	Type            string          `json:"type,omitempty"`
}

type PendingTransaction struct {
	AccountNumber   string          `json:"account_number,omitempty"`
	TransactionDate string          `json:"transaction_date"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status,omitempty"`
}

// Recipient is an Interac e-Transfer payee.
type Recipient struct {
	SequenceNumber string `json:"sequence_number"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
}

// Statement is a downloaded QFX document.
type Statement struct {
	Filename string
	Body     []byte
}
