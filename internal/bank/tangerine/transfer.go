package tangerine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const EMTTypeInterac = "INTERAC_EMT"

// TransferRequest moves money between two of the customer's own accounts.
type TransferRequest struct {
	// AccountID is the account the request is filed under, usually the source.
	AccountID    string
	FromAccount  string
	ToAccount    string
	Amount       decimal.Decimal
	Currency     string
	When         string
	ValidateOnly bool
}

// EmailTransferRequest sends an Interac e-Transfer to a registered recipient.
type EmailTransferRequest struct {
	SourceAccount           string
	RecipientSequenceNumber string
	Amount                  decimal.Decimal
	When                    string
	ScheduledDate           time.Time
	Message                 string
	// Type defaults to EMTTypeInterac.
	Type         string
	ValidateOnly bool
}

// TransferResult is the full response envelope of an accepted transfer.
type TransferResult struct {
	StatusCode string
	Envelope   Envelope
}

type moveMoneyBody struct {
	Transfers    moveMoneyTransfer `json:"transfers"`
	ValidateOnly bool              `json:"validate_only"`
}

type moveMoneyTransfer struct {
	When        string      `json:"when"`
	Amount      json.Number `json:"amount"`
	ToAccount   string      `json:"to_account"`
	FromAccount string      `json:"from_account"`
	Currency    string      `json:"currency"`
}

type emtBody struct {
	ValidateOnly bool   `json:"validate_only"`
	EMT          emtDoc `json:"emt"`
}

type emtDoc struct {
	Type                    string      `json:"emt_type"`
	Amount                  json.Number `json:"amount"`
	RecipientSequenceNumber string      `json:"recipient_sequence_number"`
	Message                 string      `json:"message"`
	AcceptedTerms           bool        `json:"accepted_terms_and_conditions"`
	When                    string      `json:"when"`
	ScheduledDate           string      `json:"scheduled_date"`
}

// MoveMoney submits an internal transfer.
func (c *Client) MoveMoney(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	body := moveMoneyBody{
		Transfers: moveMoneyTransfer{
			When:        req.When,
			Amount:      json.Number(req.Amount.String()),
			ToAccount:   req.ToAccount,
			FromAccount: req.FromAccount,
			Currency:    req.Currency,
		},
		ValidateOnly: req.ValidateOnly,
	}

	env, err := postJSON[Envelope](ctx, c, fmt.Sprintf(pathMoveMoney, url.PathEscape(req.AccountID)), body, payload(""))
	if err != nil {
		return nil, fmt.Errorf("move money: %w", err)
	}

	c.logger.Info("transfer submitted",
		zap.String("from_account", req.FromAccount),
		zap.String("to_account", req.ToAccount),
		zap.String("amount", req.Amount.String()),
		zap.String("currency", req.Currency),
		zap.Bool("validate_only", req.ValidateOnly),
	)
	return &TransferResult{StatusCode: env.StatusCode(), Envelope: env}, nil
}

// EmailMoney submits an Interac e-Transfer.
func (c *Client) EmailMoney(ctx context.Context, req EmailTransferRequest) (*TransferResult, error) {
	emtType := req.Type
	if emtType == "" {
		emtType = EMTTypeInterac
	}

	body := emtBody{
		ValidateOnly: req.ValidateOnly,
		EMT: emtDoc{
			Type:                    emtType,
			Amount:                  json.Number(req.Amount.String()),
			RecipientSequenceNumber: req.RecipientSequenceNumber,
			Message:                 req.Message,
			AcceptedTerms:           true,
			When:                    req.When,
			ScheduledDate:           req.ScheduledDate.Format(dateLayout),
		},
	}

	env, err := postJSON[Envelope](ctx, c, fmt.Sprintf(pathEmailMoney, url.PathEscape(req.SourceAccount)), body, payload(""))
	if err != nil {
		return nil, fmt.Errorf("email money: %w", err)
	}

	c.logger.Info("e-transfer submitted",
		zap.String("source_account", req.SourceAccount),
		zap.String("recipient", req.RecipientSequenceNumber),
		zap.String("amount", req.Amount.String()),
		zap.Bool("validate_only", req.ValidateOnly),
	)
	return &TransferResult{StatusCode: env.StatusCode(), Envelope: env}, nil
}
