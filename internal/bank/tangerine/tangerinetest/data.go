package tangerinetest

// Credentials of the account DefaultConfig serves.
const (
	Identifier    = "123456789"
	PIN           = "1234"
	Question      = "What was the name of your first pet?"
	Answer        = "Rex"
	DownloadToken = "dl-token-abc"
)

// Account numbers as the API reports them.
const (
	ChequingNumber   = "CHQ-HASH-1"
	SavingsNumber    = "SAV-HASH-1"
	CreditCardNumber = "CC-HASH-1"
	RSPNumber        = "RSP-HASH-1"
)

// Statement is the QFX document the download host returns.
const Statement = `OFXHEADER:100
DATA:OFXSGML
VERSION:102

<OFX>
<BANKMSGSRSV1><STMTTRNRS><STMTRS>
<CURDEF>CAD
<BANKACCTFROM><BANKID>0614<ACCTID>4001234567<ACCTTYPE>SAVINGS</BANKACCTFROM>
<BANKTRANLIST>
<STMTTRN><TRNTYPE>DEBIT<DTPOSTED>20230105<TRNAMT>-12.50<FITID>1001<NAME>COFFEE SHOP</STMTTRN>
</BANKTRANLIST>
</STMTRS></STMTTRNRS></BANKMSGSRSV1>
</OFX>
`

// DefaultConfig serves one customer with a chequing, savings, credit card
// and RSP account, and no security challenge.
func DefaultConfig() Config {
	return Config{
		Identifier:    Identifier,
		PIN:           PIN,
		DownloadToken: DownloadToken,
		Statement:     Statement,
		Customer: map[string]any{
			"client_number": Identifier,
			"first_name":    "Jane",
			"last_name":     "Doe",
			"email":         "jane@example.com",
		},
		Accounts: []map[string]any{
			{
				"number":          ChequingNumber,
				"type":            "CHEQUING",
				"display_name":    "4001234567",
				"nickname":        "Chequing",
				"currency_type":   "CAD",
				"account_balance": 1234.56,
			},
			{
				"number":          SavingsNumber,
				"type":            "SAVINGS",
				"display_name":    "3001234567",
				"nickname":        "Savings",
				"currency_type":   "CAD",
				"account_balance": 5000,
			},
			{
				"number":          CreditCardNumber,
				"type":            "CREDIT_CARD",
				"currency_type":   "CAD",
				"account_balance": -250.1,
			},
			{
				"number":          RSPNumber,
				"type":            "RSP",
				"display_name":    "7001234567",
				"nickname":        "Retirement",
				"account_balance": 100,
			},
		},
		AccountDetails: map[string]any{
			ChequingNumber: map[string]any{
				"number":            ChequingNumber,
				"display_name":      "4001234567",
				"account_nick_name": "Chequing",
				"account_balance":   1234.56,
			},
			CreditCardNumber: map[string]any{
				"number":            CreditCardNumber,
				"display_name":      "5123XXXXXXXX1234",
				"account_nick_name": "Mastercard",
				"account_balance":   -250.1,
			},
		},
		Transactions: []map[string]any{
			{
				"id":               1001,
				"account_id":       ChequingNumber,
				"transaction_date": "2023-01-05T00:00:00",
				"posted_date":      "2023-01-05T00:00:00",
				"description":      "COFFEE SHOP",
				"amount":           -12.5,
				"status":           "POSTED",
			},
			{
				"id":               1002,
				"account_id":       ChequingNumber,
				"transaction_date": "2023-01-15T00:00:00",
				"description":      "PAYROLL",
				"amount":           2500,
				"status":           "POSTED",
			},
		},
		Pending: []map[string]any{
			{
				"account_number":   ChequingNumber,
				"transaction_date": "2023-01-30T00:00:00",
				"description":      "GROCERY STORE",
				"amount":           -45.99,
				"status":           "PENDING",
			},
		},
		Recipients: []map[string]any{
			{"sequence_number": "1", "name": "John Smith", "email": "john@example.com"},
		},
		MoveMoneyAccounts: []map[string]any{
			{"number": ChequingNumber, "description": "Chequing"},
			{"number": SavingsNumber, "description": "Savings"},
		},
	}
}
