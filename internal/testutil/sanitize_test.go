package testutil

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeHAR_LoginForms(t *testing.T) {
	har := &HARLog{Entries: []HAREntry{
		{
			Request: HARRequest{
				Method: "POST",
				URL:    "https://secure.tangerine.ca/web/Tangerine.html",
				Body:   "command=PersonalCIF&ACN=123456789",
			},
		},
		{
			Request: HARRequest{
				Method: "POST",
				URL:    "https://secure.tangerine.ca/web/Tangerine.html",
				Body:   "command=validatePINCommand&PIN=1234&BUTTON=Go",
			},
		},
		{
			Request: HARRequest{
				Method: "POST",
				URL:    "https://secure.tangerine.ca/web/Tangerine.html",
				Body:   "command=verifyChallengeQuestions&Answer=Rex",
			},
		},
	}}

	out := SanitizeHAR(har)

	acn, err := url.ParseQuery(out.Entries[0].Request.Body)
	require.NoError(t, err)
	assert.Equal(t, redacted, acn.Get("ACN"))
	assert.Equal(t, "PersonalCIF", acn.Get("command"))

	pin, err := url.ParseQuery(out.Entries[1].Request.Body)
	require.NoError(t, err)
	assert.Equal(t, redacted, pin.Get("PIN"))
	assert.Equal(t, "Go", pin.Get("BUTTON"))

	answer, err := url.ParseQuery(out.Entries[2].Request.Body)
	require.NoError(t, err)
	assert.Equal(t, redacted, answer.Get("Answer"))

	// The input is left alone.
	assert.Contains(t, har.Entries[1].Request.Body, "PIN=1234")
}

func TestSanitizeHAR_Headers(t *testing.T) {
	har := &HARLog{Entries: []HAREntry{{
		Request: HARRequest{
			Method: "POST",
			URL:    "https://secure.tangerine.ca/web/rest/v1/accounts/x/transactions/movemoney",
			Headers: []HARHeader{
				{Name: "x-transaction-token", Value: "tok"},
				{Name: "Cookie", Value: "JSESSIONID=abc; TRANSACTION_TOKEN=tok"},
				{Name: "x-web-flavour", Value: "fbe"},
			},
		},
		Response: HARResponse{
			Status: 200,
			Headers: []HARHeader{
				{Name: "Set-Cookie", Value: "TRANSACTION_TOKEN=tok2; Path=/; HttpOnly"},
			},
		},
	}}}

	out := SanitizeHAR(har)
	req := out.Entries[0].Request

	assert.Equal(t, redacted, req.Headers[0].Value)
	assert.Equal(t, "JSESSIONID=[REDACTED]; TRANSACTION_TOKEN=[REDACTED]", req.Headers[1].Value)
	assert.Equal(t, "fbe", req.Headers[2].Value)
	assert.Equal(t, "TRANSACTION_TOKEN=[REDACTED]; Path=/; HttpOnly", out.Entries[0].Response.Headers[0].Value)
}

func TestSanitizeHAR_DownloadURL(t *testing.T) {
	har := &HARLog{Entries: []HAREntry{{
		Request: HARRequest{
			Method: "GET",
			URL:    "https://ofx.tangerine.ca/Chequing.QFX?acctNum=4001234567&acctType=SAVINGS&userDefined=dl-token",
		},
	}}}

	out := SanitizeHAR(har)
	u, err := url.Parse(out.Entries[0].Request.URL)
	require.NoError(t, err)

	assert.Equal(t, redacted, u.Query().Get("acctNum"))
	assert.Equal(t, redacted, u.Query().Get("userDefined"))
	assert.Equal(t, "SAVINGS", u.Query().Get("acctType"))
}

func TestSanitizeHAR_JSONBodies(t *testing.T) {
	har := &HARLog{Entries: []HAREntry{{
		Response: HARResponse{
			Status: 200,
			Content: HARContent{
				MimeType: "application/json",
				Text:     `{"token": "dl-token-abc", "customer": {"client_number": "123", "email": "a@b.c", "pin": 1234, "first_name": "Jane"}}`,
			},
		},
	}}}

	out := SanitizeHAR(har).Entries[0].Response.Content.Text

	assert.NotContains(t, out, "dl-token-abc")
	assert.NotContains(t, out, "a@b.c")
	assert.NotContains(t, out, "1234")
	assert.Contains(t, out, `"client_number": "[REDACTED]"`)
	assert.Contains(t, out, `"first_name": "Jane"`)
}

func TestSanitizeOFX(t *testing.T) {
	doc := "<OFX>\n<BANKACCTFROM><BANKID>0614<ACCTID>4001234567<ACCTTYPE>SAVINGS</BANKACCTFROM>\n" +
		"<STMTTRN><TRNAMT>-12.50<NAME>COFFEE SHOP<MEMO>card 1234</STMTTRN>\n</OFX>"

	out := SanitizeOFX(doc)

	assert.Contains(t, out, "<ACCTID>[REDACTED]<ACCTTYPE>")
	assert.Contains(t, out, "<NAME>[REDACTED]<MEMO>")
	assert.Contains(t, out, "<MEMO>[REDACTED]</STMTTRN>")
	assert.Contains(t, out, "<BANKID>0614")
	assert.Contains(t, out, "<TRNAMT>-12.50")
}

func TestSanitizeHAR_StatementBody(t *testing.T) {
	har := &HARLog{Entries: []HAREntry{{
		Response: HARResponse{Status: 200, Content: HARContent{
			MimeType: "application/vnd.intu.qfx",
			Text:     "OFXHEADER:100\n<OFX><ACCTID>4001234567</OFX>",
		}},
	}}}

	out := SanitizeHAR(har).Entries[0].Response.Content.Text

	assert.Equal(t, "OFXHEADER:100\n<OFX><ACCTID>[REDACTED]</OFX>", out)
}
