package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactions(t *testing.T) {
	har := &HARLog{Entries: []HAREntry{
		{
			Request: HARRequest{
				Method: "POST",
				URL:    "https://secure.tangerine.ca/web/Tangerine.html",
				Headers: []HARHeader{
					{Name: "x-web-flavour", Value: "fbe"},
					{Name: "x-transaction-token", Value: "tok"},
				},
				Body: "PIN=1234",
			},
			Response: HARResponse{
				Status:  200,
				Headers: []HARHeader{{Name: "Set-Cookie", Value: "TRANSACTION_TOKEN=tok2; Path=/"}},
			},
		},
		{
			Request: HARRequest{Method: "GET", URL: "https://secure.tangerine.ca/web/rest/v1/customers/my"},
			Response: HARResponse{
				Status:  200,
				Content: HARContent{MimeType: "application/json", Text: `{"first_name": "Jane"}`},
			},
		},
		{
			Request: HARRequest{
				Method: "GET",
				URL:    "https://ofx.tangerine.ca/Chequing.QFX?acctType=CHEQUING&userDefined=dl-token",
			},
		},
	}}

	got := Redactions(har, SanitizeHAR(har))

	assert.Equal(t, []Redaction{
		{Entry: 1, Method: "POST", URL: "https://secure.tangerine.ca/web/Tangerine.html", Field: "request header x-transaction-token"},
		{Entry: 1, Method: "POST", URL: "https://secure.tangerine.ca/web/Tangerine.html", Field: "request body"},
		{Entry: 1, Method: "POST", URL: "https://secure.tangerine.ca/web/Tangerine.html", Field: "response header Set-Cookie"},
		{Entry: 3, Method: "GET", URL: "https://ofx.tangerine.ca/Chequing.QFX", Field: "url query"},
	}, got)
	assert.Equal(t, "#3 GET https://ofx.tangerine.ca/Chequing.QFX: url query", got[3].String())
}

func TestRedactions_Clean(t *testing.T) {
	har := &HARLog{Entries: []HAREntry{{
		Request: HARRequest{Method: "GET", URL: "https://secure.tangerine.ca/web/rest/v1/customers/my"},
	}}}

	assert.Empty(t, Redactions(har, SanitizeHAR(har)))
	assert.Empty(t, Redactions(har, &HARLog{}), "missing entries are not reported")
}
