package tangerine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grez-lucas/bank-client/internal/bank"
	"github.com/grez-lucas/bank-client/internal/bank/testutil"
)

func TestDecodeEnvelope_Payload(t *testing.T) {
	body := testutil.LoadFixtureBytes(t, string(bank.BankTangerine), "accounts-success.json")

	raw, err := DecodeEnvelope(body, "accounts", true)

	require.NoError(t, err)
	var accounts []Account
	require.NoError(t, json.Unmarshal(raw, &accounts))
	require.Len(t, accounts, 2)
	assert.Equal(t, AccountTypeChequing, accounts[0].Type)
}

func TestDecodeEnvelope_WholeBody(t *testing.T) {
	body := testutil.LoadFixtureBytes(t, string(bank.BankTangerine), "accounts-success.json")

	raw, err := DecodeEnvelope(body, "", true)

	require.NoError(t, err)
	assert.JSONEq(t, string(body), string(raw))
}

func TestDecodeEnvelope_NonSuccess(t *testing.T) {
	body := testutil.LoadFixtureBytes(t, string(bank.BankTangerine), "accounts-error.json")

	_, err := DecodeEnvelope(body, "accounts", true)

	var apiErr *APIResponseError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "SESSION_EXPIRED", apiErr.StatusCode)
	assert.Equal(t, "Your session has expired.", apiErr.Message)
	assert.Equal(t, body, apiErr.Raw)
	assert.Contains(t, apiErr.Error(), "SESSION_EXPIRED")
}

func TestDecodeEnvelope_NonSuccessNotEnforced(t *testing.T) {
	body := testutil.LoadFixtureBytes(t, string(bank.BankTangerine), "accounts-error.json")

	raw, err := DecodeEnvelope(body, "", false)
	require.NoError(t, err)
	assert.JSONEq(t, string(body), string(raw))

	_, err = DecodeEnvelope(body, "accounts", false)
	assert.ErrorIs(t, err, bank.ErrParsingFailed)
}

func TestDecodeEnvelope_NoStatusKey(t *testing.T) {
	body := testutil.LoadFixtureBytes(t, string(bank.BankTangerine), "download-token.json")

	raw, err := DecodeEnvelope(body, "token", false)
	require.NoError(t, err)
	assert.Equal(t, `"dl-token-abc"`, string(raw))

	// A missing status is not SUCCESS.
	_, err = DecodeEnvelope(body, "token", true)
	var apiErr *APIResponseError
	require.ErrorAs(t, err, &apiErr)
	assert.Empty(t, apiErr.StatusCode)
}

func TestDecodeEnvelope_MissingKey(t *testing.T) {
	body := testutil.LoadFixtureBytes(t, string(bank.BankTangerine), "status-only.json")

	_, err := DecodeEnvelope(body, "accounts", true)

	assert.ErrorIs(t, err, bank.ErrParsingFailed)
	assert.ErrorContains(t, err, `"accounts"`)
}

func TestDecodeEnvelope_Malformed(t *testing.T) {
	for _, body := range []string{"", "not json", "[1,2]", "null", `"SUCCESS"`} {
		_, err := DecodeEnvelope([]byte(body), "", false)
		assert.ErrorIs(t, err, bank.ErrParsingFailed, "body %q", body)
	}
}

func TestDecodeAs_WrongShape(t *testing.T) {
	body := []byte(`{"response_status":{"status_code":"SUCCESS"},"accounts":{"not":"a list"}}`)

	_, err := decodeAs[[]Account](body, payload("accounts"))

	assert.ErrorIs(t, err, bank.ErrParsingFailed)
}

func TestEnvelope_StatusCode(t *testing.T) {
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(`{"response_status":{"status_code":"SUCCESS"}}`), &env))
	assert.Equal(t, StatusSuccess, env.StatusCode())

	assert.Empty(t, Envelope{}.StatusCode())
}
