package tangerine

import (
	"encoding/json"
	"fmt"

	"github.com/grez-lucas/bank-client/internal/bank"
)

const keyResponseStatus = "response_status"

// Envelope is the JSON object every REST response is wrapped in.
type Envelope map[string]json.RawMessage

type responseStatus struct {
	StatusCode string `json:"status_code"`
	Message    string `json:"message,omitempty"`
}

// StatusCode returns response_status.status_code, or "" when absent.
func (e Envelope) StatusCode() string {
	return e.status().StatusCode
}

func (e Envelope) status() responseStatus {
	var rs responseStatus
	if raw, ok := e[keyResponseStatus]; ok {
		_ = json.Unmarshal(raw, &rs)
	}
	return rs
}

// APIResponseError is returned when an envelope carries a status other than
// SUCCESS. Raw holds the whole response body.
type APIResponseError struct {
	StatusCode string
	Message    string
	Envelope   Envelope
	Raw        []byte
}

func (e *APIResponseError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api response status %q: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api response status %q", e.StatusCode)
}

// responseSpec says how one operation unwraps its envelope.
type responseSpec struct {
	key         string
	checkStatus bool
}

func payload(key string) responseSpec {
	return responseSpec{key: key, checkStatus: true}
}

// DecodeEnvelope validates body and returns the value under payloadKey, or
// the whole body when payloadKey is empty. With enforceStatus a status other
// than SUCCESS yields an *APIResponseError.
func DecodeEnvelope(body []byte, payloadKey string, enforceStatus bool) (json.RawMessage, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", bank.ErrParsingFailed, err)
	}
	if env == nil {
		return nil, fmt.Errorf("%w: envelope is null", bank.ErrParsingFailed)
	}

	if enforceStatus {
		if rs := env.status(); rs.StatusCode != StatusSuccess {
			return nil, &APIResponseError{
				StatusCode: rs.StatusCode,
				Message:    rs.Message,
				Envelope:   env,
				Raw:        body,
			}
		}
	}

	if payloadKey == "" {
		return json.RawMessage(body), nil
	}

	raw, ok := env[payloadKey]
	if !ok {
		return nil, fmt.Errorf("%w: response has no %q", bank.ErrParsingFailed, payloadKey)
	}
	return raw, nil
}

func decodeAs[T any](body []byte, spec responseSpec) (T, error) {
	var out T

	raw, err := DecodeEnvelope(body, spec.key, spec.checkStatus)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: decode %q: %v", bank.ErrParsingFailed, spec.key, err)
	}
	return out, nil
}
