package tangerine

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/grez-lucas/bank-client/internal/bank"
)

// LoginErrorInfo is what the login pages say when they reject a step.
type LoginErrorInfo struct {
	Code    string
	Message string
}

func (e *LoginErrorInfo) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("(Code: %s) %s", e.Code, e.Message)
}

// DetectLoginError inspects a login page and returns the rejection it shows,
// if any. Pages that cannot be parsed as HTML are treated as clean.
func DetectLoginError(html string) *LoginErrorInfo {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	if doc.Find(SelectorSessionExpired).Length() > 0 {
		return &LoginErrorInfo{Code: "SESSION_TIMEOUT", Message: "session timed out"}
	}

	banner := doc.Find(SelectorLoginError)
	if banner.Length() == 0 {
		return nil
	}

	code := strings.TrimSpace(doc.Find(SelectorLoginErrorCode).AttrOr("data-error-code", ""))
	msg := strings.TrimSpace(doc.Find(SelectorLoginErrorMessage).Text())
	if msg == "" {
		msg = strings.TrimSpace(banner.Text())
	}

	// An empty banner is part of the normal page template.
	if code == "" && msg == "" {
		return nil
	}

	return &LoginErrorInfo{Code: code, Message: msg}
}

// loginStepError turns a rejected login page into an *bank.AuthError.
func loginStepError(step string, info *LoginErrorInfo) error {
	cause := bank.ErrInvalidCredentials
	if info.Code == "SESSION_TIMEOUT" {
		cause = bank.ErrSessionExpired
	}
	return &bank.AuthError{
		BankCode: bank.BankTangerine,
		Step:     step,
		Cause:    cause,
		Details:  info.Error(),
	}
}
