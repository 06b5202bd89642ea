package tangerine

// CSS selectors for the legacy login pages served from /web/Tangerine.html.
const (
	// Error banner rendered above the form when a step is rejected.
	SelectorLoginError        = "div#errorMessage"
	SelectorLoginErrorCode    = "div#errorMessage[data-error-code]"
	SelectorLoginErrorMessage = "div#errorMessage .error-text"

	// Session timeout page.
	SelectorSessionExpired = "div#sessionTimeout"

	// Client number field of the first login step.
	SelectorIdentifierInput = "input#ACN"
)
