package bank

// Credential is the primary login secret. It is handed out transiently by a
// SecretProvider and must not be stored past the login that requested it.
type Credential struct {
	Identifier string // client number, card number or username
	Secret     string // PIN or password
}

// String keeps the secret out of logs and panics.
func (c Credential) String() string {
	return "Credential{Identifier: " + c.Identifier + ", Secret: [REDACTED]}"
}
