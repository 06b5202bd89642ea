// Package bank defines the common structs and logic used throughout bank
// implementations.
package bank

import "context"

// Client is implemented by every bank integration that holds an
// authenticated session.
type Client interface {
	// Start authenticates with the bank and establishes a session
	Start(ctx context.Context) error
	// End logs out and invalidates the session. Calling End on a session
	// that is not active is a no-op.
	End(ctx context.Context) error
}

// SecretProvider supplies login secrets on demand. Implementations range
// from interactive terminal prompts to non-interactive stores.
type SecretProvider interface {
	// Credential returns the primary login credential.
	Credential(ctx context.Context) (Credential, error)
	// SecondFactor answers a challenge issued by the bank during login.
	SecondFactor(ctx context.Context, challenge string) (string, error)
}

type BankCode string

const (
	BankTangerine BankCode = "TANGERINE"
)
