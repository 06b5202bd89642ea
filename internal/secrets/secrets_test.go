package secrets

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grez-lucas/bank-client/internal/bank"
)

func TestStatic_Credential(t *testing.T) {
	s := &Static{Cred: bank.Credential{Identifier: "123", Secret: "9999"}}

	cred, err := s.Credential(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "123", cred.Identifier)
	assert.Equal(t, "9999", cred.Secret)
}

func TestStatic_CredentialMissing(t *testing.T) {
	_, err := (&Static{Cred: bank.Credential{Identifier: "123"}}).Credential(context.Background())

	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestStatic_SecondFactor(t *testing.T) {
	s := &Static{Answers: map[string]string{
		"What was the name of your first pet?": "Rex",
	}}

	answer, err := s.SecondFactor(context.Background(), "  what was the name of  your first pet? ")
	require.NoError(t, err)
	assert.Equal(t, "Rex", answer)

	_, err = s.SecondFactor(context.Background(), "Favourite colour?")
	assert.ErrorIs(t, err, ErrNoAnswer)

	s.DefaultAnswer = "blue"
	answer, err = s.SecondFactor(context.Background(), "Favourite colour?")
	require.NoError(t, err)
	assert.Equal(t, "blue", answer)
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
username: "123456789"
pin: "0042"
challenges:
  What was the name of your first pet?: Rex
  City you were born in?: Halifax
`), 0o600))

	f := &File{Path: path}
	ctx := context.Background()

	cred, err := f.Credential(ctx)
	require.NoError(t, err)
	assert.Equal(t, "123456789", cred.Identifier)
	assert.Equal(t, "0042", cred.Secret)

	answer, err := f.SecondFactor(ctx, "city you were born in?")
	require.NoError(t, err)
	assert.Equal(t, "Halifax", answer)

	_, err = f.SecondFactor(ctx, "Mother's maiden name?")
	assert.ErrorIs(t, err, ErrNoAnswer)
}

func TestFile_Errors(t *testing.T) {
	_, err := (&File{Path: filepath.Join(t.TempDir(), "nope.yaml")}).Credential(context.Background())
	assert.ErrorContains(t, err, "read secrets file")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("username: [unterminated"), 0o600))
	_, err = (&File{Path: bad}).Credential(context.Background())
	assert.ErrorContains(t, err, "parse secrets file")
}

func TestChain(t *testing.T) {
	chain := Chain{
		&Static{},
		&Static{
			Cred:    bank.Credential{Identifier: "1", Secret: "2"},
			Answers: map[string]string{"q?": "a"},
		},
	}
	ctx := context.Background()

	cred, err := chain.Credential(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", cred.Identifier)

	answer, err := chain.SecondFactor(ctx, "Q?")
	require.NoError(t, err)
	assert.Equal(t, "a", answer)

	_, err = Chain{&Static{}}.Credential(ctx)
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestPrompt(t *testing.T) {
	var out bytes.Buffer
	p := &Prompt{In: strings.NewReader("123456789\n1234\nRex\n"), Out: &out}
	ctx := context.Background()

	cred, err := p.Credential(ctx)
	require.NoError(t, err)
	assert.Equal(t, bank.Credential{Identifier: "123456789", Secret: "1234"}, cred)

	answer, err := p.SecondFactor(ctx, "What was the name of your first pet?")
	require.NoError(t, err)
	assert.Equal(t, "Rex", answer)

	assert.Contains(t, out.String(), "PIN: ")
	assert.Contains(t, out.String(), "first pet?")
}

func TestPrompt_HiddenAfterBufferedInput(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	_, err = w.WriteString("123456789\n1234\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	var reads int
	p := &Prompt{
		In:         r,
		Out:        &bytes.Buffer{},
		isTerminal: func(int) bool { return true },
		readPassword: func(int) ([]byte, error) {
			reads++
			return []byte("typed"), nil
		},
	}

	cred, err := p.Credential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, bank.Credential{Identifier: "123456789", Secret: "1234"}, cred)
	assert.Zero(t, reads, "buffered PIN is not dropped")

	answer, err := p.SecondFactor(context.Background(), "Pet?")
	require.NoError(t, err)
	assert.Equal(t, "typed", answer, "empty buffer falls back to the terminal")
	assert.Equal(t, 1, reads)
}

func TestPrompt_EOF(t *testing.T) {
	p := &Prompt{In: strings.NewReader("123"), Out: &bytes.Buffer{}}

	_, err := p.Credential(context.Background())

	assert.Error(t, err)
}

func TestPrompt_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&Prompt{In: strings.NewReader("x\n"), Out: &bytes.Buffer{}}).Credential(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}
