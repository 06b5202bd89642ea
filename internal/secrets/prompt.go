package secrets

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/grez-lucas/bank-client/internal/bank"
)

// Prompt asks for secrets on a terminal. The PIN and answers are read
// without echo when In is a terminal.
type Prompt struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader

	isTerminal   func(fd int) bool
	readPassword func(fd int) ([]byte, error)
}

var _ bank.SecretProvider = (*Prompt)(nil)

// NewPrompt prompts on stdin and stderr.
func NewPrompt() *Prompt {
	return &Prompt{In: os.Stdin, Out: os.Stderr}
}

func (p *Prompt) Credential(ctx context.Context) (bank.Credential, error) {
	id, err := p.ask(ctx, "Client number or card number: ", false)
	if err != nil {
		return bank.Credential{}, err
	}
	pin, err := p.ask(ctx, "PIN: ", true)
	if err != nil {
		return bank.Credential{}, err
	}
	if id == "" || pin == "" {
		return bank.Credential{}, ErrNoCredential
	}
	return bank.Credential{Identifier: id, Secret: pin}, nil
}

func (p *Prompt) SecondFactor(ctx context.Context, challenge string) (string, error) {
	answer, err := p.ask(ctx, challenge+" ", true)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return "", fmt.Errorf("%w: %q", ErrNoAnswer, challenge)
	}
	return answer, nil
}

func (p *Prompt) ask(ctx context.Context, label string, hidden bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := io.WriteString(p.Out, label); err != nil {
		return "", fmt.Errorf("write prompt: %w", err)
	}

	if fd, ok := p.hiddenInput(hidden); ok {
		read := term.ReadPassword
		if p.readPassword != nil {
			read = p.readPassword
		}
		data, err := read(fd)
		_, _ = io.WriteString(p.Out, "\n")
		if err != nil {
			return "", fmt.Errorf("read hidden input: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// hiddenInput reports the terminal to read a hidden answer from. Lines
// already buffered from an earlier answer are read from the buffer instead.
func (p *Prompt) hiddenInput(hidden bool) (int, bool) {
	f, ok := p.In.(*os.File)
	if !ok || !hidden {
		return 0, false
	}
	if p.reader != nil && p.reader.Buffered() > 0 {
		return 0, false
	}
	isTerminal := term.IsTerminal
	if p.isTerminal != nil {
		isTerminal = p.isTerminal
	}
	fd := int(f.Fd())
	return fd, isTerminal(fd)
}
