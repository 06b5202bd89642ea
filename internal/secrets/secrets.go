// Package secrets provides bank.SecretProvider implementations: a static
// store for configuration and tests, a YAML file store and an interactive
// terminal prompt.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/grez-lucas/bank-client/internal/bank"
)

var (
	ErrNoCredential = errors.New("no credential configured")
	ErrNoAnswer     = errors.New("no answer for security question")
)

// Static serves fixed values.
type Static struct {
	Cred bank.Credential
	// Answers maps security questions to answers. Lookup ignores case and
	// surrounding space.
	Answers map[string]string
	// DefaultAnswer is used for questions missing from Answers.
	DefaultAnswer string
}

var _ bank.SecretProvider = (*Static)(nil)

func (s *Static) Credential(ctx context.Context) (bank.Credential, error) {
	if s.Cred.Identifier == "" || s.Cred.Secret == "" {
		return bank.Credential{}, ErrNoCredential
	}
	return s.Cred, nil
}

func (s *Static) SecondFactor(ctx context.Context, challenge string) (string, error) {
	if answer, ok := lookupAnswer(s.Answers, challenge); ok {
		return answer, nil
	}
	if s.DefaultAnswer != "" {
		return s.DefaultAnswer, nil
	}
	return "", fmt.Errorf("%w: %q", ErrNoAnswer, challenge)
}

func lookupAnswer(answers map[string]string, question string) (string, bool) {
	want := normalizeQuestion(question)
	for q, a := range answers {
		if normalizeQuestion(q) == want {
			return a, true
		}
	}
	return "", false
}

func normalizeQuestion(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

// fileSecrets is the on-disk layout of a File store:
//
//	username: "123456789"
//	pin: "1234"
//	challenges:
//	  What was the name of your first pet?: Rex
type fileSecrets struct {
	Username   string            `yaml:"username"`
	PIN        string            `yaml:"pin"`
	Challenges map[string]string `yaml:"challenges"`
}

// File reads secrets from a YAML file on every call, so edits are picked up
// without a restart.
type File struct {
	Path string
}

var _ bank.SecretProvider = (*File)(nil)

func (f *File) load() (*Static, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read secrets file: %w", err)
	}
	var fs fileSecrets
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return nil, fmt.Errorf("parse secrets file %s: %w", f.Path, err)
	}
	return &Static{
		Cred:    bank.Credential{Identifier: fs.Username, Secret: fs.PIN},
		Answers: fs.Challenges,
	}, nil
}

func (f *File) Credential(ctx context.Context) (bank.Credential, error) {
	s, err := f.load()
	if err != nil {
		return bank.Credential{}, err
	}
	return s.Credential(ctx)
}

func (f *File) SecondFactor(ctx context.Context, challenge string) (string, error) {
	s, err := f.load()
	if err != nil {
		return "", err
	}
	return s.SecondFactor(ctx, challenge)
}

// Chain asks each provider in turn and returns the first answer.
type Chain []bank.SecretProvider

var _ bank.SecretProvider = Chain(nil)

func (c Chain) Credential(ctx context.Context) (bank.Credential, error) {
	var errs []error
	for _, p := range c {
		cred, err := p.Credential(ctx)
		if err == nil {
			return cred, nil
		}
		errs = append(errs, err)
	}
	return bank.Credential{}, errors.Join(append([]error{ErrNoCredential}, errs...)...)
}

func (c Chain) SecondFactor(ctx context.Context, challenge string) (string, error) {
	var errs []error
	for _, p := range c {
		answer, err := p.SecondFactor(ctx, challenge)
		if err == nil {
			return answer, nil
		}
		errs = append(errs, err)
	}
	return "", errors.Join(append([]error{ErrNoAnswer}, errs...)...)
}
