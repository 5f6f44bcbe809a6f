package passphrase

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Source resolves a keystore passphrase from an environment variable or by
// prompting on the terminal. The first result, success or failure, is cached.
type Source struct {
	envVar string
	label  string

	lookup   func(string) (string, bool)
	terminal func() bool
	read     func() ([]byte, error)
	prompt   io.Writer

	once  sync.Once
	value string
	err   error
}

// NewSource returns a source that checks envVar before prompting for the
// passphrase of the named key.
func NewSource(envVar, label string) *Source {
	if strings.TrimSpace(label) == "" {
		label = "keystore"
	}
	return &Source{
		envVar:   strings.TrimSpace(envVar),
		label:    strings.TrimSpace(label),
		lookup:   os.LookupEnv,
		terminal: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
		read:     func() ([]byte, error) { return term.ReadPassword(int(os.Stdin.Fd())) },
		prompt:   os.Stderr,
	}
}

// Get returns the passphrase. An environment value is used verbatim;
// whitespace-only passphrases are rejected from either source.
func (s *Source) Get() (string, error) {
	s.once.Do(func() { s.value, s.err = s.resolve() })
	return s.value, s.err
}

func (s *Source) resolve() (string, error) {
	if s.envVar != "" {
		if value, ok := s.lookup(s.envVar); ok {
			if strings.TrimSpace(value) == "" {
				return "", fmt.Errorf("%s is set but empty", s.envVar)
			}
			return value, nil
		}
	}
	if !s.terminal() {
		if s.envVar != "" {
			return "", fmt.Errorf("%s passphrase required; set %s or run interactively", s.label, s.envVar)
		}
		return "", fmt.Errorf("%s passphrase required and no terminal available", s.label)
	}
	fmt.Fprintf(s.prompt, "Enter %s passphrase: ", s.label)
	raw, err := s.read()
	fmt.Fprintln(s.prompt)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return "", errors.New("passphrase cannot be empty")
	}
	return string(raw), nil
}
