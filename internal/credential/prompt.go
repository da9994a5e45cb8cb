package credential

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// SecretPrompter obtains a secret from an operator.
type SecretPrompter interface {
	PromptSecret(ctx context.Context, message string) (string, error)
}

// TerminalPrompter reads a secret from In without echo when In is a terminal.
// When In is not a terminal (piped input) it reads one line.
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer

	reader *bufio.Reader
}

// NewTerminalPrompter returns a prompter on stdin that writes prompts to stderr.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stderr}
}

// PromptSecret implements SecretPrompter. It blocks until a line is entered.
func (p *TerminalPrompter) PromptSecret(ctx context.Context, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	_, _ = fmt.Fprint(p.Out, message)

	fd := int(p.In.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(p.Out)
		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("%w: input closed", ErrNoCredential)
		}
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// NonInteractivePrompter never prompts. Use it where no operator is present,
// e.g. servers and CI, so missing or rejected keys fail fast.
type NonInteractivePrompter struct{}

// PromptSecret implements SecretPrompter.
func (NonInteractivePrompter) PromptSecret(_ context.Context, _ string) (string, error) {
	return "", fmt.Errorf("%w: interactive prompt disabled", ErrNoCredential)
}
