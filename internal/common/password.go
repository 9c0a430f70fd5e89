package common

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	PasswordEnv    = "LOGIN_PASSWORD"
	NewPasswordEnv = "LOGIN_NEW_PASSWORD"

	// passed as a flag value to read the password from stdin
	stdinMarker = "-"
)

// PasswordSource resolves passwords for command-line utilities so they need
// not appear in the process list. Several "-" flags read successive lines of
// the same input.
type PasswordSource struct {
	in     *bufio.Reader
	getenv func(string) string
}

func NewPasswordSource(in io.Reader) *PasswordSource {
	return &PasswordSource{in: bufio.NewReader(in), getenv: os.Getenv}
}

// Resolve returns flagValue, a line of input when flagValue is "-", or the
// environment variable envKey when flagValue is empty.
func (p *PasswordSource) Resolve(flagValue, envKey string) (string, error) {
	switch flagValue {
	case stdinMarker:
		line, err := p.in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", fmt.Errorf("failed to read password from stdin: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	case "":
		return p.getenv(envKey), nil
	default:
		return flagValue, nil
	}
}
