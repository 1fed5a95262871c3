package seed

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// ErrPasswordMismatch is returned when the confirmation differs.
var ErrPasswordMismatch = errors.New("passwords do not match")

// PromptLine prints prompt to w and reads one trimmed line from reader. If
// EOF follows some input, the partial line is returned.
func PromptLine(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// PromptPassword reads a password from the terminal without echo.
func PromptPassword(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// PromptNewPassword asks for a password twice and returns it when both
// entries match.
func PromptNewPassword(w io.Writer) (string, error) {
	pw, err := PromptPassword(w, "Enter password")
	if err != nil {
		return "", err
	}
	confirm, err := PromptPassword(w, "Repeat password")
	if err != nil {
		return "", err
	}
	if !bytes.Equal(pw, confirm) {
		return "", ErrPasswordMismatch
	}
	return string(pw), nil
}
