package seed

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	readPassword = func(int) ([]byte, error) {
		if len(answers) == 0 {
			return nil, errors.New("no more input")
		}
		a := answers[0]
		answers = answers[1:]
		return []byte(a), nil
	}
}

func TestPromptLine(t *testing.T) {
	var out bytes.Buffer
	got, err := PromptLine(bufio.NewReader(strings.NewReader("  PaulBlart1 \n")), "Username", &out)
	require.NoError(t, err)
	assert.Equal(t, "PaulBlart1", got)
	assert.Equal(t, "Username\n> ", out.String())
}

func TestPromptLine_EOF(t *testing.T) {
	var out bytes.Buffer
	got, err := PromptLine(bufio.NewReader(strings.NewReader("lastline")), "Name", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = PromptLine(bufio.NewReader(strings.NewReader("")), "Name", &out)
	assert.Error(t, err)
}

func TestPromptNewPassword(t *testing.T) {
	stubPasswords(t, "Secur3P@ss", "Secur3P@ss")
	var out bytes.Buffer
	pw, err := PromptNewPassword(&out)
	require.NoError(t, err)
	assert.Equal(t, "Secur3P@ss", pw)
}

func TestPromptNewPassword_Mismatch(t *testing.T) {
	stubPasswords(t, "Secur3P@ss", "different")
	var out bytes.Buffer
	_, err := PromptNewPassword(&out)
	assert.ErrorIs(t, err, ErrPasswordMismatch)
}

func TestPromptPassword_Error(t *testing.T) {
	stubPasswords(t)
	var out bytes.Buffer
	_, err := PromptPassword(&out, "Enter password")
	assert.Error(t, err)
}
