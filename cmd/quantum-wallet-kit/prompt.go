package main

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/quantumauth-io/quantum-wallet-kit/internal/constants"
)

const minPasswordLen = 8

// readPassword takes the keystore password from WALLETKIT_PASSWORD or the terminal.
func readPassword(confirm bool) ([]byte, error) {
	if env := os.Getenv(constants.EnvPrefix + "_PASSWORD"); env != "" {
		return checkPassword([]byte(env))
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, fmt.Errorf("no terminal to prompt for a password; set %s_PASSWORD", constants.EnvPrefix)
	}

	pw, err := promptPassword("Wallet password: ")
	if err != nil {
		return nil, err
	}
	if confirm {
		again, err := promptPassword("Repeat password: ")
		if err != nil {
			zeroBytes(pw)
			return nil, err
		}
		defer zeroBytes(again)
		if string(again) != string(pw) {
			zeroBytes(pw)
			return nil, fmt.Errorf("passwords do not match")
		}
	}
	return checkPassword(pw)
}

func promptPassword(prompt string) ([]byte, error) {
	_, _ = fmt.Fprint(os.Stderr, prompt)

	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	_, _ = fmt.Fprintln(os.Stderr)

	if err != nil {
		zeroBytes(pw)
		return nil, fmt.Errorf("password input failed: %w", err)
	}
	return pw, nil
}

func checkPassword(pw []byte) ([]byte, error) {
	if len(strings.TrimSpace(string(pw))) < minPasswordLen {
		zeroBytes(pw)
		return nil, fmt.Errorf("password must be at least %d characters long", minPasswordLen)
	}
	return pw, nil
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
