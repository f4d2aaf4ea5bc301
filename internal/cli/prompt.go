package cli

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// promptPassword reads the IRIDA password from the terminal without echo.
// Fails when stdin is not a terminal, so unattended runs must put the
// password in the config file instead.
func promptPassword(username string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no password configured and stdin is not a terminal")
	}

	fmt.Fprintf(os.Stderr, "IRIDA password for %s: ", username)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("cannot read password: %w", err)
	}
	if len(password) == 0 {
		return "", fmt.Errorf("empty password")
	}
	return string(password), nil
}
