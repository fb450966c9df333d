package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"media-editor/internal/auth"

	"golang.org/x/term"
)

// passwordReader prompts with label and returns the entered password.
type passwordReader func(label string) ([]byte, error)

func main() {
	os.Exit(run(os.Args[1:], stdinReader(os.Stdin, os.Stderr), os.Stdout, os.Stderr))
}

func run(args []string, readPassword passwordReader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stdout)
		return 1
	}

	switch args[0] {
	case "hash":
		return hashCommand(readPassword, stdout, stderr)
	case "verify":
		if len(args) < 2 {
			fmt.Fprintln(stderr, "Error: verify requires a hash argument")
			printUsage(stdout)
			return 1
		}
		return verifyCommand(args[1], readPassword, stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		// Sanitize command input using allowlist to break taint chain
		fmt.Fprintf(stderr, "Unknown command: %s\n", sanitizeCommand(args[0]))
		printUsage(stdout)
		return 1
	}
}

// sanitizeCommand returns a safe representation of a command string for display.
// It uses an allowlist approach, replacing any character that is not alphanumeric,
// a hyphen, or an underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Media Editor Password Hashing")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: hashpw <command> [args]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  hash           - Print a bcrypt hash for the PASSWORD variable")
	fmt.Fprintln(w, "  verify <hash>  - Check a password against a bcrypt hash")
}

func hashCommand(readPassword passwordReader, stdout, stderr io.Writer) int {
	password, err := readPassword("Password: ")
	if err != nil {
		fmt.Fprintf(stderr, "Error reading password: %v\n", err)
		return 1
	}

	confirm, err := readPassword("Confirm Password: ")
	if err != nil {
		fmt.Fprintf(stderr, "Error reading password: %v\n", err)
		return 1
	}

	if !bytes.Equal(password, confirm) {
		fmt.Fprintln(stderr, "Error: Passwords do not match")
		return 1
	}

	if err := checkLength(password); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	hash, err := auth.HashPassword(string(password))
	if err != nil {
		fmt.Fprintf(stderr, "Error: Failed to hash password: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdout, hash)
	return 0
}

func verifyCommand(hash string, readPassword passwordReader, stdout, stderr io.Writer) int {
	if !auth.IsHash(hash) {
		fmt.Fprintln(stderr, "Error: Argument is not a bcrypt hash")
		return 1
	}

	password, err := readPassword("Password: ")
	if err != nil {
		fmt.Fprintf(stderr, "Error reading password: %v\n", err)
		return 1
	}

	if err := auth.CheckPassword(hash, string(password)); err != nil {
		fmt.Fprintln(stdout, "Password does not match")
		return 1
	}

	fmt.Fprintln(stdout, "Password matches")
	return 0
}

func checkLength(password []byte) error {
	if len(password) == 0 {
		return errors.New("password must not be empty")
	}
	if len(password) > auth.MaxPasswordBytes {
		return fmt.Errorf("password must not exceed %d bytes", auth.MaxPasswordBytes)
	}
	return nil
}

// stdinReader prompts on the terminal without echo. When in is not a
// terminal it reads one line per call instead.
func stdinReader(in *os.File, prompt io.Writer) passwordReader {
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		return func(label string) ([]byte, error) {
			fmt.Fprint(prompt, label)
			password, err := term.ReadPassword(fd)
			fmt.Fprintln(prompt)
			return password, err
		}
	}
	return lineReader(in)
}

// lineReader returns successive lines of r without their line endings.
func lineReader(r io.Reader) passwordReader {
	br := bufio.NewReader(r)
	return func(string) ([]byte, error) {
		line, err := br.ReadBytes('\n')
		if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
			return nil, err
		}
		return bytes.TrimRight(line, "\r\n"), nil
	}
}
