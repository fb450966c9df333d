// Command hashpw provides a CLI utility for preparing the media editor's
// seed account.
//
// It supports the following operations:
//   - hash: Prompt for a password and print its bcrypt hash
//   - verify: Check a password against an existing hash
//
// Usage:
//
//	hashpw <command> [args]
//
// Commands:
//
//	hash            Prompt twice for a password and print a bcrypt hash
//	                suitable for the server's PASSWORD variable.
//
//	verify <hash>   Prompt for a password and report whether it matches
//	                the given hash. Exits 1 on mismatch.
//
// When standard input is not a terminal the password is read from the first
// line of input instead, so the tool can be used in scripts:
//
//	printf 'secret\nsecret\n' | hashpw hash
package main
