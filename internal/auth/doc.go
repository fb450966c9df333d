// Package auth registers and logs in users and issues the bearer tokens that
// guard the processing endpoints.
//
// Passwords are stored as bcrypt hashes. Tokens are HS256 JWTs whose subject
// is the user ID; they carry an expiry only when a TTL is configured.
//
// # Errors
//
// Callers map the sentinel errors to HTTP status codes:
//
//   - ErrInvalidInput: the email or password failed validation
//   - ErrInvalidCredential: the password does not match
//   - ErrUnauthenticated: no bearer token was presented
//   - ErrInvalidToken: the token failed signature, algorithm or expiry checks
//
// Lookups against the user store surface users.ErrNotFound and
// users.ErrDuplicateUser unchanged.
package auth
