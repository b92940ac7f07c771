// Package auth provides the credential primitives of the API: HS256 access
// tokens, bcrypt password hashing and password reset tokens.
//
// Reset tokens are emailed in plain form and stored only as a sha256 hash.
package auth
