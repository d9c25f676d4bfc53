// Package cryptox provides one-way password hashing and verification for
// stored user credentials.
package cryptox

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordHashCost is the bcrypt work factor for new hashes. Existing hashes
// created with a different cost still verify.
const PasswordHashCost = 12

// HashPassword derives a salted bcrypt digest from the plaintext password.
// The plaintext is never stored or logged.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), PasswordHashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether plaintext matches the stored digest.
// A malformed digest verifies as false; callers are not given a way to
// distinguish it from a wrong password.
func VerifyPassword(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
