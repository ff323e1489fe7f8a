package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword is returned when hashing input is missing.
var ErrEmptyPassword = errors.New("password must not be empty")

const (
	// MinBcryptCost guards against configurations weak enough to brute-force.
	MinBcryptCost = 10
	// MaxBcryptCost guards against configurations slow enough to DoS login.
	MaxBcryptCost = 16

	DefaultBcryptCost = 12
)

// ClampCost forces a cost factor into the allowed range.
func ClampCost(cost int) int {
	if cost < MinBcryptCost {
		return MinBcryptCost
	}
	if cost > MaxBcryptCost {
		return MaxBcryptCost
	}
	return cost
}

// HashPassword hashes a plaintext password with the configured cost. The
// digest embeds algorithm, cost and a random salt, so two calls on the same
// input produce different digests that both verify.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), ClampCost(cost))
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword checks a password against its digest. It reports false for
// wrong passwords, empty input and malformed digests alike; callers cannot
// distinguish verification failure from verification error.
func VerifyPassword(password, digest string) bool {
	if password == "" || digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
