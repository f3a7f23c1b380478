package clinic

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHashCost is the fixed bcrypt cost factor. Deliberately
// expensive so brute-forcing stolen hashes stays slow.
const PasswordHashCost = 10

// HashPassword will generate a password hash. Each call salts freshly,
// so hashing the same plaintext twice yields different outputs.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext password
// matches the hashed password. A malformed stored hash fails closed:
// the caller sees the same mismatch error, never a panic.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		// covers a wrong password and a truncated or non-bcrypt stored
		// hash alike; verification fails closed either way
		return ErrMismatchedHashAndPassword
	}
	return nil
}

// RandomPasswordHash is a placeholder credential for seeded accounts
func RandomPasswordHash() string {
	pwd := uuid.New()

	h, err := HashPassword(pwd.String())
	if err != nil {
		return RandomPasswordHash()
	}

	return h
}
