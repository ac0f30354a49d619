package crypto

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor used for stored credentials.
const PasswordCost = 10

// ErrPasswordTooLong is returned for passwords bcrypt cannot hash without truncation.
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// ErrMismatch is returned when a password does not match its hash.
var ErrMismatch = bcrypt.ErrMismatchedHashAndPassword

// HashPassword hashes plaintext using bcrypt at PasswordCost.
func HashPassword(plain string) ([]byte, error) {
	return HashPasswordCost(plain, PasswordCost)
}

// HashPasswordCost hashes plaintext using bcrypt at the given cost.
func HashPasswordCost(plain string, cost int) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plain), cost)
}

// ComparePassword compares plaintext to hashed secret.
// Any failure, including a corrupt hash, is reported as ErrMismatch wrapped with the cause.
func ComparePassword(hash []byte, plain string) error {
	err := bcrypt.CompareHashAndPassword(hash, []byte(plain))
	if err == nil || errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return err
	}
	return errors.Join(ErrMismatch, err)
}
