// Package password hashes user passwords with a per-user salt.
//
// The salt is mixed in with SHA-256 before bcrypt so that long passwords plus
// the 44 byte salt never hit bcrypt's 72 byte input limit.
package password

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch is returned when a password does not match the stored hash.
var ErrMismatch = errors.New("password does not match")

const saltBytes = 32

var cost = bcrypt.DefaultCost

// SetCost changes the bcrypt cost used by Hash. Out of range values are clamped.
func SetCost(c int) {
	switch {
	case c < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case c > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	default:
		cost = c
	}
}

// NewSalt returns a fresh base64 encoded random salt.
func NewSalt() (string, error) {
	buf := make([]byte, saltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// Hash returns the bcrypt hash of password combined with salt.
func Hash(password, salt string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(digest(password, salt), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Compare checks password and salt against hash.
func Compare(hash, password, salt string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), digest(password, salt))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return err
}

// HashWithNewSalt is the register/reset path: a new salt and its hash.
func HashWithNewSalt(password string) (hash, salt string, err error) {
	salt, err = NewSalt()
	if err != nil {
		return "", "", err
	}
	hash, err = Hash(password, salt)
	if err != nil {
		return "", "", err
	}
	return hash, salt, nil
}

func digest(password, salt string) []byte {
	sum := sha256.Sum256([]byte(password + salt))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
