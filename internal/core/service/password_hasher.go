package service

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor for locally stored passwords.
const PasswordCost = 12

// PasswordHasher derives and checks salted one-way password digests.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{cost: PasswordCost}
}

// Hash returns a bcrypt digest with a fresh random salt embedded.
func (h *PasswordHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether password matches digest. bcrypt compares in
// constant time.
func (h *PasswordHasher) Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
