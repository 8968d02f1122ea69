package security

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

type PasswordEncoder interface {
	GetPasswordHash(password string) (string, error)
	IsMatching(hash, password string) bool
}

type BcryptEncoder struct {
	cost int
}

func NewBcryptEncoder() *BcryptEncoder {
	return &BcryptEncoder{cost: bcrypt.DefaultCost}
}

func (BcryptEncoder) GetPasswordHash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (BcryptEncoder) IsMatching(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// PlainEqual compares a submitted secret against the configured one in
// constant time. Kept for deployments that configure the operator secret
// directly rather than as a bcrypt hash.
func PlainEqual(configured, submitted string) bool {
	return subtle.ConstantTimeCompare([]byte(configured), []byte(submitted)) == 1
}
