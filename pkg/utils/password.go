package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordLength is returned for empty passwords and passwords bcrypt would truncate.
var ErrPasswordLength = errors.New("password must be between 1 and 72 bytes")

// HashPassword hashes an operator password for ADMIN_PASSWORD_HASH / VIEWER_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if len(password) == 0 || len(password) > 72 {
		return "", ErrPasswordLength
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hashed), err
}

// ValidHash reports whether hashed is a bcrypt hash.
func ValidHash(hashed string) bool {
	_, err := bcrypt.Cost([]byte(hashed))
	return err == nil
}

// CheckPassword compares a plain password with its bcrypt hash.
func CheckPassword(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
