package configstore

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/uploadgate/upload"
)

var ErrWeakPassword = errors.New("password must not be empty")

// UserEntry is a user as stored by the file and memory sources.
type UserEntry struct {
	ID                uuid.UUID `yaml:"id"`
	upload.UserRecord `yaml:",inline"`
	// PasswordHash is a bcrypt hash, see HashPassword.
	PasswordHash string `yaml:"password_hash"`
	Disabled     bool   `yaml:"disabled"`
}

// HashPassword returns the bcrypt hash stored in password_hash columns and
// YAML entries.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// checkPassword maps a mismatch to upload.ErrInvalidCredentials.
func checkPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return upload.ErrInvalidCredentials
	}
	return errors.Join(upload.ErrInvalidCredentials, err)
}
