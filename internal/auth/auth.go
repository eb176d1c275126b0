// Package auth guards destructive administrative actions behind a bcrypt
// passphrase hash kept in the application config.
package auth

import (
	"fmt"

	"github.com/ginjaninja78/suenlace/internal/types"
	"golang.org/x/crypto/bcrypt"
)

// HashPassphrase returns the bcrypt hash to store as admin_passphrase_hash.
func HashPassphrase(pass string) (string, error) {
	if pass == "" {
		return "", fmt.Errorf("empty passphrase")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassphrase returns ErrAdminDenied unless pass matches hash. An empty
// hash denies everything.
func CheckPassphrase(hash, pass string) error {
	if hash == "" {
		return types.NewError("auth.CheckPassphrase", types.ErrAdminDenied, "no admin passphrase configured")
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass)) != nil {
		return types.NewError("auth.CheckPassphrase", types.ErrAdminDenied, "")
	}
	return nil
}
