package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"atsscout-engine/internal/config"
)

const (
	// "Service" groups the engine's secrets in the OS keychain.
	KeyringService = "atsscout"

	searchTokenAccount = "atsscout:search-token"
)

var ErrNoToken = errors.New("search service token not found (set " + config.EnvSearchToken + " or run `engine token set`)")

// GetSearchToken returns the delegated search token from the environment,
// then the keychain.
func GetSearchToken() (string, error) {
	if tok := strings.TrimSpace(os.Getenv(config.EnvSearchToken)); tok != "" {
		return tok, nil
	}
	tok, err := keyring.Get(KeyringService, searchTokenAccount)
	if err == nil && strings.TrimSpace(tok) != "" {
		return tok, nil
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return "", err
	}
	return "", ErrNoToken
}

func SetSearchToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("token is empty")
	}
	return keyring.Set(KeyringService, searchTokenAccount, strings.TrimSpace(token))
}

func DeleteSearchToken() error {
	err := keyring.Delete(KeyringService, searchTokenAccount)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// HasKeychainToken reports whether a token is stored, without exposing it.
func HasKeychainToken() bool {
	tok, err := keyring.Get(KeyringService, searchTokenAccount)
	return err == nil && tok != ""
}
