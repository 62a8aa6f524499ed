package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"autotasker-engine/internal/config"

	"github.com/zalando/go-keyring"
)

const (
	// “Service” groups the app’s secrets in the OS keychain.
	KeyringService = "autotasker"

	apiKeyAccount = "autotasker:classifier:api-key"
)

var ErrSecretNotFound = errors.New("secret not found")

func GetIMAPPassword(keyringAccount string) (string, error) {
	if strings.TrimSpace(keyringAccount) != "" {
		pw, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}

	return "", fmt.Errorf("IMAP password: %w (set it with `engine secret set-imap`)", ErrSecretNotFound)
}

func SetIMAPPassword(keyringAccount string, password string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, password)
}

func DeleteIMAPPassword(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, keyringAccount)
}

func IMAPKeyringAccount(cfg config.Config) string {
	return fmt.Sprintf(
		"autotasker:imap:%s@%s",
		cfg.Mailbox.Username,
		cfg.Mailbox.IMAPHost,
	)
}

// APIKey resolves the classifier key: the env var named in config first, then the keychain.
func APIKey(cfg config.Config, getenv func(string) string) (string, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if name := strings.TrimSpace(cfg.Classifier.APIKeyEnv); name != "" {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			return v, nil
		}
	}
	key, err := keyring.Get(KeyringService, apiKeyAccount)
	if err == nil && strings.TrimSpace(key) != "" {
		return key, nil
	}
	return "", fmt.Errorf("classifier API key: %w (set %s or run `engine secret set-api-key`)", ErrSecretNotFound, cfg.Classifier.APIKeyEnv)
}

func SetAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("api key is empty")
	}
	return keyring.Set(KeyringService, apiKeyAccount, strings.TrimSpace(key))
}
