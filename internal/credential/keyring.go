// Package credential stores service secrets in the OS keyring so they need
// not live in the config file.
package credential

import (
	"errors"
	"fmt"
	"slices"

	"github.com/99designs/keyring"

	"github.com/nhle/juscheck/internal/model"
)

const serviceName = "juscheck"

// Known credential keys.
const (
	KeyDataJudAPIKey = "datajud-api-key"
	KeySMTPPassword  = "smtp-password"
	KeyResendAPIKey  = "resend-api-key"
	KeyIMAPPassword  = "imap-password"
)

// Keys lists every key accepted by Set.
var Keys = []string{KeyDataJudAPIKey, KeySMTPPassword, KeyResendAPIKey, KeyIMAPPassword}

// ErrUnknownKey is returned for a key outside Keys.
var ErrUnknownKey = errors.New("unknown credential")

// Store reads and writes secrets in a keyring.
type Store struct {
	ring keyring.Keyring
}

// Open returns a Store backed by the system keyring.
func Open() (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/juscheck/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("juscheck-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return New(ring), nil
}

// New wraps an existing keyring.
func New(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Get retrieves a credential value by key.
func (s *Store) Get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores a credential value by key.
func (s *Store) Set(key, value string) error {
	if !slices.Contains(Keys, key) {
		return fmt.Errorf("%w %q", ErrUnknownKey, key)
	}
	err := s.ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes a credential by key.
func (s *Store) Delete(key string) error {
	if err := s.ring.Remove(key); err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

// FillSecrets copies keyring secrets into cfg wherever the config file and
// environment left them empty. Missing keys are skipped.
func (s *Store) FillSecrets(cfg *model.AppConfig) {
	for key, dst := range map[string]*string{
		KeyDataJudAPIKey: &cfg.DataJud.APIKey,
		KeySMTPPassword:  &cfg.Mail.SMTP.Password,
		KeyResendAPIKey:  &cfg.Mail.Resend.APIKey,
		KeyIMAPPassword:  &cfg.Mail.SentCopy.Password,
	} {
		if *dst != "" {
			continue
		}
		if v, err := s.Get(key); err == nil {
			*dst = v
		}
	}
}
