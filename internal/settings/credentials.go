package settings

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tartampluch/go-miti/internal/config"
	"github.com/zalando/go-keyring"
)

// Credentials stores passwords in the OS keyring under a service name.
type Credentials struct {
	Service string
}

// NewCredentials returns Credentials bound to the application keyring entry.
func NewCredentials() *Credentials {
	return &Credentials{Service: config.KeyringService}
}

// Password returns the secret for user. A missing entry yields "" and no
// error, so anonymous sources keep working.
func (c *Credentials) Password(user string) (string, error) {
	if user == "" {
		return "", nil
	}
	p, err := keyring.Get(c.Service, user)
	if errors.Is(err, keyring.ErrNotFound) {
		slog.Debug(config.MsgPassFail,
			config.LogKeyComponent, config.CompSettings,
			config.LogKeyUser, user,
		)
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrKeyringUnavail, err)
	}
	return p, nil
}

// SetPassword stores the secret for user.
func (c *Credentials) SetPassword(user, password string) error {
	if err := keyring.Set(c.Service, user, password); err != nil {
		return fmt.Errorf("%s: %w", config.ErrKeyringUnavail, err)
	}
	return nil
}

// DeletePassword removes the secret for user. Missing entries are ignored.
func (c *Credentials) DeletePassword(user string) error {
	err := keyring.Delete(c.Service, user)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%s: %w", config.ErrKeyringUnavail, err)
	}
	return nil
}
