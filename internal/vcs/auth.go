package vcs

import (
	"fmt"

	"github.com/go-git/go-git/v6/plumbing/transport"
	"github.com/go-git/go-git/v6/plumbing/transport/http"
	"github.com/go-git/go-git/v6/plumbing/transport/ssh"
)

// Credentials for the remote. A private key takes precedence over a password.
type Credentials struct {
	Username       string
	Password       string
	PrivateKeyPath string
	Passphrase     string
}

// IsZero reports whether no credentials are set.
func (c Credentials) IsZero() bool {
	return c == Credentials{}
}

// AuthMethod converts the credentials into a go-git transport auth method.
// Zero credentials yield a nil method, which go-git treats as anonymous.
func (c Credentials) AuthMethod() (transport.AuthMethod, error) {
	if c.PrivateKeyPath != "" {
		user := c.Username
		if user == "" {
			user = "git"
		}
		keys, err := ssh.NewPublicKeysFromFile(user, c.PrivateKeyPath, c.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to load private key: %w", ErrAuthenticationFailed, err)
		}
		return keys, nil
	}

	if c.Username != "" || c.Password != "" {
		return &http.BasicAuth{
			Username: c.Username,
			Password: c.Password,
		}, nil
	}

	return nil, nil
}
