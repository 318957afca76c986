// Package identity obtains identity-provider credentials for the googleAuth
// action: a provider access token plus the profile the backend expects next
// to it.
package identity

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/trace/internal/client/models"
)

// ErrNotConfigured is returned when sign-in is attempted without a client ID.
var ErrNotConfigured = errors.New("identity provider is not configured")

// Credentials are what the backend's authenticate endpoint consumes.
type Credentials struct {
	AccessToken string
	Profile     models.ProviderUser
}

// Provider runs an interactive sign-in and returns the user's credentials.
type Provider interface {
	SignIn(ctx context.Context) (Credentials, error)
}
