// Package identity wraps the external identity provider (AWS Cognito) behind
// a small interface. The application never stores passwords; credential
// verification, password lifecycle and token issuance all happen upstream.
package identity

import (
	"context"
	"fmt"
)

// Tokens is the credential set returned after successful authentication.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int32  `json:"expires_in"`
}

// NewUser is the profile registered with the identity provider. Role and
// department are stamped as custom attributes so they travel in the token.
type NewUser struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Role       string
	Department string
}

// ChallengeError signals that authentication did not fail but cannot complete
// without a follow-up step, e.g. a forced password change on first sign-in.
type ChallengeError struct {
	Name    string
	Session string
}

func (e *ChallengeError) Error() string {
	return fmt.Sprintf("authentication challenge: %s", e.Name)
}

// Provider is the identity operations surface the account service needs.
type Provider interface {
	// SignIn exchanges credentials for tokens. A *ChallengeError is returned
	// when the provider demands a new password before issuing tokens.
	SignIn(ctx context.Context, email, password string) (*Tokens, error)

	// CompleteNewPassword answers a NEW_PASSWORD_REQUIRED challenge.
	CompleteNewPassword(ctx context.Context, email, newPassword, session string) (*Tokens, error)

	// Refresh exchanges a refresh token for a fresh access token.
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)

	// CreateUser registers the user and returns the provider-assigned subject.
	CreateUser(ctx context.Context, user NewUser) (string, error)

	// ChangePassword rotates the password for the holder of accessToken.
	ChangePassword(ctx context.Context, accessToken, oldPassword, newPassword string) error
}
