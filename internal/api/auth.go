// ABOUTME: Identity endpoints: current user, password-grant login, registration, onboarding
// ABOUTME: Login goes through oauth2's password grant; its RetrieveError becomes an APIError

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// Me returns the user the stored credential belongs to.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, c.authed, http.MethodGet, "/auth/users/me", nil, nil, &raw); err != nil {
		return nil, err
	}
	return decodeUser(raw)
}

// decodeUser reads a top-level user record. A record nested under "user"
// is a contract violation and decodes as empty, which is rejected.
func decodeUser(raw json.RawMessage) (*User, error) {
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decoding user: %w", err)
	}
	if u.ID == 0 && u.Email == "" {
		return nil, errors.New("decoding user: empty user record")
	}
	return &u, nil
}

// Login exchanges credentials for an access token. Nothing is persisted here.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	cfg := oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.url("/auth/token", nil),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.anon)

	tok, err := cfg.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return "", &APIError{
				StatusCode: retrieveErr.Response.StatusCode,
				Message:    parseErrorMessage(retrieveErr.Body),
			}
		}
		return "", fmt.Errorf("POST /auth/token: %w", err)
	}
	return tok.AccessToken, nil
}

// Register creates an account. The form is validated locally first and no
// request is sent when it is invalid.
func (c *Client) Register(ctx context.Context, reg Registration) (*AuthResult, error) {
	if err := Validate(reg); err != nil {
		return nil, err
	}
	var result AuthResult
	if err := c.doJSON(ctx, c.anon, http.MethodPost, "/auth/register", nil, reg, &result); err != nil {
		return nil, err
	}
	if result.AccessToken == "" {
		return nil, errors.New("register response missing access_token")
	}
	return &result, nil
}

// CompleteOnboarding submits the profile form and returns the updated user.
func (c *Client) CompleteOnboarding(ctx context.Context, profile Profile) (*User, error) {
	if err := Validate(profile); err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.doJSON(ctx, c.authed, http.MethodPost, "/auth/onboarding", nil, profile, &raw); err != nil {
		return nil, err
	}
	return decodeUser(raw)
}
