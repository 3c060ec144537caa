package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/five82/emarket/internal/api"
)

// LoginResult pairs the bearer token with the authenticated user.
type LoginResult struct {
	Token string
	User  User
}

// AuthClient signs users in.
type AuthClient struct {
	api api.Requester
}

// NewAuthClient builds an AuthClient over r.
func NewAuthClient(r api.Requester) *AuthClient {
	return &AuthClient{api: r}
}

// Login exchanges credentials for a session. The backend may nest the user
// under "user" or flatten its fields next to the token; both are accepted.
func (c *AuthClient) Login(ctx context.Context, creds Credentials) (LoginResult, error) {
	var raw map[string]json.RawMessage
	if err := c.api.Do(ctx, http.MethodPost, "/auth/login", nil, creds, &raw); err != nil {
		return LoginResult{}, err
	}
	return parseLogin(raw)
}

func parseLogin(raw map[string]json.RawMessage) (LoginResult, error) {
	token := firstString(raw, []string{"token", "accessToken", "access_token"})
	if token == "" {
		return LoginResult{}, errors.New("login response missing token")
	}
	var (
		user User
		err  error
	)
	if nested, ok := raw["user"]; ok && string(nested) != "null" {
		user, err = NormalizeUser(nested)
	} else {
		user, err = normalizeFields(raw)
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("login user: %w", err)
	}
	return LoginResult{Token: token, User: user}, nil
}
