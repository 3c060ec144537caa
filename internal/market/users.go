package market

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/five82/emarket/internal/api"
)

// UserClient manages accounts under /users.
type UserClient struct {
	api api.Requester
}

// NewUserClient builds a UserClient over r.
func NewUserClient(r api.Requester) *UserClient {
	return &UserClient{api: r}
}

func userPath(id ID) string {
	return "/users/" + url.PathEscape(string(id))
}

// List returns every user.
func (c *UserClient) List(ctx context.Context) ([]User, error) {
	var out []User
	if err := c.api.Do(ctx, http.MethodGet, "/users", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one user.
func (c *UserClient) Get(ctx context.Context, id ID) (User, error) {
	if id == "" {
		return User{}, fmt.Errorf("user id required")
	}
	var out User
	if err := c.api.Do(ctx, http.MethodGet, userPath(id), nil, nil, &out); err != nil {
		return User{}, err
	}
	return out, nil
}

// Create registers a new account.
func (c *UserClient) Create(ctx context.Context, reg Registration) (User, error) {
	var out User
	if err := c.api.Do(ctx, http.MethodPost, "/users", nil, reg, &out); err != nil {
		return User{}, err
	}
	return out, nil
}

// Update replaces the editable profile fields of user id.
func (c *UserClient) Update(ctx context.Context, id ID, patch ProfileUpdate) (User, error) {
	if id == "" {
		return User{}, fmt.Errorf("user id required")
	}
	var out User
	if err := c.api.Do(ctx, http.MethodPut, userPath(id), nil, patch, &out); err != nil {
		return User{}, err
	}
	if out.ID == "" {
		out.ID = id
	}
	return out, nil
}

// UpdatePassword sets a new password through the user resource.
func (c *UserClient) UpdatePassword(ctx context.Context, id ID, newPassword string) error {
	if id == "" {
		return fmt.Errorf("user id required")
	}
	body := map[string]string{"password": newPassword}
	return c.api.Do(ctx, http.MethodPut, userPath(id), nil, body, nil)
}

// Delete removes user id and returns it.
func (c *UserClient) Delete(ctx context.Context, id ID) (ID, error) {
	if id == "" {
		return "", fmt.Errorf("user id required")
	}
	if err := c.api.Do(ctx, http.MethodDelete, userPath(id), nil, nil, nil); err != nil {
		return "", err
	}
	return id, nil
}
