package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/avoronin/portalctl/internal/models"
)

// CurrentUser fetches the authenticated user. This is the canonical source
// of truth for the User entity.
func (c *Client) CurrentUser(ctx context.Context) (models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/users/me", nil, &user, true); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// ResetPassword updates the authenticated user's password.
func (c *Client) ResetPassword(ctx context.Context, password string) error {
	body := struct {
		Password string `json:"password"`
	}{Password: password}

	return c.doJSON(ctx, http.MethodPost, "/api/v1/users/reset-password", body, nil, true)
}

// DeleteCurrentUser removes the authenticated user's account.
func (c *Client) DeleteCurrentUser(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/users/me", nil, nil, true)
}

// ListUsers returns all users. Admin only on the backend side.
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var list models.List[models.User]
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/users/", nil, &list, true); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// CreateUser creates a user with an explicit role. Admin only on the
// backend side, used by the invite flow.
func (c *Client) CreateUser(ctx context.Context, email string, password string, role models.Role) (models.User, error) {
	body := struct {
		Email    string      `json:"email"`
		Password string      `json:"password"`
		Role     models.Role `json:"role,omitempty"`
	}{Email: email, Password: password, Role: role}

	var user models.User
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/users/", body, &user, true); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// DeleteUser removes a user by id. Admin only on the backend side.
func (c *Client) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/users/"+id.String(), nil, nil, true)
}
