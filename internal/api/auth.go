package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/avoronin/portalctl/internal/apperrors"
	"github.com/avoronin/portalctl/internal/models"
	"github.com/avoronin/portalctl/internal/tokenstore"
)

// Token pair shape returned by the access-token and refresh-token endpoints
type tokenResponse struct {
	TokenType             string `json:"token_type"`
	AccessToken           string `json:"access_token"`
	ExpiresAt             int64  `json:"expires_at"`
	RefreshToken          string `json:"refresh_token"`
	RefreshTokenExpiresAt int64  `json:"refresh_token_expires_at"`
}

func (tr tokenResponse) pair() tokenstore.Pair {
	expiresAt := tr.ExpiresAt
	if expiresAt == 0 {
		expiresAt = accessTokenExp(tr.AccessToken)
	}

	return tokenstore.Pair{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    time.Unix(expiresAt, 0),
	}
}

// accessTokenExp reads the exp claim without verifying the signature.
// The access token is opaque bearer material for this client; the claim is
// only an expiry hint for when the endpoint omits expires_at.
func accessTokenExp(access string) int64 {
	claims := jwt.RegisteredClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(access, &claims)
	if err != nil || claims.ExpiresAt == nil {
		return 0
	}
	return claims.ExpiresAt.Unix()
}

// Login exchanges credentials for a token pair and persists it.
// The endpoint implements the OAuth2 password grant, so the body is
// form-encoded and the email travels as 'username'.
func (c *Client) Login(ctx context.Context, username string, password string) error {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	data, err := c.do(ctx,
		http.MethodPost, "/api/v1/auth/access-token",
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", false,
	)
	if err != nil {
		return err
	}

	tr, err := decodeTokenResponse(data)
	if err != nil {
		return err
	}

	// All three fields land in the store together or not at all
	if err := c.store.Save(tr.pair()); err != nil {
		return fmt.Errorf("failed to save token pair: %w", err)
	}
	return nil
}

// Register creates a new user. It does not establish a session: the caller
// chains into Login when one is wanted.
func (c *Client) Register(ctx context.Context, email string, password string, role models.Role) (models.User, error) {
	body := struct {
		Email    string      `json:"email"`
		Password string      `json:"password"`
		Role     models.Role `json:"role,omitempty"`
	}{Email: email, Password: password, Role: role}

	var user models.User
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/register", body, &user, false); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Refresh exchanges the stored refresh token for a new pair and overwrites
// the store. Nothing calls this automatically: an expired access token
// surfaces as a 401 until the caller refreshes or logs in again.
func (c *Client) Refresh(ctx context.Context) error {
	pair, ok, err := c.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load token pair: %w", err)
	}
	if !ok {
		return apperrors.ErrNoTokenPair
	}
	if pair.RefreshToken == "" {
		return apperrors.ErrNoRefreshToken
	}

	body := struct {
		RefreshToken string `json:"refresh_token"`
	}{RefreshToken: pair.RefreshToken}

	var tr tokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/refresh-token", body, &tr, false); err != nil {
		return err
	}

	if err := c.store.Save(tr.pair()); err != nil {
		return fmt.Errorf("failed to save token pair: %w", err)
	}
	return nil
}

// Logout drops the persisted pair. Purely local, the backend keeps no
// session state worth revoking here.
func (c *Client) Logout() error {
	return c.store.Clear()
}

func decodeTokenResponse(data []byte) (tokenResponse, error) {
	var tr tokenResponse
	if err := json.Unmarshal(data, &tr); err != nil {
		return tr, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.AccessToken == "" || tr.RefreshToken == "" {
		return tr, errors.New("token endpoint returned incomplete pair")
	}
	return tr, nil
}
