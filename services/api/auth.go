package api

import (
	"context"
	"encoding/json"
	"net/http"

	"travelstore/models"
)

// Login exchanges email and password for a token pair and the user profile.
// A 401 here is a rejected login, not an expired session: nothing is broadcast.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	err := c.do(ctx, call{op: "login", method: http.MethodPost, path: PathLogin, body: req, anonymous: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, req models.RegistrationRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	err := c.do(ctx, call{op: "register", method: http.MethodPost, path: PathRegister, body: req, anonymous: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile fetches the signed-in user.
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, call{op: "profile", method: http.MethodGet, path: PathProfile}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile applies a partial update. The service answers either with the
// user or with {message, user}.
func (c *Client) UpdateProfile(ctx context.Context, patch models.UserUpdateRequest) (*models.User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, call{op: "update profile", method: http.MethodPatch, path: PathProfile, body: patch}, &raw); err != nil {
		return nil, err
	}
	var wrapped struct {
		Message string       `json:"message"`
		User    *models.User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}
	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, &ServerError{Status: http.StatusOK, Message: "malformed profile response", Details: []string{err.Error()}}
	}
	return &user, nil
}

// Logout asks the service to invalidate the current tokens.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, call{op: "logout", method: http.MethodPost, path: PathLogout, silent: true}, nil)
}

// ForgotPassword starts password recovery for email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, call{
		op:        "forgot password",
		method:    http.MethodPost,
		path:      PathForgotPassword,
		body:      map[string]string{"email": email},
		anonymous: true,
	}, nil)
}

// ResetPassword completes password recovery.
func (c *Client) ResetPassword(ctx context.Context, req models.PasswordResetRequest) error {
	return c.do(ctx, call{op: "reset password", method: http.MethodPost, path: PathResetPassword, body: req, anonymous: true}, nil)
}
