package session

import (
	"context"

	"travelstore/models"
)

// AuthAPI is the part of the network layer the session cache consumes.
type AuthAPI interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.RegistrationRequest) (*models.AuthResponse, error)
	Profile(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, patch models.UserUpdateRequest) (*models.User, error)
	Logout(ctx context.Context) error
}

// StatusChecker is what guards and orchestrators need from the cache.
type StatusChecker interface {
	CheckStatus(ctx context.Context, force bool) models.Status
}

// Compartment is cached application state that must not outlive a
// credential change. The cache resets every registered compartment on
// logout and whenever a re-check finds a different user, finds the stored
// credentials gone, or has them refused. A check that merely fails to reach
// the auth service resets nothing.
type Compartment interface {
	Name() string
	Reset()
}
