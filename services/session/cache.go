package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"travelstore/models"
	"travelstore/services/api"
	"travelstore/services/credentials"
	"travelstore/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Options configures a Cache.
type Options struct {
	// Window is how long a completed check is reused by non-forced checks.
	Window time.Duration
	// Debounce coalesces cross-tab change notifications.
	Debounce time.Duration
	Clock    utils.Clock
	Logger   *zap.Logger
}

// Cache owns the session of one storefront process: the current user, the
// authentication verdict and when it was last checked. It is mutated only by
// CheckStatus, Login, Register, UpdateProfile and Logout.
type Cache struct {
	api      AuthAPI
	store    credentials.Store
	clock    utils.Clock
	window   time.Duration
	debounce time.Duration
	logger   *zap.Logger

	mu           sync.Mutex
	session      models.Session
	checked      bool
	epoch        uint64
	compartments []Compartment
	// owner is the last confirmed user; compartments hold state on their
	// behalf until the credentials are known to have changed.
	owner string

	flight singleflight.Group
}

// NewCache returns a cache with no verdict yet.
func NewCache(authAPI AuthAPI, store credentials.Store, opts Options) *Cache {
	if opts.Window <= 0 {
		opts.Window = utils.SessionCheckWindow
	}
	if opts.Debounce <= 0 {
		opts.Debounce = utils.CredentialDebounce
	}
	if opts.Clock == nil {
		opts.Clock = utils.SystemClock{}
	}
	return &Cache{
		api:      authAPI,
		store:    store,
		clock:    opts.Clock,
		window:   opts.Window,
		debounce: opts.Debounce,
		logger:   utils.OrNop(opts.Logger),
	}
}

// CheckStatus returns the authentication verdict. Without force, a verdict
// younger than the window is returned as is. Otherwise the stored
// credentials are inspected and, if present, the profile is fetched; any
// failure yields an unauthenticated verdict. Concurrent checks share one fetch.
func (c *Cache) CheckStatus(ctx context.Context, force bool) models.Status {
	c.mu.Lock()
	if !force && c.checked && c.clock.Now().Sub(c.session.LastCheck) < c.window {
		st := c.session.Status()
		c.mu.Unlock()
		return st
	}
	c.mu.Unlock()

	key := "check"
	if force {
		key = "force"
	}
	// The shared fetch must not die with whichever caller started it.
	shared := context.WithoutCancel(ctx)
	v, _, _ := c.flight.Do(key, func() (interface{}, error) {
		return c.check(shared), nil
	})
	return v.(models.Status)
}

func (c *Cache) check(ctx context.Context) models.Status {
	c.mu.Lock()
	epoch := c.epoch
	c.mu.Unlock()

	var next models.Session
	// revoked is set when the credentials are known to be gone or refused,
	// as opposed to a check that merely could not complete.
	revoked := false
	creds, err := c.store.Load(ctx)
	switch {
	case err != nil:
		c.logger.Warn("auth check: credentials unavailable", zap.Error(err))
	case !creds.Present():
		revoked = true
	default:
		next.TokenPresent = true
		user, err := c.api.Profile(ctx)
		switch {
		case err != nil:
			c.logger.Info("auth check: profile fetch failed", zap.String("kind", string(api.KindOf(err))), zap.Error(err))
			revoked = api.IsAuth(err)
		case user != nil:
			next.User = user
			next.Authenticated = true
		default:
			revoked = true
		}
	}

	c.mu.Lock()
	if c.epoch != epoch {
		// A login or logout finished while this check was in flight; its state is newer.
		st := c.session.Status()
		c.mu.Unlock()
		return st
	}
	owner := c.owner
	next.LastCheck = c.clock.Now()
	c.session = next
	c.checked = true
	c.epoch++
	reset := false
	switch {
	case next.User != nil:
		reset = owner != "" && next.User.UID != owner
		c.owner = next.User.UID
	case revoked:
		reset = owner != ""
		c.owner = ""
	}
	st := c.session.Status()
	c.mu.Unlock()

	switch {
	case reset:
		c.logger.Info("auth check: user changed, resetting cached state", zap.String("previousUID", owner))
		c.resetCompartments()
	case owner != "" && next.User == nil:
		c.logger.Info("auth check: user unconfirmed, cached state kept", zap.String("uid", owner))
	}
	return st
}

// Login exchanges credentials for a session. On failure the cache is left
// as it was and an *api.AuthError (or *api.NetworkError) is returned.
func (c *Cache) Login(ctx context.Context, email, password string) (models.Session, error) {
	if email == "" || password == "" {
		return models.Session{}, api.NewValidationError("credentials", "email and password are required")
	}
	resp, err := c.api.Login(ctx, models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return models.Session{}, asAuthError("login", err)
	}
	return c.establish(ctx, "login", resp)
}

// Register creates an account; it has the same contract as Login.
func (c *Cache) Register(ctx context.Context, req models.RegistrationRequest) (models.Session, error) {
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		return models.Session{}, api.NewValidationError("registration", "full name, email and password are required")
	}
	resp, err := c.api.Register(ctx, req)
	if err != nil {
		return models.Session{}, asAuthError("register", err)
	}
	return c.establish(ctx, "register", resp)
}

func (c *Cache) establish(ctx context.Context, op string, resp *models.AuthResponse) (models.Session, error) {
	if resp == nil || resp.AccessToken == "" {
		return models.Session{}, &api.AuthError{Message: op + " returned no credentials"}
	}
	prior, err := c.store.Load(ctx)
	if err != nil {
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := c.store.Save(ctx, resp.Credentials()); err != nil {
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	user := resp.User
	if user == nil {
		u, err := c.api.Profile(ctx)
		if err != nil || u == nil {
			c.restore(ctx, op, prior)
			return models.Session{}, asAuthError(op, err)
		}
		user = u
	}

	c.mu.Lock()
	c.epoch++
	c.session = models.Session{
		TokenPresent:  true,
		User:          user,
		Authenticated: true,
		LastCheck:     c.clock.Now(),
	}
	c.checked = true
	previous := c.owner
	c.owner = user.UID
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if previous != "" && previous != user.UID {
		c.logger.Info(op+": different user, resetting cached state", zap.String("previousUID", previous))
		c.resetCompartments()
	}
	c.logger.Info(op+" succeeded", zap.String("uid", user.UID))
	return snap, nil
}

// restore puts back the credentials that were stored before a failed login.
func (c *Cache) restore(ctx context.Context, op string, prior models.Credentials) {
	var err error
	if prior.Present() {
		err = c.store.Save(ctx, prior)
	} else {
		err = c.store.Clear(ctx)
	}
	if err != nil {
		c.logger.Warn(op+": credentials not rolled back", zap.Error(err))
	}
}

// UpdateProfile applies a partial profile update and refreshes the cached user.
func (c *Cache) UpdateProfile(ctx context.Context, patch models.UserUpdateRequest) (*models.User, error) {
	user, err := c.api.UpdateProfile(ctx, patch)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.User != nil && user != nil {
		u := *user
		c.session.User = &u
	}
	return user, nil
}

// Logout tears the session down locally whatever the service answers: the
// remote invalidation is attempted, then stored credentials and the verdict
// are cleared and every registered compartment is reset. The returned error
// only reports a failure to clear the shared storage.
func (c *Cache) Logout(ctx context.Context) error {
	if err := c.api.Logout(ctx); err != nil {
		c.logger.Warn("logout: remote invalidation failed, clearing locally", zap.Error(err))
	}

	var storeErr error
	if err := c.store.Clear(ctx); err != nil {
		storeErr = fmt.Errorf("logout: %w", err)
		c.logger.Warn("logout: credentials not cleared", zap.Error(err))
	}

	c.mu.Lock()
	c.epoch++
	c.session = models.Session{LastCheck: c.clock.Now()}
	c.checked = true
	c.owner = ""
	c.mu.Unlock()

	c.resetCompartments()
	return storeErr
}

// Snapshot returns a copy of the current session.
func (c *Cache) Snapshot() models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Cache) snapshotLocked() models.Session {
	s := c.session
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

func asAuthError(op string, err error) error {
	if err == nil {
		return &api.AuthError{Message: op + " failed"}
	}
	var ae *api.AuthError
	if errors.As(err, &ae) {
		return ae
	}
	if api.IsNetwork(err) || api.IsValidation(err) {
		return err
	}
	var se *api.ServerError
	if errors.As(err, &se) {
		return &api.AuthError{Status: se.Status, Message: se.Message}
	}
	return &api.AuthError{Message: fmt.Sprintf("%s failed: %v", op, err)}
}
