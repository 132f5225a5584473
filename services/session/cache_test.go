package session

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"travelstore/models"
	"travelstore/services/api"
	"travelstore/services/credentials"
	"travelstore/utils"
)

type fakeAuthAPI struct {
	mu           sync.Mutex
	user         *models.User
	profileErr   error
	profileCalls int
	loginResp    *models.AuthResponse
	loginErr     error
	logoutErr    error
	logoutCalls  int
}

func (f *fakeAuthAPI) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginResp, nil
}

func (f *fakeAuthAPI) Register(ctx context.Context, req models.RegistrationRequest) (*models.AuthResponse, error) {
	return f.Login(ctx, models.LoginRequest{Email: req.Email, Password: req.Password})
}

func (f *fakeAuthAPI) Profile(ctx context.Context) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profileCalls++
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	if f.user == nil {
		return nil, &api.AuthError{Status: 401, Message: "no user"}
	}
	u := *f.user
	return &u, nil
}

func (f *fakeAuthAPI) UpdateProfile(ctx context.Context, patch models.UserUpdateRequest) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if patch.City != nil {
		f.user.City = *patch.City
	}
	u := *f.user
	return &u, nil
}

func (f *fakeAuthAPI) Logout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	return f.logoutErr
}

func (f *fakeAuthAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profileCalls
}

type recordingCompartment struct {
	name   string
	resets int
}

func (r *recordingCompartment) Name() string { return r.name }
func (r *recordingCompartment) Reset()       { r.resets++ }

var start = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestCache(t *testing.T, authAPI *fakeAuthAPI, store credentials.Store) (*Cache, *utils.ManualClock) {
	t.Helper()
	clock := utils.NewManualClock(start)
	c := NewCache(authAPI, store, Options{Window: 30 * time.Second, Debounce: 100 * time.Millisecond, Clock: clock})
	return c, clock
}

func signedInStore(t *testing.T) *credentials.MemoryStore {
	t.Helper()
	store := credentials.NewMemoryStore()
	if err := store.Save(context.Background(), models.Credentials{AccessToken: "access", RefreshToken: "refresh", Authenticated: true}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return store
}

func TestCheckStatusMemoizesWithinWindow(t *testing.T) {
	authAPI := &fakeAuthAPI{user: &models.User{UID: "u-1", FullName: "Ada"}}
	c, clock := newTestCache(t, authAPI, signedInStore(t))
	ctx := context.Background()

	first := c.CheckStatus(ctx, false)
	clock.Advance(29 * time.Second)
	second := c.CheckStatus(ctx, false)

	if !first.Authenticated || first.User == nil || first.User.UID != "u-1" {
		t.Fatalf("first = %+v, want authenticated u-1", first)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("second = %+v, want %+v", second, first)
	}
	if got := authAPI.calls(); got != 1 {
		t.Fatalf("profile calls = %d, want 1", got)
	}
}

func TestCheckStatusRefetchesAfterWindow(t *testing.T) {
	authAPI := &fakeAuthAPI{user: &models.User{UID: "u-1"}}
	c, clock := newTestCache(t, authAPI, signedInStore(t))
	ctx := context.Background()

	c.CheckStatus(ctx, false)
	clock.Advance(30 * time.Second)
	c.CheckStatus(ctx, false)

	if got := authAPI.calls(); got != 2 {
		t.Fatalf("profile calls = %d, want 2", got)
	}
}

func TestCheckStatusForceBypassesWindow(t *testing.T) {
	authAPI := &fakeAuthAPI{user: &models.User{UID: "u-1"}}
	c, _ := newTestCache(t, authAPI, signedInStore(t))
	ctx := context.Background()

	c.CheckStatus(ctx, false)
	c.CheckStatus(ctx, true)

	if got := authAPI.calls(); got != 2 {
		t.Fatalf("profile calls = %d, want 2", got)
	}
}

func TestCheckStatusWithoutCredentialsSkipsFetch(t *testing.T) {
	authAPI := &fakeAuthAPI{user: &models.User{UID: "u-1"}}
	c, _ := newTestCache(t, authAPI, credentials.NewMemoryStore())

	st := c.CheckStatus(context.Background(), false)
	if st.Authenticated || st.User != nil {
		t.Fatalf("status = %+v, want unauthenticated", st)
	}
	if got := authAPI.calls(); got != 0 {
		t.Fatalf("profile calls = %d, want 0", got)
	}
}

func TestCheckStatusProfileFailureIsTerminal(t *testing.T) {
	authAPI := &fakeAuthAPI{profileErr: &api.NetworkError{Op: "profile", Err: errors.New("connection refused")}}
	c, _ := newTestCache(t, authAPI, signedInStore(t))
	ctx := context.Background()

	st := c.CheckStatus(ctx, false)
	if st.Authenticated {
		t.Fatalf("status = %+v, want unauthenticated", st)
	}
	// The failed verdict is memoized: no internal retry.
	c.CheckStatus(ctx, false)
	if got := authAPI.calls(); got != 1 {
		t.Fatalf("profile calls = %d, want 1", got)
	}
	snap := c.Snapshot()
	if !snap.TokenPresent || snap.Authenticated || snap.User != nil {
		t.Fatalf("snapshot = %+v, want token present but unauthenticated", snap)
	}
	if !snap.LastCheck.Equal(start) {
		t.Fatalf("LastCheck = %v, want %v", snap.LastCheck, start)
	}
}

func TestLoginEstablishesSession(t *testing.T) {
	authAPI := &fakeAuthAPI{loginResp: &models.AuthResponse{
		AccessToken:  "a-1",
		RefreshToken: "r-1",
		User:         &models.User{UID: "u-1", Email: "ada@example.com"},
	}}
	store := credentials.NewMemoryStore()
	c, _ := newTestCache(t, authAPI, store)
	ctx := context.Background()

	sess, err := c.Login(ctx, "ada@example.com", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !sess.Authenticated || sess.User == nil || sess.User.UID != "u-1" {
		t.Fatalf("session = %+v, want authenticated u-1", sess)
	}
	creds, _ := store.Load(ctx)
	if !creds.Present() || creds.AccessToken != "a-1" {
		t.Fatalf("stored credentials = %+v, want a-1", creds)
	}
	// Memoized: no profile fetch needed right after login.
	if st := c.CheckStatus(ctx, false); !st.Authenticated {
		t.Fatalf("status = %+v, want authenticated", st)
	}
	if got := authAPI.calls(); got != 0 {
		t.Fatalf("profile calls = %d, want 0", got)
	}
}

func TestLoginFailureLeavesPriorState(t *testing.T) {
	authAPI := &fakeAuthAPI{loginErr: &api.ServerError{Status: 400, Message: "Incorrect email or password"}}
	c, _ := newTestCache(t, authAPI, credentials.NewMemoryStore())
	ctx := context.Background()
	before := c.CheckStatus(ctx, false)

	_, err := c.Login(ctx, "ada@example.com", "wrong")
	if !api.IsAuth(err) {
		t.Fatalf("err = %v, want auth error", err)
	}
	if err.Error() != "Incorrect email or password" {
		t.Fatalf("err = %q, want service message", err.Error())
	}
	if after := c.CheckStatus(ctx, false); !reflect.DeepEqual(before, after) {
		t.Fatalf("status after failed login = %+v, want %+v", after, before)
	}
}

func TestLoginRejectsEmptyCredentials(t *testing.T) {
	c, _ := newTestCache(t, &fakeAuthAPI{}, credentials.NewMemoryStore())
	if _, err := c.Login(context.Background(), "", ""); !api.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestLogoutClearsLocallyWhenRemoteFails(t *testing.T) {
	authAPI := &fakeAuthAPI{
		user:      &models.User{UID: "u-1"},
		logoutErr: &api.NetworkError{Op: "logout", Err: errors.New("timeout")},
	}
	store := signedInStore(t)
	c, _ := newTestCache(t, authAPI, store)
	drafts := &recordingCompartment{name: "booking-drafts"}
	c.RegisterCompartment(drafts)
	ctx := context.Background()

	if st := c.CheckStatus(ctx, false); !st.Authenticated {
		t.Fatalf("status = %+v, want authenticated", st)
	}
	if err := c.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if st := c.CheckStatus(ctx, false); st.Authenticated || st.User != nil {
		t.Fatalf("status after logout = %+v, want unauthenticated", st)
	}
	if st := c.CheckStatus(ctx, true); st.Authenticated {
		t.Fatalf("forced status after logout = %+v, want unauthenticated", st)
	}
	creds, _ := store.Load(ctx)
	if creds.Present() {
		t.Fatalf("credentials after logout = %+v, want cleared", creds)
	}
	if drafts.resets != 1 {
		t.Fatalf("compartment resets = %d, want 1", drafts.resets)
	}
	if authAPI.logoutCalls != 1 {
		t.Fatalf("remote logout calls = %d, want 1", authAPI.logoutCalls)
	}
}

func TestUpdateProfileRefreshesCachedUser(t *testing.T) {
	authAPI := &fakeAuthAPI{user: &models.User{UID: "u-1", City: "Dhaka"}}
	c, _ := newTestCache(t, authAPI, signedInStore(t))
	ctx := context.Background()
	c.CheckStatus(ctx, false)

	city := "Sylhet"
	if _, err := c.UpdateProfile(ctx, models.UserUpdateRequest{City: &city}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if got := c.CheckStatus(ctx, false).User.City; got != city {
		t.Fatalf("cached city = %q, want %q", got, city)
	}
}

func TestWatchDebouncesCrossTabChanges(t *testing.T) {
	authAPI := &fakeAuthAPI{user: &models.User{UID: "u-1"}}
	tabA := signedInStore(t)
	tabB := tabA.Fork()
	c, clock := newTestCache(t, authAPI, tabA)
	ctx := context.Background()

	stop, err := c.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	creds := models.Credentials{AccessToken: "other", RefreshToken: "r", Authenticated: true}
	for i := 0; i < 3; i++ {
		if err := tabB.Save(ctx, creds); err != nil {
			t.Fatalf("Save: %v", err)
		}
		clock.Advance(40 * time.Millisecond)
	}
	if got := authAPI.calls(); got != 0 {
		t.Fatalf("profile calls during burst = %d, want 0", got)
	}

	clock.Advance(100 * time.Millisecond)
	if got := authAPI.calls(); got != 1 {
		t.Fatalf("profile calls after burst = %d, want 1", got)
	}
	if clock.Pending() != 0 {
		t.Fatalf("pending timers = %d, want 0", clock.Pending())
	}
}

func TestWatchIgnoresOwnChanges(t *testing.T) {
	authAPI := &fakeAuthAPI{user: &models.User{UID: "u-1"}}
	store := credentials.NewMemoryStore()
	c, clock := newTestCache(t, authAPI, store)
	ctx := context.Background()

	stop, err := c.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	_ = store.Save(ctx, models.Credentials{AccessToken: "mine", Authenticated: true})
	clock.Advance(time.Second)
	if got := authAPI.calls(); got != 0 {
		t.Fatalf("profile calls = %d, want 0", got)
	}
}

func TestCrossTabLogoutResetsCompartments(t *testing.T) {
	authAPI := &fakeAuthAPI{user: &models.User{UID: "u-1"}}
	tabA := signedInStore(t)
	tabB := tabA.Fork()
	c, clock := newTestCache(t, authAPI, tabA)
	drafts := &recordingCompartment{name: "booking-drafts"}
	c.RegisterCompartment(drafts)
	ctx := context.Background()

	c.CheckStatus(ctx, false)
	stop, err := c.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	_ = tabB.Clear(ctx)
	clock.Advance(100 * time.Millisecond)

	if st := c.CheckStatus(ctx, false); st.Authenticated {
		t.Fatalf("status = %+v, want unauthenticated", st)
	}
	if drafts.resets != 1 {
		t.Fatalf("compartment resets = %d, want 1", drafts.resets)
	}
}

func TestRecheckFailureKeepsCompartments(t *testing.T) {
	authAPI := &fakeAuthAPI{user: &models.User{UID: "u-1"}}
	c, clock := newTestCache(t, authAPI, signedInStore(t))
	drafts := &recordingCompartment{name: "booking-drafts"}
	c.RegisterCompartment(drafts)
	ctx := context.Background()

	c.CheckStatus(ctx, false)
	authAPI.mu.Lock()
	authAPI.profileErr = &api.NetworkError{Op: "profile", Err: errors.New("connection reset")}
	authAPI.mu.Unlock()
	clock.Advance(31 * time.Second)

	if st := c.CheckStatus(ctx, false); st.Authenticated {
		t.Fatalf("status = %+v, want unauthenticated", st)
	}
	if drafts.resets != 0 {
		t.Fatalf("compartment resets = %d, want 0 after a network failure", drafts.resets)
	}

	// Confirm the user again, then have the credentials refused.
	authAPI.mu.Lock()
	authAPI.profileErr = nil
	authAPI.mu.Unlock()
	c.CheckStatus(ctx, true)
	authAPI.mu.Lock()
	authAPI.profileErr = &api.AuthError{Status: 401, Message: "Session expired"}
	authAPI.mu.Unlock()
	c.CheckStatus(ctx, true)
	if drafts.resets != 1 {
		t.Fatalf("compartment resets = %d, want 1 after the credentials were refused", drafts.resets)
	}
}

func TestFailedLoginRestoresPriorCredentials(t *testing.T) {
	store := signedInStore(t)
	authAPI := &fakeAuthAPI{user: &models.User{UID: "u-a"}}
	c, _ := newTestCache(t, authAPI, store)
	ctx := context.Background()
	if st := c.CheckStatus(ctx, false); !st.Authenticated {
		t.Fatalf("status = %+v, want authenticated u-a", st)
	}

	// Tokens without a user force a profile fetch, which fails.
	authAPI.mu.Lock()
	authAPI.loginResp = &models.AuthResponse{AccessToken: "a-2", RefreshToken: "r-2"}
	authAPI.profileErr = &api.NetworkError{Op: "profile", Err: errors.New("timeout")}
	authAPI.mu.Unlock()

	if _, err := c.Login(ctx, "b@example.com", "secret"); err == nil {
		t.Fatal("Login succeeded, want error")
	}
	creds, _ := store.Load(ctx)
	if creds.AccessToken != "access" || creds.RefreshToken != "refresh" || !creds.Authenticated {
		t.Fatalf("stored credentials = %+v, want the prior session's", creds)
	}

	authAPI.mu.Lock()
	authAPI.profileErr = nil
	authAPI.mu.Unlock()
	if st := c.CheckStatus(ctx, true); !st.Authenticated || st.User.UID != "u-a" {
		t.Fatalf("status = %+v, want authenticated u-a", st)
	}
}

func TestFailedLoginWithoutPriorSessionLeavesStoreEmpty(t *testing.T) {
	store := credentials.NewMemoryStore()
	authAPI := &fakeAuthAPI{
		loginResp:  &models.AuthResponse{AccessToken: "a-2", RefreshToken: "r-2"},
		profileErr: &api.AuthError{Status: 401, Message: "Could not validate credentials"},
	}
	c, _ := newTestCache(t, authAPI, store)
	ctx := context.Background()

	if _, err := c.Login(ctx, "b@example.com", "secret"); !api.IsAuth(err) {
		t.Fatalf("err = %v, want auth error", err)
	}
	if creds, _ := store.Load(ctx); creds.Present() || creds.AccessToken != "" {
		t.Fatalf("stored credentials = %+v, want empty", creds)
	}
}

func TestCompartmentsListedInRegistrationOrder(t *testing.T) {
	c, _ := newTestCache(t, &fakeAuthAPI{}, credentials.NewMemoryStore())
	c.RegisterCompartment(&recordingCompartment{name: "booking-drafts"})
	c.RegisterCompartment(&recordingCompartment{name: "promo-results"})
	if got := c.Compartments(); !reflect.DeepEqual(got, []string{"booking-drafts", "promo-results"}) {
		t.Fatalf("Compartments = %v", got)
	}
}

func TestClearedCredentialsResetAfterUnconfirmedCheck(t *testing.T) {
	authAPI := &fakeAuthAPI{user: &models.User{UID: "u-1"}}
	store := signedInStore(t)
	c, _ := newTestCache(t, authAPI, store)
	drafts := &recordingCompartment{name: "booking-drafts"}
	c.RegisterCompartment(drafts)
	ctx := context.Background()

	c.CheckStatus(ctx, false)
	authAPI.mu.Lock()
	authAPI.profileErr = &api.NetworkError{Op: "profile", Err: errors.New("connection reset")}
	authAPI.mu.Unlock()
	c.CheckStatus(ctx, true)

	_ = store.Clear(ctx)
	c.CheckStatus(ctx, true)
	if drafts.resets != 1 {
		t.Fatalf("compartment resets = %d, want 1", drafts.resets)
	}
}

func TestLoginAsDifferentUserResetsCompartments(t *testing.T) {
	authAPI := &fakeAuthAPI{user: &models.User{UID: "u-a"}}
	c, _ := newTestCache(t, authAPI, signedInStore(t))
	drafts := &recordingCompartment{name: "booking-drafts"}
	c.RegisterCompartment(drafts)
	ctx := context.Background()
	c.CheckStatus(ctx, false)

	authAPI.mu.Lock()
	authAPI.loginResp = &models.AuthResponse{AccessToken: "a-2", RefreshToken: "r-2", User: &models.User{UID: "u-b"}}
	authAPI.mu.Unlock()
	if _, err := c.Login(ctx, "b@example.com", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if drafts.resets != 1 {
		t.Fatalf("compartment resets = %d, want 1", drafts.resets)
	}
}
