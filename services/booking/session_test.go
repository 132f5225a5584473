package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"travelstore/models"
	"travelstore/services/api"
	"travelstore/services/credentials"
	"travelstore/services/session"
	"travelstore/utils"
)

// profileAuth answers profile fetches with user, or with err when set.
type profileAuth struct {
	mu   sync.Mutex
	user *models.User
	err  error
}

func (p *profileAuth) set(user *models.User, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.user, p.err = user, err
}

func (p *profileAuth) Profile(ctx context.Context) (*models.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	u := *p.user
	return &u, nil
}

func (p *profileAuth) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	return nil, errors.New("not used")
}

func (p *profileAuth) Register(ctx context.Context, req models.RegistrationRequest) (*models.AuthResponse, error) {
	return nil, errors.New("not used")
}

func (p *profileAuth) UpdateProfile(ctx context.Context, patch models.UserUpdateRequest) (*models.User, error) {
	return nil, errors.New("not used")
}

func (p *profileAuth) Logout(ctx context.Context) error { return nil }

func TestSessionRecheckKeepsDraftsUnlessCredentialsChange(t *testing.T) {
	tests := []struct {
		name      string
		user      *models.User
		err       error
		clear     bool
		wantDraft bool
	}{
		{name: "network failure", user: &models.User{UID: "u-1"}, err: &api.NetworkError{Op: "profile", Err: errors.New("connection reset")}, wantDraft: true},
		{name: "server failure", user: &models.User{UID: "u-1"}, err: &api.ServerError{Status: 503, Message: "unavailable"}, wantDraft: true},
		{name: "credentials refused", err: &api.AuthError{Status: 401, Message: "Session expired"}, wantDraft: false},
		{name: "credentials cleared", user: &models.User{UID: "u-1"}, clear: true, wantDraft: false},
		{name: "different user", user: &models.User{UID: "u-2"}, wantDraft: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := credentials.NewMemoryStore()
			if err := store.Save(ctx, models.Credentials{AccessToken: "a", RefreshToken: "r", Authenticated: true}); err != nil {
				t.Fatalf("Save: %v", err)
			}
			auth := &profileAuth{user: &models.User{UID: "u-1"}}
			clock := utils.NewManualClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
			sessions := session.NewCache(auth, store, session.Options{Window: 30 * time.Second, Clock: clock})

			bookings := &fakeBookings{}
			o := NewOrchestrator(sessions, newFakeValidator(), bookings, api.NewAuthSignal(), Options{Clock: clock})
			sessions.RegisterCompartment(o)

			if st := sessions.CheckStatus(ctx, false); !st.Authenticated {
				t.Fatalf("status = %+v, want authenticated", st)
			}
			id := openDraft(t, o, "")

			clock.Advance(31 * time.Second)
			auth.set(tt.user, tt.err)
			if tt.clear {
				_ = store.Clear(ctx)
			}

			_, err := o.Submit(ctx, id)
			_, getErr := o.Get(id)
			if tt.wantDraft {
				if getErr != nil {
					t.Fatalf("Get after submit: %v, want draft kept", getErr)
				}
				if !errors.Is(err, ErrLoginRequired) {
					t.Fatalf("Submit err = %v, want ErrLoginRequired", err)
				}
				if len(bookings.requests) != 0 {
					t.Fatalf("booking calls = %d, want 0", len(bookings.requests))
				}
				return
			}
			if !errors.Is(getErr, ErrDraftNotFound) {
				t.Fatalf("Get after submit: %v, want ErrDraftNotFound", getErr)
			}
			if len(bookings.requests) != 0 {
				t.Fatalf("booking calls = %d, want 0 for a reset draft", len(bookings.requests))
			}
		})
	}
}
