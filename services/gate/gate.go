package gate

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"travelstore/services/api"
	"travelstore/services/session"
	"travelstore/utils"

	"go.uber.org/zap"
)

// State of a guarded region.
type State int

const (
	StateLoading State = iota
	StateAuthenticated
	StateUnauthenticated
	StatePromptShown
	StateRedirecting
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	case StatePromptShown:
		return "prompt"
	case StateRedirecting:
		return "redirecting"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// DefaultReason is shown when the guarded region names none.
const DefaultReason = "You need to login to access this page"

// ErrNoPrompt is returned by Continue and Cancel when no prompt is shown.
var ErrNoPrompt = errors.New("no login prompt is shown")

// Prompt is the interception offered to an unauthenticated user.
type Prompt struct {
	Reason string `json:"reason"`
	// LoginURL continues to login and comes back to the guarded location.
	LoginURL string `json:"loginUrl"`
	// CancelURL returns to where the user came from.
	CancelURL string `json:"cancelUrl"`
}

// View is what the guarded region renders: a loading placeholder, the
// prompt, or the guarded content.
type View struct {
	State  State   `json:"-"`
	Name   string  `json:"state"`
	Prompt *Prompt `json:"prompt,omitempty"`
	// Target is where to navigate once Redirecting or Cancelled.
	Target string `json:"target,omitempty"`
}

// Options configures a Gate.
type Options struct {
	Reason    string
	LoginPath string
	Logger    *zap.Logger
}

// Gate guards one region. It subscribes to the "authorization required"
// signal when constructed and unsubscribes on Close, so a rejection
// anywhere in the process re-engages the prompt without polling.
type Gate struct {
	sessions  session.StatusChecker
	reason    string
	loginPath string
	logger    *zap.Logger

	mu       sync.Mutex
	state    State
	location string
	previous string
	prompt   *Prompt
	target   string

	unsubscribe func()
}

// New returns a gate in the Loading state, subscribed to signal.
func New(sessions session.StatusChecker, signal *api.AuthSignal, opts Options) *Gate {
	if opts.Reason == "" {
		opts.Reason = DefaultReason
	}
	if opts.LoginPath == "" {
		opts.LoginPath = "/auth/login"
	}
	g := &Gate{
		sessions:  sessions,
		reason:    opts.Reason,
		loginPath: opts.LoginPath,
		logger:    utils.OrNop(opts.Logger),
		state:     StateLoading,
		previous:  "/",
	}
	if signal != nil {
		g.unsubscribe = signal.Subscribe(g.onAuthRequired)
	}
	return g
}

// Close unsubscribes from the signal. It is safe to call more than once.
func (g *Gate) Close() {
	g.mu.Lock()
	unsubscribe := g.unsubscribe
	g.unsubscribe = nil
	g.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Resolve runs the session check for a visit to location, coming from
// previous (empty means "/"), and returns the resulting view.
func (g *Gate) Resolve(ctx context.Context, location, previous string) View {
	g.mu.Lock()
	g.location = location
	if previous != "" {
		g.previous = previous
	}
	g.state = StateLoading
	g.prompt = nil
	g.target = ""
	g.mu.Unlock()

	st := g.sessions.CheckStatus(ctx, false)

	g.mu.Lock()
	defer g.mu.Unlock()
	// A broadcast that arrived during the check wins over a cached verdict.
	if g.state != StateLoading {
		return g.viewLocked()
	}
	if st.Authenticated {
		g.state = StateAuthenticated
	} else {
		g.state = StateUnauthenticated
		g.showPromptLocked(g.reason)
	}
	return g.viewLocked()
}

// View returns the current view without checking the session.
func (g *Gate) View() View {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.viewLocked()
}

// Continue leaves the prompt for the login page.
func (g *Gate) Continue() (View, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StatePromptShown {
		return g.viewLocked(), ErrNoPrompt
	}
	g.state = StateRedirecting
	g.target = g.prompt.LoginURL
	return g.viewLocked(), nil
}

// Cancel dismisses the prompt and returns to the previous location.
func (g *Gate) Cancel() (View, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StatePromptShown {
		return g.viewLocked(), ErrNoPrompt
	}
	g.state = StateCancelled
	g.target = g.prompt.CancelURL
	return g.viewLocked(), nil
}

func (g *Gate) onAuthRequired(n api.Notice) {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch g.state {
	case StateRedirecting, StateCancelled:
		return
	}
	g.logger.Info("authorization required", zap.String("location", g.location), zap.String("message", n.Message))
	g.state = StateUnauthenticated
	reason := n.Message
	if reason == "" {
		reason = g.reason
	}
	g.showPromptLocked(reason)
}

func (g *Gate) showPromptLocked(reason string) {
	login := g.loginPath
	if g.location != "" {
		login += "?return=" + url.QueryEscape(g.location)
	}
	g.prompt = &Prompt{Reason: reason, LoginURL: login, CancelURL: g.previous}
	g.state = StatePromptShown
}

func (g *Gate) viewLocked() View {
	v := View{State: g.state, Name: g.state.String(), Target: g.target}
	if g.prompt != nil && g.state != StateAuthenticated {
		p := *g.prompt
		v.Prompt = &p
	}
	return v
}
