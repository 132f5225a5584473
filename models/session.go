package models

import "time"

// Credentials are the values held in storage shared by every tab.
type Credentials struct {
	AccessToken   string `json:"access_token"`
	RefreshToken  string `json:"refresh_token"`
	Authenticated bool   `json:"isAuthenticated"`
}

// Present reports whether the credentials can be used for an authenticated call.
func (c Credentials) Present() bool {
	return c.Authenticated && c.AccessToken != ""
}

// Session is the memoized authentication state of one storefront process.
type Session struct {
	TokenPresent  bool      `json:"tokenPresent"`
	User          *User     `json:"user"`
	LastCheck     time.Time `json:"lastCheck"`
	Authenticated bool      `json:"authenticated"`
}

// Status is the verdict handed to consumers of the session cache.
type Status struct {
	Authenticated bool  `json:"authenticated"`
	User          *User `json:"user"`
}

// Status derives the consumer view; authenticated is always user != nil.
func (s Session) Status() Status {
	if s.User == nil {
		return Status{}
	}
	u := *s.User
	return Status{Authenticated: true, User: &u}
}
