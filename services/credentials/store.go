package credentials

import (
	"context"

	"travelstore/models"
)

// Change announces that some tab rewrote the shared credentials.
type Change struct {
	Origin string `json:"origin"`
}

// Store is credential storage shared by every tab of the storefront. Writes
// by one tab are announced to the watchers of every other tab.
type Store interface {
	// Origin identifies this tab; changes it makes carry this value.
	Origin() string
	Load(ctx context.Context) (models.Credentials, error)
	Save(ctx context.Context, creds models.Credentials) error
	Clear(ctx context.Context) error
	// Watch calls fn for every change until the returned stop is called or ctx ends.
	Watch(ctx context.Context, fn func(Change)) (stop func(), err error)
}
