// File: utils/constants.go
package utils

import "time"

// SessionCheckWindow is how long a completed authentication check is reused
// before the next non-forced check goes back to the network.
const SessionCheckWindow = 30 * time.Second

// CredentialDebounce collapses bursts of cross-tab credential change
// notifications into a single forced re-check.
const CredentialDebounce = 100 * time.Millisecond

// Credential storage keys, shared by every tab of the storefront.
const (
	AccessTokenKey     = "access_token"
	RefreshTokenKey    = "refresh_token"
	IsAuthenticatedKey = "isAuthenticated"
)

// CredentialChannelSuffix is appended to the credential namespace to name the
// pub/sub channel carrying change notifications.
const CredentialChannelSuffix = ":credentials:changed"
