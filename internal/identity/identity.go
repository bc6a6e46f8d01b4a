// Package identity defines the per-user namespace that scopes every
// client-side store. An Identity is either an authenticated user id or the
// fixed guest marker; it is supplied to stores by the caller, never read
// from ambient state.
package identity

const guestSuffix = "guest"

// Identity scopes storage keys to a signed-in user or to the shared guest
// namespace. The zero value is Guest.
type Identity struct {
	userID string
}

// Guest is the identity used when no user is signed in.
var Guest = Identity{}

// Authenticated returns the identity for a signed-in user. An empty id
// degrades to Guest so a missing user can never alias a real account.
func Authenticated(userID string) Identity {
	return Identity{userID: userID}
}

// IsGuest reports whether the identity is the guest namespace.
func (id Identity) IsGuest() bool {
	return id.userID == ""
}

// UserID returns the authenticated user id, or "" for Guest.
func (id Identity) UserID() string {
	return id.userID
}

// StorageKey builds the durable key for a store base name:
// "<base>_<userId>" when authenticated, "<base>_guest" otherwise.
func (id Identity) StorageKey(base string) string {
	if id.IsGuest() {
		return base + "_" + guestSuffix
	}
	return base + "_" + id.userID
}
