package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStorageKey_Authenticated(t *testing.T) {
	id := Authenticated("u1")
	require.False(t, id.IsGuest())
	require.Equal(t, "favorites_u1", id.StorageKey("favorites"))
	require.Equal(t, "reservations_u1", id.StorageKey("reservations"))
}

func TestStorageKey_Guest(t *testing.T) {
	require.True(t, Guest.IsGuest())
	require.Equal(t, "favorites_guest", Guest.StorageKey("favorites"))
}

func TestAuthenticated_EmptyIDIsGuest(t *testing.T) {
	id := Authenticated("")
	require.True(t, id.IsGuest())
	require.Equal(t, "favorites_guest", id.StorageKey("favorites"))
}

func TestZeroValueIsGuest(t *testing.T) {
	var id Identity
	require.True(t, id.IsGuest())
}
