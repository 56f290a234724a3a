package gate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(connID, userID string) *Client {
	c := NewClient(connID, nil, 16)
	if userID != "" {
		c.SetUser(userID)
	}
	return c
}

func TestRegistrySingleConnectionInvariant(t *testing.T) {
	reg := NewRegistry()

	first := newTestClient("c1", "u5")
	second := newTestClient("c2", "u5")

	require.Nil(t, reg.Register("u5", first))
	evicted := reg.Register("u5", second)

	require.Same(t, first, evicted)
	require.Equal(t, 1, reg.Len())

	got, ok := reg.Lookup("u5")
	require.True(t, ok)
	require.Same(t, second, got)

	// The earlier handle must no longer resolve.
	_, ok = reg.ByConnID("c1")
	require.False(t, ok)
}

func TestRegistryReRegisterSameConnIsNotEviction(t *testing.T) {
	reg := NewRegistry()
	c := newTestClient("c1", "u5")

	require.Nil(t, reg.Register("u5", c))
	require.Nil(t, reg.Register("u5", c))
	require.Equal(t, 1, reg.Len())
}

func TestRegistryUnregister(t *testing.T) {
	reg := NewRegistry()
	c := newTestClient("c1", "u5")
	reg.Register("u5", c)

	reg.Unregister("c1")
	require.False(t, reg.IsConnected("u5"))
	require.Equal(t, 0, reg.Len())

	// Absent handle is a no-op.
	reg.Unregister("c1")
	reg.Unregister("never-existed")
}

func TestRegistryUnregisterOldConnKeepsNewMapping(t *testing.T) {
	reg := NewRegistry()
	old := newTestClient("c1", "u5")
	neo := newTestClient("c2", "u5")

	reg.Register("u5", old)
	reg.Register("u5", neo)

	// The superseded transport closes later; its unregister must not
	// drop the newer mapping.
	reg.Unregister("c1")
	got, ok := reg.Lookup("u5")
	require.True(t, ok)
	require.Same(t, neo, got)
}

func TestRegistrySnapshotAndUsers(t *testing.T) {
	reg := NewRegistry()
	reg.Register("u1", newTestClient("c1", "u1"))
	reg.Register("u2", newTestClient("c2", "u2"))

	require.Len(t, reg.Snapshot(), 2)
	require.ElementsMatch(t, []string{"u1", "u2"}, reg.ConnectedUsers())
}
