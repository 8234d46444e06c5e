package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juan10024/jeux-server/internal/apperr"
	"github.com/juan10024/jeux-server/internal/core/services"
)

func TestClientRegistryRejectsBeyondCapacity(t *testing.T) {
	reg := services.NewClientRegistry(1, zerolog.Nop())
	c1 := newTestClient(t)
	c2 := newTestClient(t)

	require.NoError(t, reg.Register(c1))
	err := reg.Register(c2)
	require.Error(t, err)
	assert.Equal(t, apperr.CapacityExceeded, apperr.KindOf(err))
}

func TestClientRegistryUnregisterFreesCapacity(t *testing.T) {
	reg := services.NewClientRegistry(1, zerolog.Nop())
	c1 := newTestClient(t)
	c2 := newTestClient(t)

	require.NoError(t, reg.Register(c1))
	reg.Unregister(c1)
	assert.NoError(t, reg.Register(c2))
}

func TestClientRegistryLookupByUsername(t *testing.T) {
	reg := services.NewClientRegistry(4, zerolog.Nop())
	players := services.NewPlayerRegistry()
	c := newTestClient(t)
	require.NoError(t, reg.Register(c))
	require.NoError(t, c.Login(players.RegisterOrGet("alice")))

	found, ok := reg.LookupByUsername("alice")
	require.True(t, ok)
	assert.Same(t, c, found)

	_, ok = reg.LookupByUsername("nobody")
	assert.False(t, ok)
}

func TestClientRegistryListPlayerNamesIsSorted(t *testing.T) {
	reg := services.NewClientRegistry(4, zerolog.Nop())
	players := services.NewPlayerRegistry()
	c1, c2 := newTestClient(t), newTestClient(t)
	require.NoError(t, reg.Register(c1))
	require.NoError(t, reg.Register(c2))
	require.NoError(t, c1.Login(players.RegisterOrGet("bob")))
	require.NoError(t, c2.Login(players.RegisterOrGet("alice")))

	assert.Equal(t, []string{"alice", "bob"}, reg.ListPlayerNames())
}

func TestListPlayersIncludesRatingsSortedByName(t *testing.T) {
	reg := services.NewClientRegistry(4, zerolog.Nop())
	players := services.NewPlayerRegistry()
	c1, c2 := newTestClient(t), newTestClient(t)
	require.NoError(t, reg.Register(c1))
	require.NoError(t, reg.Register(c2))
	require.NoError(t, c1.Login(players.RegisterOrGet("bob")))
	require.NoError(t, c2.Login(players.RegisterOrGet("alice")))

	got := reg.ListPlayers()
	require.Len(t, got, 2)
	assert.Equal(t, "alice", got[0].Name())
	assert.Equal(t, 1500, got[0].Rating())
	assert.Equal(t, "bob", got[1].Name())
}

func TestShutdownAllInvokesEveryClientsShutdownHook(t *testing.T) {
	reg := services.NewClientRegistry(4, zerolog.Nop())
	c1, c2 := newTestClient(t), newTestClient(t)
	var called1, called2 bool
	c1.Shutdown = func() { called1 = true }
	c2.Shutdown = func() { called2 = true }
	require.NoError(t, reg.Register(c1))
	require.NoError(t, reg.Register(c2))

	reg.ShutdownAll()

	assert.True(t, called1)
	assert.True(t, called2)
}

func TestWaitForEmptyReturnsOnceRegistryDrains(t *testing.T) {
	reg := services.NewClientRegistry(2, zerolog.Nop())
	c := newTestClient(t)
	require.NoError(t, reg.Register(c))

	go func() {
		time.Sleep(10 * time.Millisecond)
		reg.Unregister(c)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, reg.WaitForEmpty(ctx))
}
