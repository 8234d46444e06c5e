package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juan10024/jeux-server/internal/adapters/wire"
	"github.com/juan10024/jeux-server/internal/apperr"
	"github.com/juan10024/jeux-server/internal/core/domain"
	"github.com/juan10024/jeux-server/internal/core/services"
)

func loginAs(t *testing.T, players *services.PlayerRegistry, c *services.Client, name string) {
	t.Helper()
	require.NoError(t, c.Login(players.RegisterOrGet(name)))
}

func TestFullGameLifecycleInviteAcceptMoveEnd(t *testing.T) {
	players := services.NewPlayerRegistry()
	alice := newTestClient(t)
	bob := newTestClient(t)
	loginAs(t, players, alice, "alice")
	loginAs(t, players, bob, "bob")

	sourceLocal, err := alice.MakeInvitation(bob, domain.RoleFirst, domain.RoleSecond)
	require.NoError(t, err)

	invited := <-bob.Outbound()
	require.Equal(t, byte(domain.RoleSecond), invited.Header.Role)
	targetLocal := invited.Header.ID

	_, err = bob.AcceptInvitation(targetLocal)
	require.NoError(t, err)

	accepted := <-alice.Outbound()
	assert.Equal(t, sourceLocal, accepted.Header.ID)

	// alice (first player) wins by filling the top row, 1-2-3.
	require.NoError(t, alice.MakeMove(sourceLocal, "1"))
	<-bob.Outbound() // MOVED
	require.NoError(t, bob.MakeMove(targetLocal, "4"))
	<-alice.Outbound() // MOVED
	require.NoError(t, alice.MakeMove(sourceLocal, "2"))
	<-bob.Outbound()
	require.NoError(t, bob.MakeMove(targetLocal, "5"))
	<-alice.Outbound()
	require.NoError(t, alice.MakeMove(sourceLocal, "3"))

	<-bob.Outbound() // final MOVED
	assert.Equal(t, wire.TypeEnded, (<-bob.Outbound()).Header.Type)
	assert.Equal(t, wire.TypeEnded, (<-alice.Outbound()).Header.Type)

	bobRating := bob.Player().Rating()
	aliceRating := alice.Player().Rating()
	assert.Greater(t, aliceRating, 1500)
	assert.Less(t, bobRating, 1500)
}

func TestRevokeOnlyAllowedBySource(t *testing.T) {
	players := services.NewPlayerRegistry()
	alice := newTestClient(t)
	bob := newTestClient(t)
	loginAs(t, players, alice, "alice")
	loginAs(t, players, bob, "bob")

	sourceLocal, err := alice.MakeInvitation(bob, domain.RoleFirst, domain.RoleSecond)
	require.NoError(t, err)
	<-bob.Outbound()

	err = bob.RevokeInvitation(sourceLocal)
	assert.Error(t, err)
}

func TestRevokeNotifiesTargetWithTargetsLocalID(t *testing.T) {
	players := services.NewPlayerRegistry()
	alice := newTestClient(t)
	bob := newTestClient(t)
	loginAs(t, players, alice, "alice")
	loginAs(t, players, bob, "bob")

	sourceLocal, err := alice.MakeInvitation(bob, domain.RoleFirst, domain.RoleSecond)
	require.NoError(t, err)
	invited := <-bob.Outbound()

	require.NoError(t, alice.RevokeInvitation(sourceLocal))
	revoked := <-bob.Outbound()
	assert.Equal(t, wire.TypeRevoked, revoked.Header.Type)
	assert.Equal(t, invited.Header.ID, revoked.Header.ID)
}

func TestDeclineNotifiesSource(t *testing.T) {
	players := services.NewPlayerRegistry()
	alice := newTestClient(t)
	bob := newTestClient(t)
	loginAs(t, players, alice, "alice")
	loginAs(t, players, bob, "bob")

	_, err := alice.MakeInvitation(bob, domain.RoleFirst, domain.RoleSecond)
	require.NoError(t, err)
	invited := <-bob.Outbound()

	require.NoError(t, bob.DeclineInvitation(invited.Header.ID))
	declined := <-alice.Outbound()
	assert.Equal(t, byte(0), byte(len(declined.Payload))) // no payload on DECLINED
}

func TestMakeMoveFailsForUnknownInvitation(t *testing.T) {
	players := services.NewPlayerRegistry()
	alice := newTestClient(t)
	loginAs(t, players, alice, "alice")

	err := alice.MakeMove(99, "1")
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestResignSendsResignedNotEndedAndUpdatesRatings(t *testing.T) {
	players := services.NewPlayerRegistry()
	alice := newTestClient(t)
	bob := newTestClient(t)
	loginAs(t, players, alice, "alice")
	loginAs(t, players, bob, "bob")

	sourceLocal, err := alice.MakeInvitation(bob, domain.RoleFirst, domain.RoleSecond)
	require.NoError(t, err)
	invited := <-bob.Outbound()
	_, err = bob.AcceptInvitation(invited.Header.ID)
	require.NoError(t, err)
	<-alice.Outbound() // ACCEPTED

	require.NoError(t, alice.ResignGame(sourceLocal))

	resigned := <-bob.Outbound()
	assert.Equal(t, wire.TypeResigned, resigned.Header.Type)
	assert.Equal(t, invited.Header.ID, resigned.Header.ID)

	assert.Less(t, alice.Player().Rating(), 1500)
	assert.Greater(t, bob.Player().Rating(), 1500)

	// The invitation is gone from both local-id namespaces.
	assert.Error(t, alice.MakeMove(sourceLocal, "1"))
	assert.Error(t, bob.MakeMove(invited.Header.ID, "1"))
}

func TestLogoutCascadesRevokesOpenInvitationAndResignsLiveGame(t *testing.T) {
	players := services.NewPlayerRegistry()
	alice := newTestClient(t)
	bob := newTestClient(t)
	carol := newTestClient(t)
	loginAs(t, players, alice, "alice")
	loginAs(t, players, bob, "bob")
	loginAs(t, players, carol, "carol")

	// Alice is the source of an OPEN invitation to bob...
	_, err := alice.MakeInvitation(bob, domain.RoleFirst, domain.RoleSecond)
	require.NoError(t, err)
	<-bob.Outbound() // INVITED

	// ...and in an ACCEPTED game with carol.
	_, err = alice.MakeInvitation(carol, domain.RoleFirst, domain.RoleSecond)
	require.NoError(t, err)
	invitedCarol := <-carol.Outbound()
	_, err = carol.AcceptInvitation(invitedCarol.Header.ID)
	require.NoError(t, err)
	<-alice.Outbound() // ACCEPTED

	alice.Logout()

	revoked := <-bob.Outbound()
	assert.Equal(t, wire.TypeRevoked, revoked.Header.Type)

	resigned := <-carol.Outbound()
	assert.Equal(t, wire.TypeResigned, resigned.Header.Type)
	assert.Equal(t, invitedCarol.Header.ID, resigned.Header.ID)

	assert.Greater(t, carol.Player().Rating(), 1500)
	assert.Nil(t, alice.Player())
}
