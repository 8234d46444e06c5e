/*
 * file: client_actions.go
 * package: services
 * description:
 *     The request handlers a connection's dispatcher calls into: invite,
 *     revoke, decline, accept, move, resign. Each validates invitation
 *     ownership before touching shared state (MakeInvitation also checks
 *     that both sides are logged in; the others rely on the dispatcher's
 *     login check), and enqueues the notification frames its counterpart
 *     client observes.
 */

package services

import (
	"github.com/juan10024/jeux-server/internal/adapters/wire"
	"github.com/juan10024/jeux-server/internal/apperr"
	"github.com/juan10024/jeux-server/internal/core/domain"
)

// MakeInvitation invites target to a game in which the caller plays
// sourceRole and target plays targetRole. Returns the local id the
// caller should use to refer to the new invitation.
func (c *Client) MakeInvitation(target *Client, sourceRole, targetRole domain.Role) (byte, error) {
	if c.Player() == nil || target.Player() == nil {
		return 0, apperr.New("client.MakeInvitation", apperr.IllegalState)
	}
	if c == target {
		return 0, apperr.New("client.MakeInvitation", apperr.IllegalState)
	}
	inv, err := NewInvitation(nextInvitationID(), c, target, sourceRole, targetRole)
	if err != nil {
		return 0, err
	}
	sourceLocal := c.addInvitation(inv)
	targetLocal := target.addInvitation(inv)

	payload := []byte(c.Player().Name())
	target.enqueue(wire.Frame{
		Header:  wire.Header{Type: wire.TypeInvited, ID: targetLocal, Role: byte(targetRole)},
		Payload: payload,
	})
	if c.OnInvitationOpened != nil {
		c.OnInvitationOpened()
	}
	c.log.Info().
		Uint64("invitation_id", inv.ID).
		Str("target", target.Player().Name()).
		Str("source_role", sourceRole.String()).
		Msg("invitation created")
	return sourceLocal, nil
}

// RevokeInvitation withdraws an invitation the caller sent, localID is
// expressed in the caller's own invitation namespace. Fails unless the
// invitation is still OPEN and the caller is its source.
func (c *Client) RevokeInvitation(localID byte) error {
	inv, ok := c.findInvitation(localID)
	if !ok {
		return apperr.New("client.RevokeInvitation", apperr.NotFound)
	}
	if inv.Source != c {
		return apperr.New("client.RevokeInvitation", apperr.IllegalState)
	}
	if err := inv.Close(domain.RoleNone); err != nil {
		return err
	}
	tLocal, tOk := inv.Target.localIDOf(inv)
	removeInvitation(inv.Source, inv)
	removeInvitation(inv.Target, inv)
	if tOk {
		notifyRevoked(inv.Target, tLocal)
	}
	if c.OnInvitationClosed != nil {
		c.OnInvitationClosed()
	}
	c.log.Info().Uint64("invitation_id", inv.ID).Msg("invitation revoked")
	return nil
}

// DeclineInvitation rejects an invitation the caller received.
func (c *Client) DeclineInvitation(localID byte) error {
	inv, ok := c.findInvitation(localID)
	if !ok {
		return apperr.New("client.DeclineInvitation", apperr.NotFound)
	}
	if inv.Target != c {
		return apperr.New("client.DeclineInvitation", apperr.IllegalState)
	}
	if err := inv.Close(domain.RoleNone); err != nil {
		return err
	}
	sLocal, sOk := inv.Source.localIDOf(inv)
	removeInvitation(inv.Source, inv)
	removeInvitation(inv.Target, inv)
	if sOk {
		notifyDeclined(inv.Source, sLocal)
	}
	if inv.Source.OnInvitationClosed != nil {
		inv.Source.OnInvitationClosed()
	}
	c.log.Info().Uint64("invitation_id", inv.ID).Msg("invitation declined")
	return nil
}

// AcceptInvitation accepts an invitation the caller received, starting a
// game. Returns the initial board rendering when the caller moves first,
// and "" when the source moves first (the source then receives the
// rendering in its ACCEPTED frame).
func (c *Client) AcceptInvitation(localID byte) (string, error) {
	inv, ok := c.findInvitation(localID)
	if !ok {
		return "", apperr.New("client.AcceptInvitation", apperr.NotFound)
	}
	if inv.Target != c {
		return "", apperr.New("client.AcceptInvitation", apperr.IllegalState)
	}
	if err := inv.Accept(c.engine); err != nil {
		return "", err
	}
	g := inv.Game()
	sourceLocal, _ := inv.Source.localIDOf(inv)
	acceptedFrame := wire.Frame{
		Header: wire.Header{Type: wire.TypeAccepted, ID: sourceLocal, Role: byte(inv.SourceRole)},
	}
	if inv.SourceRole == domain.RoleFirst {
		acceptedFrame.Payload = []byte(g.UnparseState())
	}
	inv.Source.enqueue(acceptedFrame)
	if inv.Source.OnInvitationClosed != nil {
		inv.Source.OnInvitationClosed()
	}
	c.log.Info().
		Uint64("invitation_id", inv.ID).
		Str("opponent", inv.Source.Player().Name()).
		Msg("invitation accepted, game started")

	if inv.TargetRole == domain.RoleFirst {
		return g.UnparseState(), nil
	}
	return "", nil
}

// MakeMove applies a move to the game hosted by the invitation named by
// localID, from the caller's perspective, and notifies the opponent.
func (c *Client) MakeMove(localID byte, text string) error {
	inv, ok := c.findInvitation(localID)
	if !ok {
		return apperr.New("client.MakeMove", apperr.NotFound)
	}
	role := inv.RoleOf(c)
	if role == domain.RoleNone {
		return apperr.New("client.MakeMove", apperr.IllegalState)
	}
	g := inv.Game()
	if g == nil {
		return apperr.New("client.MakeMove", apperr.IllegalState)
	}
	move, err := g.ParseMove(role, text)
	if err != nil {
		return err
	}
	if err := g.ApplyMove(role, move); err != nil {
		return err
	}

	opponent, opponentLocal := opponentOf(inv, c)
	opponent.enqueue(wire.Frame{
		Header:  wire.Header{Type: wire.TypeMoved, ID: opponentLocal, Role: byte(role)},
		Payload: []byte(g.UnparseState()),
	})
	c.log.Debug().
		Uint64("invitation_id", inv.ID).
		Str("role", role.String()).
		Str("move", text).
		Msg("move applied")

	if g.IsOver() {
		c.finishGame(inv)
	}
	return nil
}

// ResignGame concedes the game hosted by the invitation named by
// localID, ending it in the opponent's favor. Unlike a game ended by a
// move, a voluntary resignation notifies only the opponent, with
// RESIGNED rather than ENDED.
func (c *Client) ResignGame(localID byte) error {
	inv, ok := c.findInvitation(localID)
	if !ok {
		return apperr.New("client.ResignGame", apperr.NotFound)
	}
	role := inv.RoleOf(c)
	if role == domain.RoleNone {
		return apperr.New("client.ResignGame", apperr.IllegalState)
	}
	g := inv.Game()
	if g == nil {
		return apperr.New("client.ResignGame", apperr.IllegalState)
	}
	if err := g.Resign(role); err != nil {
		return err
	}

	opponent, opponentLocal := opponentOf(inv, c)
	_ = inv.Close(domain.RoleNone)
	removeInvitation(inv.Source, inv)
	removeInvitation(inv.Target, inv)

	notifyResigned(opponent, opponentLocal)
	postGameRating(inv)
	if c.OnGameEnded != nil {
		c.OnGameEnded()
	}
	c.log.Info().Uint64("invitation_id", inv.ID).Msg("game resigned")
	return nil
}

// finishGame notifies both ends of a concluded game with the winning
// role (or the draw sentinel), closes the invitation, removes it from
// both clients' lists, and posts the rating update. Caller must already
// know g.IsOver().
func (c *Client) finishGame(inv *Invitation) {
	opponent, opponentLocal := opponentOf(inv, c)
	selfLocal, _ := c.localIDOf(inv)
	winningRole := byte(outcomeRole(inv.Game().Winner()))

	_ = inv.Close(domain.RoleNone)
	removeInvitation(inv.Source, inv)
	removeInvitation(inv.Target, inv)

	opponent.enqueue(wire.Frame{Header: wire.Header{Type: wire.TypeEnded, ID: opponentLocal, Role: winningRole}})
	c.enqueue(wire.Frame{Header: wire.Header{Type: wire.TypeEnded, ID: selfLocal, Role: winningRole}})

	postGameRating(inv)
	if c.OnGameEnded != nil {
		c.OnGameEnded()
	}
	c.log.Info().
		Uint64("invitation_id", inv.ID).
		Str("outcome", domain.Role(winningRole).String()).
		Msg("game ended")
}

// outcomeRole maps a completed game's Outcome to the Role that appears
// in the ENDED frame's header: the winning role, or domain.RoleNone as
// the draw sentinel.
func outcomeRole(o domain.Outcome) domain.Role {
	switch o {
	case domain.OutcomeFirstWins:
		return domain.RoleFirst
	case domain.OutcomeSecondWins:
		return domain.RoleSecond
	default:
		return domain.RoleNone
	}
}
