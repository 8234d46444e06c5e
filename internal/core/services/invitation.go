/*
 * file: invitation.go
 * package: services
 * description:
 *     Invitation state machine: OPEN -> ACCEPTED -> CLOSED, binding a
 *     source Client to a target Client and, once accepted, a Game.
 */

package services

import (
	"sync"

	"github.com/juan10024/jeux-server/internal/apperr"
	"github.com/juan10024/jeux-server/internal/core/domain"
	"github.com/juan10024/jeux-server/internal/core/ports"
)

// Invitation is jointly owned by both endpoints' LocalInvitation lists.
// Its own mutex guards the state-transition check-and-set so that two
// concurrent operations (e.g. a REVOKE racing an ACCEPT) never both
// succeed.
type Invitation struct {
	mu sync.Mutex

	ID         uint64
	Source     *Client
	Target     *Client
	SourceRole domain.Role
	TargetRole domain.Role
	state      domain.InvitationState
	game       ports.Game
}

// NewInvitation creates an OPEN invitation. source and target must
// differ and sourceRole/targetRole must be the two distinct roles.
func NewInvitation(id uint64, source, target *Client, sourceRole, targetRole domain.Role) (*Invitation, error) {
	if source == target {
		return nil, apperr.New("invitation.New", apperr.IllegalState)
	}
	if sourceRole == targetRole || sourceRole == domain.RoleNone || targetRole == domain.RoleNone {
		return nil, apperr.New("invitation.New", apperr.IllegalState)
	}
	return &Invitation{
		ID:         id,
		Source:     source,
		Target:     target,
		SourceRole: sourceRole,
		TargetRole: targetRole,
		state:      domain.StateOpen,
	}, nil
}

// State returns the invitation's current state.
func (inv *Invitation) State() domain.InvitationState {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.state
}

// Game returns the invitation's game, or nil if none exists yet.
func (inv *Invitation) Game() ports.Game {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.game
}

// RoleOf returns the role the given client plays in this invitation, or
// domain.RoleNone if the client is not a party to it.
func (inv *Invitation) RoleOf(c *Client) domain.Role {
	switch c {
	case inv.Source:
		return inv.SourceRole
	case inv.Target:
		return inv.TargetRole
	default:
		return domain.RoleNone
	}
}

// Accept transitions OPEN -> ACCEPTED and creates a Game via engine.
// Fails if the invitation is not OPEN.
func (inv *Invitation) Accept(engine ports.Engine) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.state != domain.StateOpen {
		return apperr.New("invitation.Accept", apperr.IllegalState)
	}
	inv.game = engine.Create()
	inv.state = domain.StateAccepted
	return nil
}

// Close transitions OPEN or ACCEPTED -> CLOSED. If a game is in progress
// and role is not domain.RoleNone, the game is resigned under role
// first; callers use this to fold "close while a game is live" into a
// single check-then-set under the invitation's lock.
func (inv *Invitation) Close(role domain.Role) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.state == domain.StateClosed {
		return apperr.New("invitation.Close", apperr.IllegalState)
	}
	if inv.game != nil && !inv.game.IsOver() && role != domain.RoleNone {
		_ = inv.game.Resign(role)
	}
	inv.state = domain.StateClosed
	return nil
}
