/*
 * file: dispatcher.go
 * package: dispatcher
 * description:
 *     Maps an incoming frame's Type to a services.Client operation,
 *     enforcing that LOGIN is the only packet honored before login and
 *     the only one refused after it. The Go re-expression of the
 *     originating service loop's packet switch.
 */

package dispatcher

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/juan10024/jeux-server/internal/adapters/wire"
	"github.com/juan10024/jeux-server/internal/apperr"
	"github.com/juan10024/jeux-server/internal/core/domain"
	"github.com/juan10024/jeux-server/internal/core/services"
)

// Dispatcher wires the registries a Client needs to act on LOGIN, USERS,
// and INVITE requests, which name other players by username rather than
// by a handle already carried on the connection.
type Dispatcher struct {
	Players *services.PlayerRegistry
	Clients *services.ClientRegistry
	Log     zerolog.Logger

	// Observability hooks, all optional. Wired to the metrics package's
	// counters by the caller that assembles the Dispatcher.
	OnLogin       func()
	OnInvitation  func()
	OnGameStarted func()
}

func ack(id byte) wire.Frame  { return wire.Frame{Header: wire.Header{Type: wire.TypeAck, ID: id}} }
func ackWith(id byte, payload []byte) wire.Frame {
	return wire.Frame{Header: wire.Header{Type: wire.TypeAck, ID: id}, Payload: payload}
}
func nack(id byte) wire.Frame { return wire.Frame{Header: wire.Header{Type: wire.TypeNack, ID: id}} }

// reject logs err (kind, cause, and connection/player context) and
// returns the NACK the dispatcher sends in its place; every error-kind
// path in Handle is collapsed through here so none goes unlogged.
func (d *Dispatcher) reject(client *services.Client, op string, id byte, err error) wire.Frame {
	d.Log.Warn().
		Err(err).
		Uint64("client_id", client.ID).
		Str("conn_id", client.ConnUUID.String()).
		Str("op", op).
		Str("kind", apperr.KindOf(err).String()).
		Msg("request rejected")
	return nack(id)
}

// Handle processes one frame for client and returns the reply frame.
func (d *Dispatcher) Handle(ctx context.Context, client *services.Client, h wire.Header, payload []byte) wire.Frame {
	loggedIn := client.Player() != nil

	switch h.Type {
	case wire.TypeLogin:
		if loggedIn {
			return d.reject(client, "dispatcher.Login", h.ID, apperr.New("dispatcher.Login", apperr.IllegalState))
		}
		name := trimPayload(payload)
		if name == "" {
			return d.reject(client, "dispatcher.Login", h.ID, apperr.New("dispatcher.Login", apperr.IllegalState))
		}
		if _, exists := d.Clients.LookupByUsername(name); exists {
			return d.reject(client, "dispatcher.Login", h.ID, apperr.New("dispatcher.Login", apperr.Conflict))
		}
		player := d.Players.RegisterOrGet(name)
		if err := client.Login(player); err != nil {
			return d.reject(client, "dispatcher.Login", h.ID, err)
		}
		if d.OnLogin != nil {
			d.OnLogin()
		}
		return ack(h.ID)

	case wire.TypeUsers:
		if !loggedIn {
			return d.reject(client, "dispatcher.Users", h.ID, apperr.New("dispatcher.Users", apperr.IllegalState))
		}
		var sb strings.Builder
		for _, p := range d.Clients.ListPlayers() {
			sb.WriteString(p.Name())
			sb.WriteString("\t")
			sb.WriteString(strconv.Itoa(p.Rating()))
			sb.WriteString("\n")
		}
		return ackWith(h.ID, []byte(sb.String()))

	case wire.TypeInvite:
		if !loggedIn {
			return d.reject(client, "dispatcher.Invite", h.ID, apperr.New("dispatcher.Invite", apperr.IllegalState))
		}
		sourceRole, targetRole, ok := rolesFor(h.Role)
		if !ok {
			return d.reject(client, "dispatcher.Invite", h.ID, apperr.New("dispatcher.Invite", apperr.IllegalMove))
		}
		target, ok := d.Clients.LookupByUsername(trimPayload(payload))
		if !ok {
			return d.reject(client, "dispatcher.Invite", h.ID, apperr.New("dispatcher.Invite", apperr.NotFound))
		}
		localID, err := client.MakeInvitation(target, sourceRole, targetRole)
		if err != nil {
			return d.reject(client, "dispatcher.Invite", h.ID, err)
		}
		if d.OnInvitation != nil {
			d.OnInvitation()
		}
		return ack(localID)

	case wire.TypeRevoke:
		if !loggedIn {
			return d.reject(client, "dispatcher.Revoke", h.ID, apperr.New("dispatcher.Revoke", apperr.IllegalState))
		}
		if err := client.RevokeInvitation(h.ID); err != nil {
			return d.reject(client, "dispatcher.Revoke", h.ID, err)
		}
		return ack(h.ID)

	case wire.TypeDecline:
		if !loggedIn {
			return d.reject(client, "dispatcher.Decline", h.ID, apperr.New("dispatcher.Decline", apperr.IllegalState))
		}
		if err := client.DeclineInvitation(h.ID); err != nil {
			return d.reject(client, "dispatcher.Decline", h.ID, err)
		}
		return ack(h.ID)

	case wire.TypeAccept:
		if !loggedIn {
			return d.reject(client, "dispatcher.Accept", h.ID, apperr.New("dispatcher.Accept", apperr.IllegalState))
		}
		state, err := client.AcceptInvitation(h.ID)
		if err != nil {
			return d.reject(client, "dispatcher.Accept", h.ID, err)
		}
		if d.OnGameStarted != nil {
			d.OnGameStarted()
		}
		if state != "" {
			return ackWith(h.ID, []byte(state))
		}
		return ack(h.ID)

	case wire.TypeMove:
		if !loggedIn {
			return d.reject(client, "dispatcher.Move", h.ID, apperr.New("dispatcher.Move", apperr.IllegalState))
		}
		if err := client.MakeMove(h.ID, trimPayload(payload)); err != nil {
			return d.reject(client, "dispatcher.Move", h.ID, err)
		}
		return ack(h.ID)

	case wire.TypeResign:
		if !loggedIn {
			return d.reject(client, "dispatcher.Resign", h.ID, apperr.New("dispatcher.Resign", apperr.IllegalState))
		}
		if err := client.ResignGame(h.ID); err != nil {
			return d.reject(client, "dispatcher.Resign", h.ID, err)
		}
		return ack(h.ID)

	default:
		return d.reject(client, "dispatcher.Handle", h.ID, apperr.New("dispatcher.Handle", apperr.IllegalState))
	}
}

func rolesFor(roleByte byte) (source, target domain.Role, ok bool) {
	switch roleByte {
	case 1:
		return domain.RoleFirst, domain.RoleSecond, true
	case 2:
		return domain.RoleSecond, domain.RoleFirst, true
	default:
		return domain.RoleNone, domain.RoleNone, false
	}
}

func trimPayload(payload []byte) string {
	return strings.TrimRight(string(payload), "\x00")
}
