/*
 * file: client.go
 * package: services
 * description:
 *     Per-connection session state: login status, the invitation list
 *     keyed by per-client local ids, and the outbound frame channel a
 *     dedicated writer goroutine drains. Adapted from the Hub/Client
 *     pattern the originating websocket services used, re-targeted at a
 *     transport-agnostic outbound channel instead of a *websocket.Conn.
 */

package services

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/juan10024/jeux-server/internal/adapters/wire"
	"github.com/juan10024/jeux-server/internal/apperr"
	"github.com/juan10024/jeux-server/internal/core/domain"
	"github.com/juan10024/jeux-server/internal/core/ports"
)

var clientSeq uint64
var invitationSeq uint64

func nextClientID() uint64     { return atomic.AddUint64(&clientSeq, 1) }
func nextInvitationID() uint64 { return atomic.AddUint64(&invitationSeq, 1) }

// LocalInvitation pairs a client-scoped id with the shared Invitation it
// names.
type LocalInvitation struct {
	LocalID byte
	Inv     *Invitation
}

// Client is one live connection's session state. ID is a stable,
// monotonically assigned handle used to impose a total lock order across
// clients; it is unrelated to the per-invitation LocalID.
type Client struct {
	ID       uint64
	ConnUUID uuid.UUID

	mu          sync.Mutex
	player      *domain.Player
	invitations []LocalInvitation

	send   chan wire.Frame
	log    zerolog.Logger
	engine ports.Engine

	// OnGameEnded, when set, is invoked once for each game this client
	// takes part in finishing. The metrics package wires this to a
	// games-finished counter; a nil hook is a no-op.
	OnGameEnded func()

	// OnInvitationOpened, when set, is invoked once per invitation this
	// client originates, when it is created; OnInvitationClosed, when
	// set, is invoked once per such invitation as it leaves the OPEN
	// state (accepted, revoked, or declined). The metrics package wires
	// these to an open-invitations gauge; nil hooks are no-ops.
	OnInvitationOpened func()
	OnInvitationClosed func()

	// Shutdown, when set, half-closes the transport's read side so this
	// client's service goroutine observes EOF and unwinds through logout
	// and unregister on its own. Set by the transport adapter at connect
	// time; ClientRegistry.ShutdownAll invokes it on every live client.
	Shutdown func()
}

// NewClient constructs a Client bound to an outbound frame channel. The
// transport adapter owns reading from send and writing to the socket.
func NewClient(engine ports.Engine, log zerolog.Logger) *Client {
	id := nextClientID()
	connID := uuid.New()
	return &Client{
		ID:       id,
		ConnUUID: connID,
		send:     make(chan wire.Frame, 32),
		log:      log.With().Uint64("client_id", id).Str("conn_id", connID.String()).Logger(),
		engine:   engine,
	}
}

// Outbound exposes the channel the transport writer goroutine drains.
func (c *Client) Outbound() <-chan wire.Frame { return c.send }

// CloseOutbound closes the outbound channel, ending the writer goroutine.
// Must only be called after the client has been unregistered; no further
// sends may be attempted afterward.
func (c *Client) CloseOutbound() { close(c.send) }

func (c *Client) enqueue(f wire.Frame) {
	c.send <- f
}

// Send enqueues a frame the transport's writer goroutine will deliver.
// Callers (the dispatcher) use this for replies; services use enqueue
// internally for peer notifications.
func (c *Client) Send(f wire.Frame) { c.enqueue(f) }

// Player returns the bound player, or nil if logged out.
func (c *Client) Player() *domain.Player {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.player
}

// Login binds player to this client. Fails if already logged in or if
// another live client is already logged in as that player (checked by
// the caller via ClientRegistry.LookupByUsername before calling Login,
// since that check spans the registry, not just this client).
func (c *Client) Login(player *domain.Player) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.player != nil {
		return apperr.New("client.Login", apperr.IllegalState)
	}
	c.player = player
	c.log.Info().Str("player", player.Name()).Msg("login")
	return nil
}

// Logout walks the invitation list, resigning, revoking, or declining as
// appropriate, then releases the player binding.
func (c *Client) Logout() {
	c.mu.Lock()
	invs := append([]LocalInvitation(nil), c.invitations...)
	c.mu.Unlock()

	for _, li := range invs {
		c.closeInvitation(li)
	}

	c.mu.Lock()
	name := ""
	if c.player != nil {
		name = c.player.Name()
	}
	c.player = nil
	c.invitations = nil
	c.mu.Unlock()
	c.log.Info().Str("player", name).Msg("logout")
}

func (c *Client) closeInvitation(li LocalInvitation) {
	inv := li.Inv
	source, target := orderClients(inv.Source, inv.Target)
	source.mu.Lock()
	if target != source {
		target.mu.Lock()
	}
	role := inv.RoleOf(c)
	state := inv.State()
	g := inv.Game()
	gameAlreadyOver := g != nil && g.IsOver()
	hasLiveGame := state == domain.StateAccepted && !gameAlreadyOver
	source.mu.Unlock()
	if target != source {
		target.mu.Unlock()
	}

	if state == domain.StateAccepted && gameAlreadyOver {
		// The game already concluded normally; just drop the bookkeeping.
		_ = inv.Close(domain.RoleNone)
		removeInvitation(inv.Source, inv)
		removeInvitation(inv.Target, inv)
		c.log.Debug().Uint64("invitation_id", inv.ID).Msg("invitation closed on disconnect, game already over")
		return
	}

	if hasLiveGame {
		opponent, opponentLocalID := opponentOf(inv, c)
		_ = inv.Close(role)
		removeInvitation(inv.Source, inv)
		removeInvitation(inv.Target, inv)
		if opponent != nil {
			notifyResigned(opponent, opponentLocalID)
			postGameRating(inv)
			if opponent.OnGameEnded != nil {
				opponent.OnGameEnded()
			}
		}
		c.log.Info().Uint64("invitation_id", inv.ID).Str("role", role.String()).Msg("game resigned on disconnect")
		return
	}

	if inv.Source == c {
		_ = inv.Close(domain.RoleNone)
		tLocal, ok := localIDFor(inv.Target, inv)
		removeInvitation(inv.Source, inv)
		removeInvitation(inv.Target, inv)
		if ok {
			notifyRevoked(inv.Target, tLocal)
		}
		if c.OnInvitationClosed != nil {
			c.OnInvitationClosed()
		}
		c.log.Info().Uint64("invitation_id", inv.ID).Msg("invitation revoked on disconnect")
		return
	}

	// c is the target: decline on its behalf.
	_ = inv.Close(domain.RoleNone)
	sLocal, ok := localIDFor(inv.Source, inv)
	removeInvitation(inv.Source, inv)
	removeInvitation(inv.Target, inv)
	if ok {
		notifyDeclined(inv.Source, sLocal)
	}
	if inv.Source.OnInvitationClosed != nil {
		inv.Source.OnInvitationClosed()
	}
	c.log.Info().Uint64("invitation_id", inv.ID).Msg("invitation declined on disconnect")
}

// addInvitation inserts inv under the smallest non-negative local id not
// already in use on this client and returns that id.
func (c *Client) addInvitation(inv *Invitation) byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	used := make(map[byte]bool, len(c.invitations))
	for _, li := range c.invitations {
		used[li.LocalID] = true
	}
	var id byte
	for used[id] {
		id++
	}
	c.invitations = append(c.invitations, LocalInvitation{LocalID: id, Inv: inv})
	sort.Slice(c.invitations, func(i, j int) bool { return c.invitations[i].LocalID < c.invitations[j].LocalID })
	return id
}

func (c *Client) findInvitation(localID byte) (*Invitation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, li := range c.invitations {
		if li.LocalID == localID {
			return li.Inv, true
		}
	}
	return nil, false
}

func (c *Client) localIDOf(inv *Invitation) (byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, li := range c.invitations {
		if li.Inv == inv {
			return li.LocalID, true
		}
	}
	return 0, false
}

func removeInvitation(c *Client, inv *Invitation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, li := range c.invitations {
		if li.Inv == inv {
			c.invitations = append(c.invitations[:i], c.invitations[i+1:]...)
			return
		}
	}
}

func localIDFor(c *Client, inv *Invitation) (byte, bool) { return c.localIDOf(inv) }

// orderClients imposes a total order on two clients by stable ID so
// multi-client lock acquisition never deadlocks.
func orderClients(a, b *Client) (first, second *Client) {
	if a.ID <= b.ID {
		return a, b
	}
	return b, a
}

func opponentOf(inv *Invitation, c *Client) (*Client, byte) {
	var opponent *Client
	if inv.Source == c {
		opponent = inv.Target
	} else {
		opponent = inv.Source
	}
	id, _ := opponent.localIDOf(inv)
	return opponent, id
}

func notifyRevoked(target *Client, localID byte) {
	target.enqueue(wire.Frame{Header: wire.Header{Type: wire.TypeRevoked, ID: localID}})
}

func notifyDeclined(source *Client, localID byte) {
	source.enqueue(wire.Frame{Header: wire.Header{Type: wire.TypeDeclined, ID: localID}})
}

func notifyResigned(opponent *Client, localID byte) {
	opponent.enqueue(wire.Frame{Header: wire.Header{Type: wire.TypeResigned, ID: localID}})
}

func postGameRating(inv *Invitation) {
	g := inv.Game()
	if g == nil {
		return
	}
	sourcePlayer := inv.Source.Player()
	targetPlayer := inv.Target.Player()
	if sourcePlayer == nil || targetPlayer == nil {
		return
	}
	outcome := g.Winner()
	if inv.SourceRole == domain.RoleSecond {
		// g.Winner() is expressed in terms of RoleFirst/RoleSecond, and
		// PostResult expects outcome from p1 (source)'s perspective.
		outcome = flipOutcome(outcome)
	}
	PostResult(sourcePlayer, targetPlayer, outcome)
	inv.Source.log.Info().
		Str("opponent", targetPlayer.Name()).
		Int("rating", sourcePlayer.Rating()).
		Msg("rating updated")
	inv.Target.log.Info().
		Str("opponent", sourcePlayer.Name()).
		Int("rating", targetPlayer.Rating()).
		Msg("rating updated")
}

func flipOutcome(o domain.Outcome) domain.Outcome {
	switch o {
	case domain.OutcomeFirstWins:
		return domain.OutcomeSecondWins
	case domain.OutcomeSecondWins:
		return domain.OutcomeFirstWins
	default:
		return o
	}
}
