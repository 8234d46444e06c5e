/*
 * file: client_registry.go
 * package: services
 * description:
 *     Tracks every live Client. Adapted from the originating Hub's
 *     register/unregister/broadcast map, replacing its channel-actor loop
 *     with a directly mutex-guarded map since registry operations here
 *     need synchronous return values (lookup by username, listing).
 */

package services

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/juan10024/jeux-server/internal/apperr"
	"github.com/juan10024/jeux-server/internal/core/domain"
)

// ClientRegistry is the single process-wide table of connected clients.
// Capacity is bounded by a weighted semaphore so Register can report
// CapacityExceeded instead of growing the map without limit.
type ClientRegistry struct {
	mu         sync.RWMutex
	clients    map[uint64]*Client
	sem        *semaphore.Weighted
	maxClients int64
	log        zerolog.Logger

	// OnRegister/OnUnregister, when set, observe registry membership
	// changes. The metrics package wires these to its active-connections
	// gauge; a nil hook is a no-op.
	OnRegister   func()
	OnUnregister func()
}

// NewClientRegistry returns a registry that admits at most maxClients
// concurrently registered clients.
func NewClientRegistry(maxClients int64, log zerolog.Logger) *ClientRegistry {
	return &ClientRegistry{
		clients:    make(map[uint64]*Client),
		sem:        semaphore.NewWeighted(maxClients),
		maxClients: maxClients,
		log:        log,
	}
}

// Register admits c into the registry, failing with CapacityExceeded if
// the configured client limit is already reached.
func (r *ClientRegistry) Register(c *Client) error {
	if !r.sem.TryAcquire(1) {
		return apperr.New("registry.Register", apperr.CapacityExceeded)
	}
	r.mu.Lock()
	r.clients[c.ID] = c
	r.mu.Unlock()
	if r.OnRegister != nil {
		r.OnRegister()
	}
	r.log.Debug().Uint64("client_id", c.ID).Msg("client registered")
	return nil
}

// Unregister removes c. If c is still logged in, its player binding is
// released and any outstanding invitations are closed first.
func (r *ClientRegistry) Unregister(c *Client) {
	if c.Player() != nil {
		c.Logout()
	}
	r.mu.Lock()
	delete(r.clients, c.ID)
	r.mu.Unlock()
	r.sem.Release(1)
	if r.OnUnregister != nil {
		r.OnUnregister()
	}
	r.log.Debug().Uint64("client_id", c.ID).Msg("client unregistered")
}

// LookupByUsername returns the client currently logged in as name, if
// any. Used to enforce at-most-one-live-session-per-username at LOGIN.
func (r *ClientRegistry) LookupByUsername(name string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.clients {
		if p := c.Player(); p != nil && p.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// ListPlayerNames returns the sorted names of every currently logged-in
// player.
func (r *ClientRegistry) ListPlayerNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for _, c := range r.clients {
		if p := c.Player(); p != nil {
			names = append(names, p.Name())
		}
	}
	sort.Strings(names)
	return names
}

// ListPlayers returns a snapshot, sorted by name, of every currently
// logged-in player, the source data for a USERS reply.
func (r *ClientRegistry) ListPlayers() []*domain.Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	players := make([]*domain.Player, 0, len(r.clients))
	for _, c := range r.clients {
		if p := c.Player(); p != nil {
			players = append(players, p)
		}
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Name() < players[j].Name() })
	return players
}

// ShutdownAll asks every registered client's transport to half-close its
// read side, so each connection's read loop observes EOF and unwinds
// through logout and unregister on its own.
func (r *ClientRegistry) ShutdownAll() {
	r.mu.RLock()
	snapshot := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		snapshot = append(snapshot, c)
	}
	r.mu.RUnlock()
	for _, c := range snapshot {
		if c.Shutdown != nil {
			c.Shutdown()
		}
	}
}

// WaitForEmpty blocks until every client has unregistered or ctx is
// done, whichever comes first.
func (r *ClientRegistry) WaitForEmpty(ctx context.Context) error {
	if err := r.sem.Acquire(ctx, r.maxClients); err != nil {
		return err
	}
	r.sem.Release(r.maxClients)
	return nil
}

// Count returns the number of currently registered clients.
func (r *ClientRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
