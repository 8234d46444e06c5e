/*
 * file: player.go
 * package: domain
 * description:
 *     Player is the persistent identity shared by every client that logs
 *     in under the same name. It lives for the lifetime of the process;
 *     there is deliberately no persistence layer beneath it.
 */

package domain

import "sync"

const initialRating = 1500

// Player is a user name paired with an Elo-style rating. The name is
// immutable once created; the rating is mutated only through the rating
// service's PostResult (see services.PostResult).
type Player struct {
	mu     sync.Mutex
	name   string
	rating int
}

// NewPlayer creates a Player with the standard initial rating.
func NewPlayer(name string) *Player {
	return &Player{name: name, rating: initialRating}
}

// Name returns the player's user name.
func (p *Player) Name() string {
	return p.name
}

// Rating returns the player's current rating.
func (p *Player) Rating() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rating
}

// AdjustRating applies a rating delta, used by the rating service after a
// game concludes. It is the only mutator of Player state.
func (p *Player) AdjustRating(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rating += delta
}
