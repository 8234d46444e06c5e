/*
 * file: player_registry.go
 * package: services
 * description:
 *     Name-to-Player mapping. A Player, once created, is retained for the
 *     life of the process so its rating accumulates across logins.
 */

package services

import (
	"sync"

	"github.com/juan10024/jeux-server/internal/core/domain"
)

// PlayerRegistry maps user names to their persistent Player identity.
type PlayerRegistry struct {
	mu      sync.Mutex
	players map[string]*domain.Player
}

// NewPlayerRegistry returns an empty registry.
func NewPlayerRegistry() *PlayerRegistry {
	return &PlayerRegistry{players: make(map[string]*domain.Player)}
}

// RegisterOrGet returns the existing Player for name, creating one with
// the standard initial rating if this is the first time name is seen.
func (r *PlayerRegistry) RegisterOrGet(name string) *domain.Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.players[name]; ok {
		return p
	}
	p := domain.NewPlayer(name)
	r.players[name] = p
	return p
}
