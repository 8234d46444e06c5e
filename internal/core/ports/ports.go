/*
 * file: ports.go
 * package: ports
 * description:
 *     Interfaces that form the boundary of the game-coordination kernel.
 *     Anything the core dispatches work to is expressed here so that
 *     alternate implementations (a different game, a different transport)
 *     can be substituted without touching the kernel.
 */

package ports

import "github.com/juan10024/jeux-server/internal/core/domain"

// Engine is the capability set a board game must provide to be hosted by
// an Invitation. Only tic-tac-toe is implemented, but nothing in the
// invitation or dispatcher layers depends on it directly; they depend on
// this interface.
type Engine interface {
	// Create returns a fresh Game ready for the first move.
	Create() Game
}

// Game is a single in-progress or completed match.
type Game interface {
	// ParseMove validates text as a move string for role without
	// applying it.
	ParseMove(role domain.Role, text string) (Move, error)
	// ApplyMove applies a previously parsed move. It fails if the game
	// is over, it is not role's turn, or the move targets an occupied
	// or out-of-range cell.
	ApplyMove(role domain.Role, move Move) error
	// Resign marks role as having resigned, ending the game in favor of
	// the opponent. Fails if the game is already over.
	Resign(role domain.Role) error
	// IsOver reports whether the game has concluded.
	IsOver() bool
	// Winner reports the outcome once the game is over. Behavior before
	// the game ends is undefined.
	Winner() domain.Outcome
	// Turn reports the role currently on move.
	Turn() domain.Role
	// UnparseState renders a human-readable description of the current
	// board or, once the game is over, of its result.
	UnparseState() string
}

// Move is an opaque, engine-specific parsed move. Tic-tac-toe represents
// it as a single cell index; other engines could use richer values.
type Move interface {
	// Role is the role this move's parse-time role suffix requested, or
	// domain.RoleNone if the move string carried no suffix.
	Role() domain.Role
}
