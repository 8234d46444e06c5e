/*
 * file: rating.go
 * package: services
 * description:
 *     Elo-style rating update posted once a game concludes. Replaces the
 *     win/draw/loss counters the originating StatsService tracked with
 *     the numeric rating the kernel's design calls for.
 */

package services

import (
	"math"

	"github.com/juan10024/jeux-server/internal/core/domain"
)

const ratingK = 32.0

// PostResult updates both players' ratings for a single completed game.
// outcome is always expressed from p1's perspective.
func PostResult(p1, p2 *domain.Player, outcome domain.Outcome) {
	r1 := float64(p1.Rating())
	r2 := float64(p2.Rating())

	e1 := 1.0 / (1.0 + math.Pow(10.0, (r2-r1)/400.0))
	e2 := 1.0 / (1.0 + math.Pow(10.0, (r1-r2)/400.0))

	var s1, s2 float64
	switch outcome {
	case domain.OutcomeFirstWins:
		s1, s2 = 1.0, 0.0
	case domain.OutcomeSecondWins:
		s1, s2 = 0.0, 1.0
	default:
		s1, s2 = 0.5, 0.5
	}

	p1.AdjustRating(int(math.Round(ratingK * (s1 - e1))))
	p2.AdjustRating(int(math.Round(ratingK * (s2 - e2))))
}
