package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/juan10024/jeux-server/internal/core/domain"
	"github.com/juan10024/jeux-server/internal/core/services"
)

func TestPostResultEqualRatingsWinnerGainsLoserLoses(t *testing.T) {
	p1 := domain.NewPlayer("alice")
	p2 := domain.NewPlayer("bob")

	services.PostResult(p1, p2, domain.OutcomeFirstWins)

	assert.Equal(t, 1516, p1.Rating())
	assert.Equal(t, 1484, p2.Rating())
}

func TestPostResultDrawLeavesEqualRatingsUnchanged(t *testing.T) {
	p1 := domain.NewPlayer("alice")
	p2 := domain.NewPlayer("bob")

	services.PostResult(p1, p2, domain.OutcomeDraw)

	assert.Equal(t, 1500, p1.Rating())
	assert.Equal(t, 1500, p2.Rating())
}

func TestPostResultUnderdogWinGainsMoreThanFavoriteWin(t *testing.T) {
	underdog := domain.NewPlayer("underdog")
	favorite := domain.NewPlayer("favorite")
	underdog.AdjustRating(-400)

	before := underdog.Rating()
	services.PostResult(underdog, favorite, domain.OutcomeFirstWins)
	gain := underdog.Rating() - before

	assert.Greater(t, gain, 16)
}
