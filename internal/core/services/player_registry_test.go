package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/juan10024/jeux-server/internal/core/services"
)

func TestRegisterOrGetReturnsSamePlayerForSameName(t *testing.T) {
	r := services.NewPlayerRegistry()
	a := r.RegisterOrGet("alice")
	b := r.RegisterOrGet("alice")
	assert.Same(t, a, b)
}

func TestRegisterOrGetGivesDistinctPlayersDistinctNames(t *testing.T) {
	r := services.NewPlayerRegistry()
	a := r.RegisterOrGet("alice")
	b := r.RegisterOrGet("bob")
	assert.NotSame(t, a, b)
}

func TestNewPlayerStartsAtInitialRating(t *testing.T) {
	r := services.NewPlayerRegistry()
	p := r.RegisterOrGet("alice")
	assert.Equal(t, 1500, p.Rating())
}
