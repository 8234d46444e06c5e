/*
 * file: tictactoe.go
 * package: services
 * description:
 *     The tic-tac-toe Engine: 3x3 board, move parsing, win detection, and
 *     human-readable state rendering. This is the only ports.Engine
 *     implementation the server ships, though nothing above it depends on
 *     that being true.
 */

package services

import (
	"strconv"
	"strings"

	"github.com/juan10024/jeux-server/internal/apperr"
	"github.com/juan10024/jeux-server/internal/core/domain"
	"github.com/juan10024/jeux-server/internal/core/ports"
)

// winLines enumerates the eight index triples that win a 3x3 board.
var winLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// TicTacToeEngine is the stateless factory for tic-tac-toe games.
type TicTacToeEngine struct{}

func (TicTacToeEngine) Create() ports.Game {
	return &ticTacToeGame{turn: domain.RoleFirst}
}

type ticTacToeMove struct {
	cell int // 0-8
	role domain.Role
}

func (m ticTacToeMove) Role() domain.Role { return m.role }

type ticTacToeGame struct {
	board         [9]domain.Role
	turn          domain.Role
	over          bool
	firstResigned bool
	secondResigned bool
	outcome       domain.Outcome
}

func (g *ticTacToeGame) ParseMove(role domain.Role, text string) (ports.Move, error) {
	text = strings.TrimSpace(text)
	digits := text
	suffixRole := domain.RoleNone
	if idx := strings.Index(text, "<-"); idx >= 0 {
		digits = text[:idx]
		switch text[idx+2:] {
		case "X":
			suffixRole = domain.RoleFirst
		case "O":
			suffixRole = domain.RoleSecond
		default:
			return nil, apperr.New("tictactoe.ParseMove", apperr.IllegalMove)
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 || n > 9 {
		return nil, apperr.New("tictactoe.ParseMove", apperr.IllegalMove)
	}
	if suffixRole != domain.RoleNone && suffixRole != role {
		return nil, apperr.New("tictactoe.ParseMove", apperr.IllegalMove)
	}
	return ticTacToeMove{cell: n - 1, role: suffixRole}, nil
}

func (g *ticTacToeGame) ApplyMove(role domain.Role, move ports.Move) error {
	m, ok := move.(ticTacToeMove)
	if !ok {
		return apperr.New("tictactoe.ApplyMove", apperr.IllegalMove)
	}
	if g.over {
		return apperr.New("tictactoe.ApplyMove", apperr.IllegalMove)
	}
	if role != g.turn {
		return apperr.New("tictactoe.ApplyMove", apperr.IllegalMove)
	}
	if m.cell < 0 || m.cell > 8 || g.board[m.cell] != domain.RoleNone {
		return apperr.New("tictactoe.ApplyMove", apperr.IllegalMove)
	}
	g.board[m.cell] = role
	g.turn = role.Other()
	g.recomputeOver()
	return nil
}

func (g *ticTacToeGame) Resign(role domain.Role) error {
	if g.over {
		return apperr.New("tictactoe.Resign", apperr.IllegalState)
	}
	switch role {
	case domain.RoleFirst:
		g.firstResigned = true
	case domain.RoleSecond:
		g.secondResigned = true
	default:
		return apperr.New("tictactoe.Resign", apperr.IllegalState)
	}
	g.over = true
	// First player's resignation is checked before the second's, so a
	// (practically unreachable) double-resignation favors the second
	// player.
	if g.firstResigned {
		g.outcome = domain.OutcomeSecondWins
	} else {
		g.outcome = domain.OutcomeFirstWins
	}
	return nil
}

func (g *ticTacToeGame) IsOver() bool        { return g.over }
func (g *ticTacToeGame) Winner() domain.Outcome { return g.outcome }
func (g *ticTacToeGame) Turn() domain.Role    { return g.turn }

func (g *ticTacToeGame) recomputeOver() {
	for _, line := range winLines {
		a, b, c := g.board[line[0]], g.board[line[1]], g.board[line[2]]
		if a != domain.RoleNone && a == b && b == c {
			g.over = true
			if a == domain.RoleFirst {
				g.outcome = domain.OutcomeFirstWins
			} else {
				g.outcome = domain.OutcomeSecondWins
			}
			return
		}
	}
	for _, cell := range g.board {
		if cell == domain.RoleNone {
			return
		}
	}
	g.over = true
	g.outcome = domain.OutcomeDraw
}

func (g *ticTacToeGame) UnparseState() string {
	if g.over {
		var sb strings.Builder
		sb.WriteString("Game is over\n")
		switch g.outcome {
		case domain.OutcomeFirstWins:
			sb.WriteString("Player 1 has won\n")
		case domain.OutcomeSecondWins:
			sb.WriteString("Player 2 has won\n")
		default:
			sb.WriteString("The game was drawn\n")
		}
		return sb.String()
	}

	var sb strings.Builder
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			cell := g.board[row*3+col]
			var mark string
			switch cell {
			case domain.RoleFirst:
				mark = "X"
			case domain.RoleSecond:
				mark = "O"
			default:
				mark = " "
			}
			sb.WriteString(mark)
			if col < 2 {
				sb.WriteString("|")
			}
		}
		sb.WriteString("\n")
		if row < 2 {
			sb.WriteString("-----\n")
		}
	}
	if g.turn == domain.RoleFirst {
		sb.WriteString("X to move\n")
	} else {
		sb.WriteString("O to move\n")
	}
	return sb.String()
}
