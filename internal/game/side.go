package game

import (
	"fmt"

	"github.com/arenalabs/chessarena/internal/chess"
)

// SideName returns the wire and persistence name of a side.
func SideName(c chess.Color) string {
	if c == chess.White {
		return "WHITE"
	}
	return "BLACK"
}

// ParseSide parses a persisted side name.
func ParseSide(s string) (chess.Color, error) {
	switch s {
	case "WHITE":
		return chess.White, nil
	case "BLACK":
		return chess.Black, nil
	}
	return chess.NoColor, fmt.Errorf("unknown side %q", s)
}
