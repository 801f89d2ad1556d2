package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/arenalabs/chessarena/internal/auth"
	"github.com/arenalabs/chessarena/internal/chess"
	"github.com/arenalabs/chessarena/internal/game"
	"github.com/arenalabs/chessarena/internal/matchmaking"
	"github.com/arenalabs/chessarena/internal/store"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
}

// statusFor maps domain errors onto HTTP statuses. Unknown errors are
// treated as transient server trouble.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, errBadCredentials):
		return http.StatusUnauthorized

	case errors.Is(err, game.ErrNotAParticipant):
		return http.StatusForbidden

	case errors.Is(err, store.ErrGameNotFound),
		errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrMatchNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrUsernameTaken),
		errors.Is(err, matchmaking.ErrAlreadyQueued),
		errors.Is(err, matchmaking.ErrAlreadyMatched):
		return http.StatusConflict

	case errors.Is(err, game.ErrNotYourTurn),
		errors.Is(err, game.ErrIllegalMove),
		errors.Is(err, game.ErrGameTerminal),
		errors.Is(err, game.ErrDrawPending),
		errors.Is(err, game.ErrNoDrawOffer),
		errors.Is(err, game.ErrOwnDrawOffer),
		errors.Is(err, matchmaking.ErrUnknownUser),
		errors.Is(err, chess.ErrInvalidEncoding),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest

	default:
		return http.StatusServiceUnavailable
	}
}
