// Package httpapi is the REST surface: account management, game
// queries, move submission and matchmaking, plus the websocket routes
// delegated to the hub.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/seekerror/logw"

	"github.com/arenalabs/chessarena/internal/auth"
	"github.com/arenalabs/chessarena/internal/chess"
	"github.com/arenalabs/chessarena/internal/game"
	"github.com/arenalabs/chessarena/internal/hub"
	"github.com/arenalabs/chessarena/internal/matchmaking"
	"github.com/arenalabs/chessarena/internal/session"
	"github.com/arenalabs/chessarena/internal/store"
)

var (
	errBadRequest     = errors.New("bad request")
	errBadCredentials = errors.New("invalid username or password")
	errUnauthorized   = errors.New("missing or invalid bearer token")
)

// API wires the HTTP handlers to the domain services.
type API struct {
	signer   *auth.Signer
	st       *store.Store
	sessions *session.Manager
	mm       *matchmaking.Service
	ws       *hub.Hub
}

// New creates the API.
func New(signer *auth.Signer, st *store.Store, sessions *session.Manager, mm *matchmaking.Service, ws *hub.Hub) *API {
	return &API{signer: signer, st: st, sessions: sessions, mm: mm, ws: ws}
}

// Routes registers every endpoint on the mux.
func (a *API) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", a.handleRegister)
	mux.HandleFunc("POST /api/auth/login", a.handleLogin)

	mux.HandleFunc("GET /api/games/{id}", a.handleGetGame)
	mux.HandleFunc("POST /api/games/{id}/moves", a.requireAuth(a.handleMakeMove))
	mux.HandleFunc("POST /api/games/{id}/resign", a.requireAuth(a.handleResign))
	mux.HandleFunc("POST /api/games/bot", a.requireAuth(a.handleCreateBotGame))

	mux.HandleFunc("POST /api/matchmaking/queue", a.requireAuth(a.handleJoinQueue))
	mux.HandleFunc("DELETE /api/matchmaking/queue", a.requireAuth(a.handleLeaveQueue))
	mux.HandleFunc("GET /api/matchmaking/status", a.requireAuth(a.handleQueueStatus))

	mux.HandleFunc("GET /ws/matchmaking", a.ws.HandleMatchmaking)
	mux.HandleFunc("GET /ws/game/{gameId}", a.ws.HandleGame)
	mux.HandleFunc("GET /ws/spectate/{gameId}", a.ws.HandleSpectate)
}

// requireAuth verifies the bearer token and passes the user id through.
func (a *API) requireAuth(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: errUnauthorized.Error()})
			return
		}
		userID, err := a.signer.Verify(token)
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r, userID)
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed body", errBadRequest))
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if len(req.Username) < 3 || len(req.Password) < 8 {
		writeError(w, fmt.Errorf("%w: username needs 3+ characters, password 8+", errBadRequest))
		return
	}

	salt, err := auth.NewSalt()
	if err != nil {
		writeError(w, err)
		return
	}
	u := &store.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: auth.HashPassword(req.Password, salt),
		Salt:         salt,
		CreatedAt:    time.Now(),
	}
	if err := a.st.CreateUser(r.Context(), u); err != nil {
		writeError(w, err)
		return
	}

	logw.Infof(r.Context(), "httpapi: registered user %s", u.Username)
	writeJSON(w, http.StatusCreated, authResponse{
		UserID:   u.ID,
		Username: u.Username,
		Token:    a.signer.Sign(u.ID),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed body", errBadRequest))
		return
	}

	u, err := a.st.FindUserByName(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		// A missing user and a wrong password are indistinguishable to the
		// caller.
		writeError(w, errBadCredentials)
		return
	}
	if !auth.CheckPassword(req.Password, u.Salt, u.PasswordHash) {
		writeError(w, errBadCredentials)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		UserID:   u.ID,
		Username: u.Username,
		Token:    a.signer.Sign(u.ID),
	})
}

type playerView struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Side   string `json:"side"`
}

type moveView struct {
	Number    int       `json:"number"`
	Notation  string    `json:"notation"`
	CreatedAt time.Time `json:"createdAt"`
}

type gameView struct {
	ID            string     `json:"id"`
	White         playerView `json:"white"`
	Black         playerView `json:"black"`
	FEN           string     `json:"fen"`
	Status        string     `json:"status"`
	SideToMove    string     `json:"sideToMove"`
	IsCheck       bool       `json:"isCheck"`
	Winner        *string    `json:"winner,omitempty"`
	DrawOfferedBy *string    `json:"drawOfferedBy,omitempty"`
	VsBot         bool       `json:"vsBot,omitempty"`
	Difficulty    string     `json:"difficulty,omitempty"`
	Moves         []moveView `json:"moves"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func viewOf(g *game.Game) gameView {
	v := gameView{
		ID:         g.ID,
		White:      playerView{ID: g.White.ID, UserID: g.White.UserID, Side: game.SideName(chess.White)},
		Black:      playerView{ID: g.Black.ID, UserID: g.Black.UserID, Side: game.SideName(chess.Black)},
		FEN:        g.Position.ToFEN(),
		Status:     string(g.Status),
		SideToMove: game.SideName(g.CurrentSide()),
		IsCheck:    g.Position.InCheck(),
		VsBot:      g.VsBot,
		Difficulty: g.Difficulty,
		Moves:      make([]moveView, 0, len(g.History)),
		CreatedAt:  g.CreatedAt,
		UpdatedAt:  g.UpdatedAt,
	}
	if g.Winner != nil {
		name := game.SideName(*g.Winner)
		v.Winner = &name
	}
	if g.DrawOfferedBy != nil {
		name := game.SideName(*g.DrawOfferedBy)
		v.DrawOfferedBy = &name
	}
	for _, m := range g.History {
		v.Moves = append(v.Moves, moveView{Number: m.Number, Notation: m.Notation, CreatedAt: m.CreatedAt})
	}
	return v
}

// handleGetGame returns a game snapshot. Games are publicly readable;
// spectating needs no auth either.
func (a *API) handleGetGame(w http.ResponseWriter, r *http.Request) {
	g, err := a.sessions.Game(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(g))
}

type moveRequest struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// uci renders the request in coordinate notation. Promotion accepts a
// piece letter ("q") or a piece name ("QUEEN").
func (m moveRequest) uci() string {
	promo := strings.ToLower(strings.TrimSpace(m.Promotion))
	switch promo {
	case "queen":
		promo = "q"
	case "rook":
		promo = "r"
	case "bishop":
		promo = "b"
	case "knight":
		promo = "n"
	}
	return strings.ToLower(strings.TrimSpace(m.From)) + strings.ToLower(strings.TrimSpace(m.To)) + promo
}

func (a *API) handleMakeMove(w http.ResponseWriter, r *http.Request, userID string) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed body", errBadRequest))
		return
	}

	gameID := r.PathValue("id")
	g, err := a.sessions.Game(r.Context(), gameID)
	if err != nil {
		writeError(w, err)
		return
	}
	mv, err := chess.ParseMove(req.uci(), g.Position)
	if err != nil {
		writeError(w, err)
		return
	}

	if _, err := a.sessions.MakeMoveByUser(r.Context(), gameID, userID, mv); err != nil {
		writeError(w, err)
		return
	}

	g, err = a.sessions.Game(r.Context(), gameID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(g))
}

func (a *API) handleResign(w http.ResponseWriter, r *http.Request, userID string) {
	gameID := r.PathValue("id")
	g, err := a.sessions.Game(r.Context(), gameID)
	if err != nil {
		writeError(w, err)
		return
	}
	player, ok := g.PlayerByUserID(userID)
	if !ok {
		writeError(w, game.ErrNotAParticipant)
		return
	}

	if err := a.sessions.Resign(r.Context(), gameID, player.ID); err != nil {
		writeError(w, err)
		return
	}

	g, err = a.sessions.Game(r.Context(), gameID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(g))
}

type botGameRequest struct {
	Difficulty string `json:"difficulty"`
}

func (a *API) handleCreateBotGame(w http.ResponseWriter, r *http.Request, userID string) {
	var req botGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed body", errBadRequest))
		return
	}

	g, err := a.sessions.CreateBotGame(r.Context(), userID, req.Difficulty)
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(g))
}

type queueResponse struct {
	Status        string `json:"status"`
	QueuePosition int    `json:"queuePosition,omitempty"`
	GameID        string `json:"gameId,omitempty"`
	YourColor     string `json:"yourColor,omitempty"`
}

func queueViewOf(res matchmaking.Result) queueResponse {
	out := queueResponse{Status: string(res.Status)}
	switch res.Status {
	case matchmaking.StatusWaiting:
		out.QueuePosition = res.QueuePosition
	case matchmaking.StatusMatched:
		out.GameID = res.GameID
		out.YourColor = game.SideName(res.Color)
	}
	return out
}

func (a *API) handleJoinQueue(w http.ResponseWriter, r *http.Request, userID string) {
	res, err := a.mm.Join(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queueViewOf(res))
}

func (a *API) handleLeaveQueue(w http.ResponseWriter, r *http.Request, userID string) {
	if !a.mm.Leave(r.Context(), userID) {
		writeError(w, fmt.Errorf("%w: not in queue", errBadRequest))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleQueueStatus(w http.ResponseWriter, r *http.Request, userID string) {
	res, err := a.mm.Status(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queueViewOf(res))
}
