package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenalabs/chessarena/internal/auth"
	"github.com/arenalabs/chessarena/internal/engine"
	"github.com/arenalabs/chessarena/internal/hub"
	"github.com/arenalabs/chessarena/internal/matchmaking"
	"github.com/arenalabs/chessarena/internal/session"
	"github.com/arenalabs/chessarena/internal/store"
)

type testServer struct {
	*httptest.Server
	t *testing.T
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	signer := auth.NewSigner("test-secret", time.Hour)
	sessions := session.NewManager(st, engine.New(16))
	t.Cleanup(sessions.Close)

	mm := matchmaking.NewService(matchmaking.NewQueue(), st, sessions)
	ws := hub.New(signer, sessions, mm, nil)
	sessions.SetSink(ws)
	mm.SetNotifier(ws)

	mux := http.NewServeMux()
	New(signer, st, sessions, mm, ws).Routes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, t: t}
}

// do sends a JSON request and decodes the JSON response into out.
func (s *testServer) do(method, path, token string, body, out interface{}) int {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	require.NoError(s.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(s.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *testServer) register(username string) authResponse {
	s.t.Helper()
	var out authResponse
	code := s.do("POST", "/api/auth/register", "",
		credentialsRequest{Username: username, Password: "hunter2hunter2"}, &out)
	require.Equal(s.t, http.StatusCreated, code)
	return out
}

// pairUp registers two users and pairs them through the queue.
func (s *testServer) pairUp(t *testing.T) (authResponse, authResponse, string) {
	t.Helper()
	alice := s.register("alice")
	bob := s.register("bob")

	var first queueResponse
	require.Equal(t, http.StatusOK, s.do("POST", "/api/matchmaking/queue", alice.Token, nil, &first))
	assert.Equal(t, string(matchmaking.StatusWaiting), first.Status)
	assert.Equal(t, 1, first.QueuePosition)

	var second queueResponse
	require.Equal(t, http.StatusOK, s.do("POST", "/api/matchmaking/queue", bob.Token, nil, &second))
	require.Equal(t, string(matchmaking.StatusMatched), second.Status)
	require.NotEmpty(t, second.GameID)
	require.Contains(t, []string{"WHITE", "BLACK"}, second.YourColor)

	return alice, bob, second.GameID
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	created := s.register("alice")
	assert.NotEmpty(t, created.Token)

	var dup errorBody
	code := s.do("POST", "/api/auth/register", "",
		credentialsRequest{Username: "alice", Password: "hunter2hunter2"}, &dup)
	assert.Equal(t, http.StatusConflict, code)

	var login authResponse
	code = s.do("POST", "/api/auth/login", "",
		credentialsRequest{Username: "alice", Password: "hunter2hunter2"}, &login)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, created.UserID, login.UserID)

	var bad errorBody
	code = s.do("POST", "/api/auth/login", "",
		credentialsRequest{Username: "alice", Password: "wrong-password"}, &bad)
	assert.Equal(t, http.StatusUnauthorized, code)

	// Unknown users fail the same way as wrong passwords.
	code = s.do("POST", "/api/auth/login", "",
		credentialsRequest{Username: "mallory", Password: "hunter2hunter2"}, &bad)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	var out errorBody
	code := s.do("POST", "/api/auth/register", "",
		credentialsRequest{Username: "al", Password: "hunter2hunter2"}, &out)
	assert.Equal(t, http.StatusBadRequest, code)

	code = s.do("POST", "/api/auth/register", "",
		credentialsRequest{Username: "alice", Password: "short"}, &out)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	var out errorBody
	assert.Equal(t, http.StatusUnauthorized,
		s.do("POST", "/api/matchmaking/queue", "", nil, &out))
	assert.Equal(t, http.StatusUnauthorized,
		s.do("POST", "/api/matchmaking/queue", "not-a-token", nil, &out))
}

func TestMatchmakingPairsTwoUsers(t *testing.T) {
	s := newTestServer(t)
	alice, _, gameID := s.pairUp(t)

	// The first user learns about the match through status polling.
	var status queueResponse
	require.Equal(t, http.StatusOK,
		s.do("GET", "/api/matchmaking/status", alice.Token, nil, &status))
	assert.Equal(t, string(matchmaking.StatusMatched), status.Status)
	assert.Equal(t, gameID, status.GameID)
	assert.Contains(t, []string{"WHITE", "BLACK"}, status.YourColor)
}

func TestQueueConflicts(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")

	var out queueResponse
	require.Equal(t, http.StatusOK, s.do("POST", "/api/matchmaking/queue", alice.Token, nil, &out))

	var dup errorBody
	assert.Equal(t, http.StatusConflict,
		s.do("POST", "/api/matchmaking/queue", alice.Token, nil, &dup))

	assert.Equal(t, http.StatusNoContent,
		s.do("DELETE", "/api/matchmaking/queue", alice.Token, nil, nil))

	var gone errorBody
	assert.Equal(t, http.StatusBadRequest,
		s.do("DELETE", "/api/matchmaking/queue", alice.Token, nil, &gone))
}

func TestGameIsPubliclyReadable(t *testing.T) {
	s := newTestServer(t)
	_, _, gameID := s.pairUp(t)

	var g gameView
	require.Equal(t, http.StatusOK, s.do("GET", "/api/games/"+gameID, "", nil, &g))
	assert.Equal(t, "IN_PROGRESS", g.Status)
	assert.Equal(t, "WHITE", g.SideToMove)
	assert.Empty(t, g.Moves)

	var missing errorBody
	assert.Equal(t, http.StatusNotFound,
		s.do("GET", "/api/games/no-such-game", "", nil, &missing))
}

func TestMoveSubmission(t *testing.T) {
	s := newTestServer(t)
	alice, bob, gameID := s.pairUp(t)

	var g gameView
	require.Equal(t, http.StatusOK, s.do("GET", "/api/games/"+gameID, "", nil, &g))

	whiteToken, blackToken := alice.Token, bob.Token
	if g.White.UserID == bob.UserID {
		whiteToken, blackToken = bob.Token, alice.Token
	}

	// Black cannot open.
	var out errorBody
	assert.Equal(t, http.StatusBadRequest,
		s.do("POST", fmt.Sprintf("/api/games/%s/moves", gameID), blackToken,
			moveRequest{From: "e7", To: "e5"}, &out))

	// Illegal moves are rejected.
	assert.Equal(t, http.StatusBadRequest,
		s.do("POST", fmt.Sprintf("/api/games/%s/moves", gameID), whiteToken,
			moveRequest{From: "e2", To: "e5"}, &out))

	// Outsiders are rejected before turn order is consulted.
	carol := s.register("carol")
	assert.Equal(t, http.StatusForbidden,
		s.do("POST", fmt.Sprintf("/api/games/%s/moves", gameID), carol.Token,
			moveRequest{From: "e2", To: "e4"}, &out))

	var updated gameView
	require.Equal(t, http.StatusOK,
		s.do("POST", fmt.Sprintf("/api/games/%s/moves", gameID), whiteToken,
			moveRequest{From: "e2", To: "e4"}, &updated))
	assert.Equal(t, "BLACK", updated.SideToMove)
	require.Len(t, updated.Moves, 1)
	assert.Equal(t, "e2e4", updated.Moves[0].Notation)
}

func TestResign(t *testing.T) {
	s := newTestServer(t)
	alice, bob, gameID := s.pairUp(t)

	var g gameView
	require.Equal(t, http.StatusOK, s.do("GET", "/api/games/"+gameID, "", nil, &g))
	whiteToken := alice.Token
	if g.White.UserID == bob.UserID {
		whiteToken = bob.Token
	}

	var updated gameView
	require.Equal(t, http.StatusOK,
		s.do("POST", fmt.Sprintf("/api/games/%s/resign", gameID), whiteToken, nil, &updated))
	assert.Equal(t, "RESIGNED", updated.Status)
	require.NotNil(t, updated.Winner)
	assert.Equal(t, "BLACK", *updated.Winner)

	// No moves after the game ends.
	var out errorBody
	assert.Equal(t, http.StatusBadRequest,
		s.do("POST", fmt.Sprintf("/api/games/%s/moves", gameID), whiteToken,
			moveRequest{From: "e2", To: "e4"}, &out))
}

func TestCreateBotGame(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")

	var g gameView
	code := s.do("POST", "/api/games/bot", alice.Token,
		botGameRequest{Difficulty: "BEGINNER"}, &g)
	require.Equal(t, http.StatusCreated, code)
	assert.True(t, g.VsBot)
	assert.Equal(t, alice.UserID, g.White.UserID)
	assert.Equal(t, session.BotUserID, g.Black.UserID)

	var out errorBody
	assert.Equal(t, http.StatusBadRequest,
		s.do("POST", "/api/games/bot", alice.Token,
			botGameRequest{Difficulty: "IMPOSSIBLE"}, &out))
}

func TestMoveRequestNotation(t *testing.T) {
	assert.Equal(t, "e2e4", moveRequest{From: "E2", To: "E4"}.uci())
	assert.Equal(t, "a7a8q", moveRequest{From: "a7", To: "a8", Promotion: "QUEEN"}.uci())
	assert.Equal(t, "a7a8n", moveRequest{From: "a7", To: "a8", Promotion: "n"}.uci())
}
