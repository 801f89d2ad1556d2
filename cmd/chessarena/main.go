// Command chessarena runs the multiplayer chess server: REST API,
// websocket endpoints and the built-in engine opponent, backed by
// BadgerDB.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/seekerror/logw"

	"github.com/arenalabs/chessarena/internal/auth"
	"github.com/arenalabs/chessarena/internal/config"
	"github.com/arenalabs/chessarena/internal/engine"
	"github.com/arenalabs/chessarena/internal/httpapi"
	"github.com/arenalabs/chessarena/internal/hub"
	"github.com/arenalabs/chessarena/internal/matchmaking"
	"github.com/arenalabs/chessarena/internal/session"
	"github.com/arenalabs/chessarena/internal/store"
)

// matchSweepInterval is how often expired matches are reclaimed.
const matchSweepInterval = time.Minute

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		logw.Errorf(ctx, "chessarena: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	signer := auth.NewSigner(cfg.TokenSecret, cfg.TokenTTL)
	sessions := session.NewManager(st, engine.New(cfg.TTSizeMB))
	defer sessions.Close()

	mm := matchmaking.NewService(matchmaking.NewQueue(), st, sessions)
	ws := hub.New(signer, sessions, mm, cfg.AllowedOrigins)
	sessions.SetSink(ws)
	mm.SetNotifier(ws)

	go mm.Sweep(ctx, matchSweepInterval)

	mux := http.NewServeMux()
	httpapi.New(signer, st, sessions, mm, ws).Routes(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logw.Infof(ctx, "chessarena: listening on %s (env=%s, data=%s)", cfg.Addr, cfg.Env, cfg.DataDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logw.Infof(ctx, "chessarena: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
