package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/glyphedit/glyphedit/internal/auth"
	"github.com/glyphedit/glyphedit/internal/collab"
	"github.com/glyphedit/glyphedit/internal/config"
	"github.com/glyphedit/glyphedit/internal/engine"
	"github.com/glyphedit/glyphedit/internal/font"
	mw "github.com/glyphedit/glyphedit/internal/middleware"
	"github.com/glyphedit/glyphedit/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	engine.SetLogger(logger.With("component", "engine"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := store.Migrate(ctx, pool); err != nil {
		slog.Error("migrate database", "error", err)
		os.Exit(1)
	}

	queries := store.New(pool)

	authService := auth.NewService(queries, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	fontService := font.NewService(queries)
	fontHandler := font.NewHandler(fontService)

	// Rooms load the latest snapshot on first join and save a new one
	// when the last editor leaves.
	hub := collab.NewHub(fontService.LoadFont, fontService.SaveFont, engine.SettingsFrom(cfg))
	go hub.Run()

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/fonts", fontHandler.List).Methods("GET")
	api.HandleFunc("/fonts", fontHandler.Create).Methods("POST")
	api.HandleFunc("/fonts/upload", fontHandler.Upload).Methods("POST")
	api.HandleFunc("/fonts/{fontId}", fontHandler.Get).Methods("GET")
	api.HandleFunc("/fonts/{fontId}", fontHandler.Delete).Methods("DELETE")
	api.HandleFunc("/fonts/{fontId}/invite", fontHandler.Invite).Methods("POST")
	api.HandleFunc("/fonts/{fontId}/members", fontHandler.ListMembers).Methods("GET")
	api.HandleFunc("/fonts/{fontId}/members/{userId}", fontHandler.RemoveMember).Methods("DELETE")
	api.HandleFunc("/fonts/{fontId}/snapshots/latest", fontHandler.GetLatestSnapshot).Methods("GET")

	// WebSocket endpoint
	originHosts := mw.OriginHosts(cfg.Origins())
	r.HandleFunc("/ws/font/{fontId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, fontService, originHosts)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop hub first to save all dirty fonts
		slog.Info("saving all fonts...")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr,
		"grid", cfg.GridUnit, "margin", cfg.SelectionMargin, "backend", cfg.OutlineBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, fontSvc *font.Service, originHosts []string) {
	fontID := mux.Vars(r)["fontId"]

	var userID string
	var displayName string

	// The playground font allows anonymous access
	if fontID == font.PlaygroundFontID {
		userID = "anon-" + uuid.New().String()[:8]
		displayName = "Anonymous"
	} else {
		token, ok := auth.TokenFromRequest(r)
		if !ok {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		claims, err := authSvc.ParseToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		userID = claims.Subject

		if err := fontSvc.CheckMembership(r.Context(), fontID, userID); err != nil {
			if errors.Is(err, font.ErrNotMember) {
				http.Error(w, "not a font member", http.StatusForbidden)
				return
			}
			slog.Error("check membership", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		// Older tokens carry no name.
		displayName = claims.Name
		if displayName == "" {
			user, err := authSvc.GetUser(r.Context(), userID)
			if err != nil {
				http.Error(w, "user not found", http.StatusInternalServerError)
				return
			}
			displayName = user.DisplayName
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originHosts,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := collab.NewClient(hub, conn, userID, displayName, fontID, clientID)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
