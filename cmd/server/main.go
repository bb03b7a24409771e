package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"chatroom/internal/auth"
	"chatroom/internal/config"
	"chatroom/internal/directory"
	"chatroom/internal/feed"
	"chatroom/internal/httpserver"
	"chatroom/internal/presence"
	"chatroom/internal/security"
	"chatroom/internal/store/sqlite"
	"chatroom/internal/ws"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Debug {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	db, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := sqlite.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Stores
	accountRepo := sqlite.NewAccountRepo(db)
	profileRepo := sqlite.NewProfileRepo(db)
	roomRepo := sqlite.NewRoomRepo(db)
	messageRepo := sqlite.NewMessageRepo(db)

	// Security components
	tokenSvc := security.NewTokenService(cfg.JWTSecret, time.Duration(cfg.AccessTokenMinutes)*time.Minute)
	passwordHasher := security.NewPasswordHasher(0)

	// Core components
	identity := auth.NewService(accountRepo, profileRepo, passwordHasher, log.Logger)
	counter := presence.NewCounter(roomRepo, log.Logger)
	dir := directory.New(roomRepo, log.Logger)
	fd := feed.New(messageRepo, roomRepo, counter, log.Logger)

	hub := ws.NewHub()

	router := httpserver.NewRouter(cfg, httpserver.Deps{
		Identity: identity,
		Tokens:   tokenSvc,
		Profiles: profileRepo,
		Rooms:    roomRepo,
		Messages: messageRepo,
		Dir:      dir,
		Feed:     fd,
		Hub:      hub,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr()).Msg("starting chatroom server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
