package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/viktor-siropol/taskhub/internal/auth"
	"github.com/viktor-siropol/taskhub/internal/config"
	"github.com/viktor-siropol/taskhub/internal/database"
	"github.com/viktor-siropol/taskhub/internal/email"
	"github.com/viktor-siropol/taskhub/internal/logging"
	"github.com/viktor-siropol/taskhub/internal/project"
	"github.com/viktor-siropol/taskhub/internal/server"
)

const logMaxSize = 10 << 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logFile, err := logging.NewRotatingFileWriter(cfg.LogFile, logMaxSize, 3)
	if err != nil {
		log.Fatalf("open log file: %v", err)
	}
	defer logFile.Close()
	log.SetOutput(io.MultiWriter(os.Stdout, logFile))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	if err := database.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	users := auth.NewUserRepository(db)
	tokens := auth.NewTokenRepository(db)
	issuer := auth.NewTokenService([]byte(cfg.JWTSecret))
	hasher := auth.NewBcryptHasher()
	mailer := email.NewSender(cfg.Email)
	authSvc := auth.NewService(users, tokens, issuer, hasher, mailer, cfg.FrontendURL)
	projects := project.NewRepository(db)

	srv := server.NewServer(cfg, authSvc, users, projects)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("listening on :%s", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server: %v", err)
	}
}
