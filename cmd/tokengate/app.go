package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/akondratenko/tokengate/internal/db"
	"github.com/akondratenko/tokengate/internal/handlers"
	"github.com/akondratenko/tokengate/internal/logger"
	"github.com/akondratenko/tokengate/internal/repository"
	"github.com/akondratenko/tokengate/internal/repository/memory"
	"github.com/akondratenko/tokengate/internal/repository/postgres"
	"github.com/akondratenko/tokengate/internal/service/google"
	"github.com/akondratenko/tokengate/internal/service/session"
	"github.com/akondratenko/tokengate/internal/token"
)

// Federated tokens live longer than credential flow ones and there is no
// refresh token to back them up
const federatedAccessTTL = 60 * time.Minute

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	// Outside prod a missing key gets an ephemeral one: fine for local runs,
	// all tokens die with the process
	secretKey, err := ensureSecret(c.SecretKey, "SECRET_KEY", logger)
	if err != nil {
		return nil, err
	}
	googleSecretKey, err := ensureSecret(c.GoogleSecretKey, "GOOGLE_SECRET_KEY", logger)
	if err != nil {
		return nil, err
	}

	// Initialize the principal store
	users, err := newUserRepo(ctx, c.DatabaseDSN, logger)
	if err != nil {
		return nil, fmt.Errorf("error while initializing user repo. Err: %w", err)
	}

	// One token manager per signing context
	sessionManager, err := token.New(token.Config{SecretKey: secretKey})
	if err != nil {
		return nil, fmt.Errorf("error while creating session token manager. Err: %w", err)
	}
	federatedManager, err := token.New(token.Config{
		SecretKey: googleSecretKey,
		AccessTTL: federatedAccessTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating federated token manager. Err: %w", err)
	}

	// Initialize services
	sessionService, err := session.NewService(session.Config{
		Manager: sessionManager,
		Users:   users,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating session service. Err: %w", err)
	}

	googleClient := google.NewClient(google.ClientConfig{
		ClientID:     c.GoogleClientID,
		ClientSecret: c.GoogleClientSecret,
		TokenURL:     c.GoogleTokenURL,
		TokenInfoURL: c.GoogleTokenInfoURL,
	}, logger)

	googleService, err := google.NewService(google.Config{
		Manager:  federatedManager,
		Provider: googleClient,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating google service. Err: %w", err)
	}

	mux := handlers.NewRouter(sessionService, googleService, logger)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
	}, nil
}

// newUserRepo connects to postgres when a DSN is given, otherwise falls back
// to the in-memory store seeded with the demo user
func newUserRepo(ctx context.Context, dsn string, l logger.Logger) (repository.UserRepo, error) {
	if dsn != "" {
		pool, err := db.ConnectAndMigrate(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
		}
		return &postgres.UserRepo{DB: pool}, nil
	}

	l.Warn("No database configured, using in-memory user store with the demo user")

	users := memory.NewUserRepo()
	hash, err := session.BcryptHasher{}.Hash("secret123")
	if err != nil {
		return nil, err
	}
	_, err = users.CreateUser(ctx, repository.CreateUserParams{
		Username:     "alice",
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	return users, nil
}

func ensureSecret(value string, name string, l logger.Logger) (string, error) {
	if value != "" {
		return value, nil
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("error while generating ephemeral %s: %w", name, err)
	}

	l.Warn("Secret key not set, generated an ephemeral one", "key", name)
	return hex.EncodeToString(b), nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
