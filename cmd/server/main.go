package main

import (
	"log"
	"net/http"
	"time"

	"studytrack/internal/api"
	"studytrack/internal/auth"
	"studytrack/internal/config"
	"studytrack/internal/middleware"
	"studytrack/internal/store/sqlstore"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize store
	st, err := sqlstore.New(cfg.DBDriver, cfg.DBConn)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer st.Close()

	tokens := auth.NewTokenService(cfg.TokenSecret, cfg.TokenTTL, time.Now)
	authn := middleware.NewAuthenticator(tokens, st, logger)

	handlers := api.NewHandlers(st, tokens, logger)
	router := handlers.Router(authn.Middleware)

	handler := middleware.Logging(logger)(router)

	logger.Info("server started",
		zap.String("addr", cfg.Addr),
		zap.String("db_driver", cfg.DBDriver),
		zap.Duration("token_ttl", cfg.TokenTTL))
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
