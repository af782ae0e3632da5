package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"bookexchange/internal/auth"
	"bookexchange/internal/book"
	"bookexchange/internal/config"
	"bookexchange/internal/httpx"

	"github.com/swaggo/swag"

	_ "bookexchange/docs" // registers the swagger document
)

type app struct {
	cfg         *config.Config
	logger      *slog.Logger
	authService *auth.Service
	bookService *book.Service
	rateLimiter *httpx.RateLimitMiddleware
}

func newApp(cfg *config.Config, logger *slog.Logger, repo book.Repository) *app {
	return &app{
		cfg:         cfg,
		logger:      logger,
		authService: auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.ClientID, cfg.Auth.TokenTTL),
		bookService: book.NewService(repo, book.Options{
			EmptyPageNotFound: cfg.Listing.EmptyPageNotFound,
			ListAllLimit:      cfg.Listing.ListAllLimit,
			MaxByIDs:          cfg.Listing.MaxByIDs,
		}),
		rateLimiter: httpx.NewRateLimitMiddleware(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, cfg.Server.TrustProxyHeaders),
	}
}

func (a *app) routes() http.Handler {
	authHandler := auth.NewHTTPHandler(a.authService, a.logger)
	bookHandler := book.NewHTTPHandler(a.bookService, book.PageDefaults{
		Limit:    a.cfg.Listing.DefaultPageLimit,
		MaxLimit: a.cfg.Listing.MaxPageLimit,
	}, a.logger)

	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := a.bookService.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	router.HandleFunc("GET /docs/doc.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc()
		if err != nil {
			a.logger.Error("read swagger doc failed", "error", err)
			httpx.JSONError(w, r, http.StatusInternalServerError, httpx.CodeInternal, "Internal server error", nil)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	})

	router.HandleFunc("POST /books/auth", authHandler.IssueToken)

	protect := httpx.AuthMiddleware(a.authService)
	handle := func(pattern string, h http.HandlerFunc) {
		router.Handle(pattern, protect(h))
	}

	handle("POST /books", bookHandler.Create)
	handle("POST /books/{$}", bookHandler.Create)
	handle("GET /books", bookHandler.GetAll)
	handle("GET /books/{$}", bookHandler.GetAll)
	handle("GET /books/available-books", bookHandler.ListAvailable)
	handle("GET /books/available-books/{$}", bookHandler.ListAvailable)
	handle("POST /books/by-ids", bookHandler.GetByIDs)
	handle("GET /books/owner/{id}", bookHandler.ListByOwner)
	handle("GET /books/{id}", bookHandler.GetByID)
	handle("PUT /books/{id}", bookHandler.Update)
	handle("DELETE /books/{id}", bookHandler.Delete)

	return httpx.Chain(router,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(a.logger),
		httpx.RecoveryMiddleware(a.logger),
		httpx.SecurityHeadersMiddleware(a.cfg.Server.EnableHSTS),
		httpx.CORSMiddleware(a.cfg.Server.AllowedOrigins),
		a.rateLimiter.Middleware,
		httpx.RequestSizeLimitMiddleware(a.cfg.Server.MaxBodyBytes),
	)
}
