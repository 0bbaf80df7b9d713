package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"

	api "github.com/venturelens/venturelens/internal/api/http"
	auth "github.com/venturelens/venturelens/internal/auth/middleware"
	"github.com/venturelens/venturelens/internal/chat"
	"github.com/venturelens/venturelens/internal/config"
	"github.com/venturelens/venturelens/internal/db"
	"github.com/venturelens/venturelens/internal/handoff"
	"github.com/venturelens/venturelens/internal/rbac"
	"github.com/venturelens/venturelens/internal/startup"
	"github.com/venturelens/venturelens/internal/storage"
	syncx "github.com/venturelens/venturelens/internal/sync"
	"github.com/venturelens/venturelens/internal/webhook"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
}

func serve(cfg config.Config) error {
	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	driver := db.Driver(cfg.DBDriver)
	dbh, err := db.Open(ctx, driver, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer dbh.Close()

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		return err
	}

	r := newRouter(cfg, dbh, driver, bs)

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func newRouter(cfg config.Config, dbh *sql.DB, driver db.Driver, bs storage.BlobStore) http.Handler {
	repo := startup.NewSQLStore(dbh, driver.SQLName())
	hooks := webhook.New(webhook.Config{
		ScoringURL:   cfg.ScoringWebhookURL,
		AnomalyURL:   cfg.AnomalyWebhookURL,
		IngestURL:    cfg.IngestWebhookURL,
		ChatURL:      cfg.ChatWebhookURL,
		TokenURL:     cfg.WebhookTokenURL,
		ClientID:     cfg.WebhookClientID,
		ClientSecret: cfg.WebhookClientSecret,
		Timeout:      cfg.WebhookTimeout,
	})
	events := syncx.NewEventRepo(dbh)
	svc := startup.NewService(repo, bs, hooks, events, handoff.New[startup.Detail](cfg.HandoffTTL))
	if cfg.PublicURL != "" {
		svc.DeckBaseURL = strings.TrimSuffix(cfg.PublicURL, "/") + "/decks/"
	}

	var advisor chat.Responder
	switch {
	case cfg.AnthropicAPIKey != "":
		advisor = chat.NewAnthropicResponder(cfg.AnthropicAPIKey, cfg.ChatModel)
	case hooks.HasChat():
		advisor = chat.NewWebhookResponder(hooks)
	}

	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)
	users := auth.NewUserStore(dbh, cfg.AdminUser, cfg.AdminPassHash)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, users))
	r.Get("/healthz", api.Healthz)
	r.Get("/readyz", api.Readyz(dbh))

	// Protected API (JWT → role from DB → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh, cfg.Mode == config.ModeOffline))

		// Submission waits on the scoring webhook, so it gets the webhook budget.
		pr.With(rbac.Require("startup:submit"), middleware.Timeout(cfg.WebhookTimeout+30*time.Second)).
			Post("/startups", api.SubmitStartupHandler(svc, cfg.MaxUploadMB<<20))

		pr.Group(func(gr chi.Router) {
			gr.Use(middleware.Timeout(30 * time.Second))

			// Founder
			gr.With(rbac.Require("startup:view-own")).
				Get("/founder/startup", api.FounderStartupHandler(repo))
			gr.With(rbac.Require("startup:view-own")).
				Get("/founder/analysis", api.FounderAnalysisHandler(svc))

			// Investor
			gr.With(rbac.Require("dealflow:view")).
				Get("/startups", api.ListStartupsHandler(repo))
			gr.With(rbac.Require("portfolio:view")).
				Get("/portfolio", api.PortfolioHandler(repo))
			gr.With(rbac.Require("alerts:view")).
				Get("/alerts", api.AlertsHandler(repo))

			// Investor or owning founder; ownership is checked in the handler.
			gr.With(rbac.RequireAny("dealflow:view", "startup:view-own")).
				Get("/startups/{id}", api.GetStartupHandler(repo))
			gr.With(rbac.RequireAny("dealflow:view", "startup:view-own")).
				Get("/startups/{id}/report", api.StartupReportHandler(repo))
			gr.Route("/decks", func(dr chi.Router) { api.MountDecks(dr, bs) })

			// Admin
			gr.With(rbac.Require("events:view")).
				Get("/events", api.EventsHandler(events))
		})

		pr.With(rbac.Require("chat:send"), middleware.Timeout(cfg.WebhookTimeout)).
			Post("/chat", api.ChatHandler(advisor))
	})
	return r
}
