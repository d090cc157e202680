package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/mindnotes/mindnotes-backend/internal/auth"
	"github.com/mindnotes/mindnotes-backend/internal/config"
	"github.com/mindnotes/mindnotes-backend/internal/database"
	"github.com/mindnotes/mindnotes-backend/internal/handlers"
	"github.com/mindnotes/mindnotes-backend/internal/logging"
	"github.com/mindnotes/mindnotes-backend/internal/middleware"
	"github.com/mindnotes/mindnotes-backend/internal/routes"
	"github.com/mindnotes/mindnotes-backend/internal/services"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New("mindnotes-backend", os.Getenv("LOG_LEVEL"), cfg.Environment)

	pg, err := database.ConnectPostgres(cfg.PostgresURI)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pg.Close()
	log.Info().Msg("postgres connected")

	mongoClient, mdb, err := database.ConnectMongo(cfg.MongoURI)
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer database.DisconnectMongo(mongoClient)
	log.Info().Str("database", mdb.Name()).Msg("mongo connected")

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureMongoIndexes(indexCtx, mdb); err != nil {
		cancelIndexes()
		log.Fatal().Err(err).Msg("mongo index creation failed")
	}
	cancelIndexes()

	rdb, err := database.ConnectRedis(cfg.RedisURI)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()
	log.Info().Msg("redis connected")

	tokens := auth.NewManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, rdb)
	cache := services.NewCacheService(rdb, cfg.CacheEnabled, cfg.CacheTTL)

	users := services.NewUserService(pg)
	entitlement := services.NewEntitlementService(pg, cfg.TrialDays)
	journals := services.NewJournalService(mdb, pg)
	moods := services.NewMoodService(mdb, pg)
	tags := services.NewTagService(pg)
	sessions := services.NewSessionService(mdb, pg, log)
	reflections := services.NewReflectionService(mdb)
	prompts := services.NewPromptService(mdb, pg)
	programs := services.NewProgramService(pg, mdb)
	dashboard := services.NewDashboardService(users, entitlement, journals, moods, sessions, programs, prompts, cache, log)
	profile := services.NewProfileService(users, entitlement, journals, reflections, cache, log)

	h := routes.Handlers{
		Auth:          handlers.NewAuthHandler(users, tokens, log),
		Journals:      handlers.NewJournalHandler(journals, dashboard),
		Tags:          handlers.NewTagHandler(tags),
		Moods:         handlers.NewMoodHandler(moods, dashboard),
		Focus:         handlers.NewFocusHandler(sessions, dashboard),
		FocusChannel:  handlers.NewFocusChannel(sessions, tokens, log),
		Programs:      handlers.NewProgramHandler(programs, entitlement),
		Reflections:   handlers.NewReflectionHandler(reflections, entitlement, log),
		Prompts:       handlers.NewPromptHandler(prompts, dashboard),
		Subscriptions: handlers.NewSubscriptionHandler(entitlement, profile, dashboard),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Metrics)
	r.Use(middleware.SecurityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimit(rdb))
	r.Use(middleware.LoginRateLimit("/api/v1/auth/login", "/api/v1/auth/signup"))

	r.Get("/health", routes.Health())
	r.Get("/ready", readiness(pg, rdb))
	routes.Mount(r, h, tokens)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}

func readiness(pg *sql.DB, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := pg.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable","component":"postgres"}`))
			return
		}
		if err := rdb.Ping(r.Context()).Err(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable","component":"redis"}`))
			return
		}
		w.Write([]byte(`{"status":"ready"}`))
	}
}
