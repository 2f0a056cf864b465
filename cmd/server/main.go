// randomchat - anonymous matchmaking chat with agent fallback
package main

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/srt/randomchat/internal/api"
	"github.com/srt/randomchat/internal/bot"
	"github.com/srt/randomchat/internal/chat"
	"github.com/srt/randomchat/internal/config"
	"github.com/srt/randomchat/internal/match"
	"github.com/srt/randomchat/internal/middleware"
	"github.com/srt/randomchat/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "bot_enabled", cfg.Bot.Enabled)

	// Initialize matchmaking.
	engine := match.NewEngine()

	// Initialize the fallback conversation engine.
	catalog := bot.DefaultCatalog()
	if cfg.Bot.PersonaFile != "" {
		catalog, err = bot.LoadCatalog(cfg.Bot.PersonaFile)
		if err != nil {
			slog.Error("Failed to load persona catalog", "path", cfg.Bot.PersonaFile, "error", err)
			os.Exit(1)
		}
		slog.Info("Persona catalog loaded", "path", cfg.Bot.PersonaFile, "personas", len(catalog))
	}

	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	personas := bot.NewPersonaAssigner(catalog, rand.New(rand.NewSource(seed)))
	questions := bot.NewQuestionBank(rand.New(rand.NewSource(seed + 1)))
	memory := bot.NewMemoryStore(cfg.Bot.MemoryLimit)
	policy := bot.NewPolicyTracker(cfg.Bot.MaxNoQuestionTurns)
	planner := bot.NewPlanner()

	var generator bot.Generator
	if cfg.Bot.Enabled {
		generator = bot.NewOllamaClient(bot.OllamaConfig{
			BaseURL:     cfg.Bot.BaseURL,
			Model:       cfg.Bot.Model,
			MaxTokens:   cfg.Bot.MaxTokens,
			Temperature: cfg.Bot.Temperature,
		})
		slog.Info("Generation backend configured", "base_url", cfg.Bot.BaseURL, "model", cfg.Bot.Model)
	}

	botSvc := bot.NewService(bot.ServiceConfig{
		Enabled:             cfg.Bot.Enabled,
		SimilarityThreshold: cfg.Bot.SimilarityThreshold,
		MaxWords:            cfg.Bot.MaxWords,
		UnavailableFor:      cfg.Bot.UnavailableFor,
		TypingBase:          cfg.Bot.TypingBase,
		TypingPerChar:       cfg.Bot.TypingPerChar,
		Workers:             cfg.Bot.Workers,
	}, generator, personas, memory, policy, planner, questions)

	// Initialize transport.
	hub := chat.NewHub()
	chatHandler := chat.NewHandler(engine, hub, botSvc, cfg.FrontendURL, cfg.IsDevelopment())
	apiHandler := api.NewHandler(engine, botSvc)

	// Setup router.
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))

	apiHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/chat", chatHandler.ServeHTTP)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 0 = no timeout; WebSocket sessions are long-lived
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Pair long-waiting searchers with the agent so a search never stalls.
	match.StartAgentAssigner(ctx, engine, cfg.Bot.AssignAfter, botSvc.IsEnabled, chatHandler.NotifyAgentAssigned)

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
