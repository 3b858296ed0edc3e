// codewright - coding assistant agent served over a WebSocket connection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/nbrandt/codewright/config"
	"github.com/nbrandt/codewright/llm"
	"github.com/nbrandt/codewright/server"
	"github.com/nbrandt/codewright/tools"
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

	client, err := buildClient(context.Background(), cfg)
	if err != nil {
		slog.Error("Failed to initialize model client", "provider", cfg.Provider, "error", err)
		os.Exit(1)
	}
	slog.Info("Model client ready", "provider", cfg.Provider, "model", cfg.Model)

	registry := buildRegistry(cfg)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	server.NewHandler(cfg, client, registry, logger).RegisterRoutes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown failed", "error", err)
	}
}

// buildClient selects the model provider from configuration. The mock
// provider keeps the server usable without credentials.
func buildClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	switch cfg.Provider {
	case "openai":
		return llm.NewOpenAIClient(cfg.Model)
	case "anthropic":
		return llm.NewAnthropicClient(cfg.Model)
	case "gemini":
		return llm.NewGeminiClient(ctx, cfg.Model)
	case "bedrock":
		return llm.NewBedrockClient(ctx, cfg.Model)
	default:
		return &llm.MockClient{}, nil
	}
}

// buildRegistry registers the fixed tool catalog. The registry is shared
// read-only across sessions; the mode policy decides per session which
// subset is advertised to the model.
func buildRegistry(cfg *config.Config) *tools.Registry {
	registry := tools.NewRegistry()
	registry.Register(tools.NewReadFileTool(&cfg.FilesystemAccess))
	registry.Register(tools.NewWriteFileTool(&cfg.FilesystemAccess))
	registry.Register(tools.NewRunCommandTool(cfg.ShellTimeout(), cfg.AllowedCommands))
	registry.Register(tools.NewWebSearchTool())
	return registry
}
