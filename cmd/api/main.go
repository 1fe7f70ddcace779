package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/calmsphere/calmsphere/internal/api"
	"github.com/calmsphere/calmsphere/internal/chat"
	"github.com/calmsphere/calmsphere/internal/config"
	"github.com/calmsphere/calmsphere/internal/conversation"
	"github.com/calmsphere/calmsphere/internal/credits"
	"github.com/calmsphere/calmsphere/internal/database"
	"github.com/calmsphere/calmsphere/internal/gateway"
	"github.com/calmsphere/calmsphere/internal/genai"
	"github.com/calmsphere/calmsphere/internal/insights"
	"github.com/calmsphere/calmsphere/internal/middleware"
	"github.com/calmsphere/calmsphere/internal/prompt"
	iredis "github.com/calmsphere/calmsphere/internal/redis"
	"github.com/calmsphere/calmsphere/internal/server"
	"github.com/calmsphere/calmsphere/internal/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// PostgreSQL
	if err := database.RunMigrations(cfg.DB.DSN(), cfg.Server.MigrationsPath); err != nil {
		slog.Error("running migrations", "error", err)
		os.Exit(1)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.DB)
	if err != nil {
		slog.Error("connecting to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Redis
	redisClient, err := iredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// Credit ledger
	userStore := credits.NewPostgresStore(pool)
	ledger := credits.NewLedger(userStore, credits.Limits{
		DailyLimit:   cfg.Credits.DailyLimit,
		InputWeight:  cfg.Credits.InputWeight,
		OutputWeight: cfg.Credits.OutputWeight,
	})

	// Conversation storage
	convStore := conversation.NewPostgresStore(pool)
	recentCache := conversation.NewRecentCache(redisClient, cfg.Chat.CasualWindow, cfg.Chat.RecentCacheTTL)

	// Generation gateway
	assembler := prompt.NewAssembler(convStore, cfg.Chat.CasualWindow, cfg.Chat.HistoryLimit)
	gw := gateway.NewGateway(
		ledger,
		assembler,
		genai.NewClient(cfg.Gemini),
		tokens.NewCharEstimator(),
		slog.Default(),
	)

	// Chat
	chatSvc := chat.NewService(gw, convStore, recentCache, cfg.Chat.CasualWindow, cfg.Chat.HistoryLimit, cfg.Chat.DefaultLanguage, slog.Default())
	chatHandler := chat.NewHandler(chatSvc)

	// Insights
	insightSvc := insights.NewService(gw, convStore, userStore, slog.Default())
	insightHandler := insights.NewHandler(insightSvc)

	// Router
	var chatLimiter func(http.Handler) http.Handler
	if cfg.RateLimit.Enabled {
		chatLimiter = middleware.NewRateLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.WindowSec).Middleware
	}

	router := api.NewRouter(pool, redisClient, api.RouterConfig{
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		ChatRateLimiter:    chatLimiter,
	}, api.HandlerSet{
		SendMessage:  chatHandler.Send,
		ChatHistory:  chatHandler.History,
		ClearHistory: chatHandler.Clear,

		Dashboard:      insightHandler.Dashboard,
		Songs:          insightHandler.Songs,
		JournalComment: insightHandler.JournalComment,
		CreditStatus:   insightHandler.CreditStatus,
		EnrollUser:     insightHandler.Enroll,
	})

	// Start server
	srv := server.New(cfg.Server, router)
	if err := srv.Start(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
