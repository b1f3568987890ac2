package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/redis/go-redis/v9"

	"stitchkart/internal/config"
	"stitchkart/internal/http/handlers"
	applog "stitchkart/internal/log"
	"stitchkart/internal/marketplace"
	"stitchkart/internal/repos"
	"stitchkart/internal/responder"
	"stitchkart/internal/services"
	"stitchkart/internal/staticdata"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	applog.Init(cfg.Env)

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	staticCatalog, err := staticdata.Load()
	if err != nil {
		log.Fatal(err)
	}

	// ---------- Resolution pipeline (explicit DI, owned here) ----------
	productRepo := repos.NewProductRepo(db)
	quotaSvc := services.NewQuotaService(repos.NewQuotaRepo(db), cfg.Vendor.MonthlyLimit)

	var vendor services.Fetcher
	if cfg.Vendor.APIKey != "" {
		vendor = marketplace.NewClient(
			cfg.Vendor.BaseURL, cfg.Vendor.APIKey, cfg.Vendor.APIHost,
			cfg.Vendor.SourceName,
			time.Duration(cfg.Vendor.TimeoutSeconds)*time.Second,
			productRepo,
		)
	} else {
		applog.Event("vendor.disabled", map[string]any{"reason": "no api key"})
	}
	resolverSvc := services.NewResolverService(productRepo, quotaSvc, vendor, staticCatalog, cfg.Vendor.SourceName)

	// ---------- Responder ----------
	var reply responder.Responder = responder.NewTemplate()
	if cfg.Responder.GeminiAPIKey != "" {
		g, gerr := responder.NewGemini(context.Background(), cfg.Responder.GeminiAPIKey, cfg.Responder.GeminiModel)
		if gerr != nil {
			applog.Warn("responder.gemini.init_failed", gerr, nil)
		} else {
			reply = g
		}
	}

	// ---------- Chat history: Redis when configured, SQLite otherwise ----------
	var history repos.ConversationStore = repos.NewConversationRepo(db)
	if cfg.Redis.URL != "" {
		opts, rerr := redis.ParseURL(cfg.Redis.URL)
		if rerr != nil {
			applog.Warn("redis.config.invalid", rerr, nil)
		} else {
			rdb := redis.NewClient(opts)
			if perr := rdb.Ping(context.Background()).Err(); perr != nil {
				applog.Warn("redis.unreachable", perr, nil)
			} else {
				history = repos.NewRedisConversationStore(rdb, time.Duration(cfg.Redis.HistoryTTLHours)*time.Hour)
			}
		}
	}

	authSvc := &services.AuthService{Users: repos.NewUserRepo(db)}
	chatSvc := services.NewChatService(resolverSvc, reply, history)

	// ---------- HTTP ----------
	engine := html.New("./web/templates", ".html")

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "something went wrong, please try again"})
		},
	})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
	}))

	deps := handlers.NewDeps(chatSvc, resolverSvc, quotaSvc, authSvc)

	app.Get("/", deps.ChatHandler.Page)

	api := app.Group("/api/v1")
	chatLimiter := limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|chat"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.chat.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
	api.Post("/chat", chatLimiter, deps.ChatHandler.Message)
	api.Get("/search", deps.SearchHandler.Search)
	api.Post("/login", deps.AuthHandler.Login)
	api.Post("/logout", deps.AuthHandler.Logout)

	admin := app.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Get("/quota", deps.AdminHandler.QuotaUsage)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}
