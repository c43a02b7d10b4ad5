package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/pekoMaster/ticketticket/internal/config"
	"github.com/pekoMaster/ticketticket/internal/database"
	"github.com/pekoMaster/ticketticket/internal/handler"
	"github.com/pekoMaster/ticketticket/internal/middleware"
	"github.com/pekoMaster/ticketticket/internal/queue"
	"github.com/pekoMaster/ticketticket/internal/repository"
	"github.com/pekoMaster/ticketticket/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	listings := repository.NewListingRepo(db)
	applications := repository.NewApplicationRepo(db)
	conversations := repository.NewConversationRepo(db)
	messages := repository.NewMessageRepo(db)
	notifications := repository.NewNotificationRepo(db)
	reports := repository.NewReportRepo(db)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	publicH := handler.NewPublicHandler(listings)
	hostH := handler.NewHostHandler(cfg, listings, users, notifications)
	appH := handler.NewApplicationHandler(listings, applications, conversations, messages, notifications)
	convH := handler.NewConversationHandler(listings, applications, conversations, messages, users, notifications)
	notifH := handler.NewNotificationHandler(notifications)
	reportH := handler.NewReportHandler(reports, users)
	adminH := handler.NewAdminHandler(users, listings, reports)

	e := echo.New()
	e.HideBanner = true

	// Redis backs the token-bucket rate limiter and the response cache
	// on the public browse endpoints.  Both fail open when the broker
	// is down, so a dead Redis degrades to uncached, unlimited reads.
	rdb := config.NewRedisClient()
	var browseMW []echo.MiddlewareFunc
	if rlCfg := config.LoadRateLimitConfig(); rlCfg.Enabled {
		browseMW = append(browseMW, middleware.NewTokenBucket(rlCfg, rdb))
	}
	if cCfg := config.LoadCacheConfig(); cCfg.Enabled {
		browseMW = append(browseMW, middleware.NewRedisCache(cCfg, rdb))
	}

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, browseMW...)
	router.RegisterListings(e, hostH, appH, convH, cfg.JWTSecret)
	router.RegisterApplications(e, appH, cfg.JWTSecret)
	router.RegisterConversations(e, convH, cfg.JWTSecret)
	router.RegisterReports(e, reportH, notifH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	// Background consumer for the notification queue.  It keeps its
	// own connection and reconnects on failure.
	go func() {
		if err := queue.StartDispatchConsumer(cfg.DiscordWebhookURL); err != nil {
			log.Printf("dispatch consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
