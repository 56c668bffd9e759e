package main

import (
	"log"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/config"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/d1"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/database"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/handler"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/middleware"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/queue"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/reset"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/router"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/store"
)

func main() {
	cfg := config.Load()
	backend := database.ResolveBackend(cfg)

	var (
		db   *gorm.DB
		exec store.Executor
	)
	switch backend {
	case database.BackendServerless:
		exec = d1.NewClient(cfg.D1AccountID, cfg.D1DatabaseID, cfg.D1APIToken)
		log.Printf("storage: cloudflare d1 (database %s)", cfg.D1DatabaseID)
	default:
		var err error
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		log.Printf("storage: %s", backend)
	}

	rdb := config.NewRedisClient()
	resets := reset.NewStore(rdb)

	if cfg.AMQPURL != "" {
		go func() {
			if err := queue.StartNotificationConsumer(cfg.AMQPURL); err != nil {
				log.Printf("notification consumer stopped: %v", err)
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(middleware.SessionProvider(middleware.SessionDeps{Backend: backend, DB: db, Exec: exec}))

	rlCfg := config.LoadRateLimitConfig()
	if rlCfg.Enabled {
		e.Use(middleware.NewTokenBucket(rlCfg, rdb))
	}
	var cache echo.MiddlewareFunc
	cacheCfg := config.LoadCacheConfig()
	if cacheCfg.Enabled && rdb != nil {
		cache = middleware.NewRedisCache(cacheCfg, rdb)
	}

	router.RegisterSystem(e, handler.NewSystemHandler(cfg, backend, db, exec))
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, resets), cfg.JWTSecret)
	router.RegisterParticipant(e, handler.NewParticipantHandler(cfg), cfg.JWTSecret)
	router.RegisterSupervisor(e, handler.NewSupervisorHandler(cfg), cfg.JWTSecret, cache)
	router.RegisterAdmin(e, handler.NewAdminHandler(cfg), cfg.JWTSecret, cache)
	router.RegisterSettings(e, handler.NewSettingsHandler(), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, backend=%s)", addr, cfg.Env, backend)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
