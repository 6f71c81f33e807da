package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cms-portal/internal/access"
	"cms-portal/internal/apiclient"
	"cms-portal/internal/audit"
	"cms-portal/internal/cache"
	"cms-portal/internal/config"
	"cms-portal/internal/httpapi"
	"cms-portal/internal/reporting"
	"cms-portal/internal/session"
	"cms-portal/pkg/logger"
	"cms-portal/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	rules := access.DefaultRules()
	if cfg.Access.RulesFile != "" {
		if rules, err = access.LoadRulesFile(cfg.Access.RulesFile); err != nil {
			log.Error("access rules load failed", "err", err, "file", cfg.Access.RulesFile)
			os.Exit(1)
		}
	}
	classifier, err := access.NewClassifier(rules, access.Options{})
	if err != nil {
		log.Error("access rules invalid", "err", err)
		os.Exit(1)
	}

	// The base client never carries a credential; each request binds its cookie.
	api, err := apiclient.New(session.NewMemoryStore(""), apiclient.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Retry: apiclient.RetryPolicy{
			Max:          cfg.API.RetryMax,
			BaseDelay:    cfg.API.RetryBaseDelay,
			RetryNetwork: cfg.API.RetryNetwork,
		},
		Metrics:   apiclient.NewMetrics(reg),
		UserAgent: "cms-portal",
	})
	if err != nil {
		log.Error("api client init failed", "err", err)
		os.Exit(1)
	}

	var db *sql.DB
	auditRepo := audit.Repository(audit.NewMemoryRepo())
	if cfg.AuditEnabled() {
		db, err = utils.OpenPostgres(rootCtx, utils.PostgresConfig{DSN: cfg.PostgresDSN()})
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()

		repo := audit.NewPostgresRepo(db)
		if err := repo.Migrate(rootCtx); err != nil {
			log.Error("audit migration failed", "err", err)
			os.Exit(1)
		}
		auditRepo = repo
	}

	var (
		rdb       *redis.Client
		pageCache cache.Cache = cache.Noop{}
		limiter   cache.Limiter
	)
	if cfg.Throttle.LoginLimit > 0 {
		limiter = cache.NewMemoryLimiter(cfg.Throttle.LoginLimit, cfg.Throttle.LoginWindow)
	}
	if cfg.CacheEnabled() {
		rdb, err = utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		pageCache = cache.NewRedis(rdb, "portal:page:")
		if limiter != nil {
			limiter = cache.NewRedisLimiter(rdb, "portal:throttle:", cfg.Throttle.LoginLimit, cfg.Throttle.LoginWindow)
		}
	}

	h := httpapi.Handlers{
		API:    api,
		Access: classifier,
		Cookie: session.CookieConfig{
			Name:   cfg.Session.CookieName,
			MaxAge: cfg.Session.MaxAge,
			Secure: cfg.Session.Secure,
		},
		Audit:    audit.NewService(auditRepo),
		Reports:  reporting.NewService(auditRepo),
		Cache:    pageCache,
		CacheTTL: cfg.Cache.TTL,
		Limiter:  limiter,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log, "/healthz", "/metrics"))
	r.Use(access.Middleware(classifier, access.MiddlewareOptions{
		CookieName: cfg.Session.CookieName,
		Observe:    h.ObserveAccess(access.NewMetrics(reg)),
	}))

	registerRoutes(r, h, deps{reg: reg, db: db, rdb: rdb, staticDir: cfg.Access.StaticDir})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("portal listening", "addr", srv.Addr, "env", cfg.App.Env, "upstream", cfg.API.BaseURL,
			"audit_db", cfg.AuditEnabled(), "redis", cfg.CacheEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
