package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/nandanugg/region-notifier/config"
	"github.com/nandanugg/region-notifier/module/core"
	"github.com/nandanugg/region-notifier/module/core/catalog"
	"github.com/nandanugg/region-notifier/module/core/domain"
	"github.com/nandanugg/region-notifier/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log := logger.Init(logger.Options{Service: "region-notifier"})
		log.Fatal().Err(err).Msg("config")
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Service: "region-notifier"})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("shut down")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	loadCatalog := func() ([]domain.Region, error) {
		return catalog.LoadFiles(cfg.Catalog.BoxesPath, cfg.Catalog.NotificationsPath)
	}
	regions, err := loadCatalog()
	if err != nil {
		var invalid *domain.CatalogValidationError
		if errors.As(err, &invalid) {
			for _, p := range invalid.Problems {
				log.Error().Str("problem", p).Msg("catalog")
			}
		}
		return err
	}
	log.Info().Int("regions", len(regions)).Msg("catalog loaded")

	db, err := config.NewPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	amqpConn, err := config.NewRabbitMQ(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = amqpConn.Close() }()

	redisClient, err := config.NewRedis(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()

	var rng *rand.Rand
	if cfg.SelectorSeed != 0 {
		rng = rand.New(rand.NewPCG(cfg.SelectorSeed, cfg.SelectorSeed))
	}

	coreModule, err := core.Build(db, amqpConn, redisClient, core.Options{
		Regions:     regions,
		LoadCatalog: loadCatalog,
		FixTopic:    cfg.MQTTFixTopic,
		DedupTTL:    cfg.Redis.DedupTTL,
		Rand:        rng,
		Log:         log,
	})
	if err != nil {
		return err
	}
	defer func() { _ = coreModule.Close() }()

	mqttClient, err := config.NewMQTT(cfg, log, coreModule.OnConnect)
	if err != nil {
		return err
	}
	defer mqttClient.Disconnect(250)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	config.NewHealthChecker(db, amqpConn, mqttClient, redisClient).Register(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	coreModule.RegisterRoutes(&r.RouterGroup)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ev := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
