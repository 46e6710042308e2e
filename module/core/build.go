package core

import (
	"database/sql"
	"fmt"
	"math/rand/v2"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nandanugg/region-notifier/module/core/domain"
	handler "github.com/nandanugg/region-notifier/module/core/internal/handler/http"
	"github.com/nandanugg/region-notifier/module/core/internal/handler/subscriber"
	redisCache "github.com/nandanugg/region-notifier/module/core/internal/repository/cache/redis"
	"github.com/nandanugg/region-notifier/module/core/internal/repository/database/postgres"
	"github.com/nandanugg/region-notifier/module/core/internal/repository/publisher/rabbitmq"
	"github.com/nandanugg/region-notifier/module/core/service"
)

type Options struct {
	Regions     []domain.Region
	LoadCatalog handler.CatalogLoader
	FixTopic    string
	DedupTTL    time.Duration
	// Rand picks notification content. Nil seeds from the runtime.
	Rand *rand.Rand
	Log  zerolog.Logger
}

type Module struct {
	GeofenceSvc *service.GeofenceService
	TrackingSvc *service.TrackingService

	publisher     *rabbitmq.NotificationPublisher
	fixHandler    *handler.FixHandler
	regionHandler *handler.RegionHandler
	subscriber    *subscriber.FixSubscriber
}

func Build(db *sql.DB, amqpConn *amqp.Connection, redisClient *redis.Client, opts Options) (*Module, error) {
	fixRepo := postgres.NewFixRepo(db)
	transitionRepo := postgres.NewTransitionRepo(db)
	dedup := redisCache.NewFixDeduper(redisClient, opts.DedupTTL)

	notificationPub, err := rabbitmq.NewNotificationPublisher(amqpConn)
	if err != nil {
		return nil, fmt.Errorf("notification publisher: %w", err)
	}

	geofenceOpts := []service.Option{
		service.WithRecorder(transitionRepo),
		service.WithLogger(opts.Log.With().Str("component", "geofence").Logger()),
	}
	if opts.Rand != nil {
		geofenceOpts = append(geofenceOpts, service.WithRand(opts.Rand))
	}
	geofenceSvc, err := service.NewGeofenceService(notificationPub, opts.Regions, geofenceOpts...)
	if err != nil {
		_ = notificationPub.Close()
		return nil, fmt.Errorf("geofence service: %w", err)
	}

	locationSvc := service.NewLocationService(fixRepo, dedup)
	transitionSvc := service.NewTransitionService(transitionRepo)
	trackingSvc := service.NewTrackingService(locationSvc, geofenceSvc, opts.Log.With().Str("component", "tracking").Logger())

	return &Module{
		GeofenceSvc:   geofenceSvc,
		TrackingSvc:   trackingSvc,
		publisher:     notificationPub,
		fixHandler:    handler.NewFixHandler(trackingSvc, locationSvc),
		regionHandler: handler.NewRegionHandler(geofenceSvc, transitionSvc, opts.LoadCatalog),
		subscriber:    subscriber.NewFixSubscriber(opts.FixTopic, trackingSvc, opts.Log),
	}, nil
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	m.fixHandler.Register(r)
	m.regionHandler.Register(r)
}

// OnConnect subscribes the foreground fix stream. Hand it to the MQTT client
// so the subscription is restored after a reconnect.
func (m *Module) OnConnect(c mqtt.Client) {
	m.subscriber.OnConnect(c)
}

func (m *Module) Close() error {
	return m.publisher.Close()
}
