package main

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"rideshare/internal/app"
	"rideshare/internal/auth"
	"rideshare/internal/config"
	"rideshare/internal/llm"
	"rideshare/internal/mail"
	"rideshare/internal/maps"
	internalRedis "rideshare/internal/redis"
	"rideshare/internal/repository/postgres"
	"rideshare/internal/service"
)

// infra holds the external connections shared by every command.
type infra struct {
	db          *sql.DB
	redisClient *redis.Client
	nrApp       *newrelic.Application
}

func connect(ctx context.Context, cfg *config.Config) (*infra, error) {
	nrApp := app.NewNewRelic(cfg.NewRelic)

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		return nil, err
	}
	slog.Info("connected to PostgreSQL")

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		db.Close()
		return nil, err
	}
	slog.Info("connected to Redis")

	return &infra{db: db, redisClient: redisClient, nrApp: nrApp}, nil
}

// Close releases the connections.
func (i *infra) Close() {
	if err := i.redisClient.Close(); err != nil {
		slog.Warn("failed to close redis", "error", err)
	}
	if err := i.db.Close(); err != nil {
		slog.Warn("failed to close database", "error", err)
	}
	if i.nrApp != nil {
		i.nrApp.Shutdown(0)
	}
}

// services holds the wired domain services.
type services struct {
	registry  *prometheus.Registry
	tokens    *auth.JWTManager
	events    *internalRedis.EventBus
	notifier  *service.NotificationService
	auth      *service.AuthService
	profiles  *service.ProfileService
	rooms     *service.RoomService
	discovery *service.DiscoveryService
	routes    *service.RouteService
	assistant *service.AssistantService
	reaper    *service.Reaper
}

func wireServices(deps *infra, cfg *config.Config) *services {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := service.NewMetrics(registry)

	// Redis stores.
	locationStore := internalRedis.NewLocationStore(deps.redisClient)
	lockStore := internalRedis.NewLockStore(deps.redisClient)
	cacheStore := internalRedis.NewCacheStore(deps.redisClient)
	eventBus := internalRedis.NewEventBus(deps.redisClient)

	// Repositories.
	userRepo := postgres.NewUserRepository(deps.db)
	roomRepo := postgres.NewRoomRepository(deps.db)
	pushRepo := postgres.NewPushSubscriptionRepository(deps.db)

	// External services. Interfaces stay nil when disabled.
	var geocoder service.Geocoder
	var router service.RouteFinder
	if cfg.Maps.Enabled {
		geocoder = maps.NewGeocoder(cfg.Maps.NominatimURL, cfg.Maps.Region, cfg.Maps.UserAgent, cfg.Maps.Timeout)
		router = maps.NewRouter(cfg.Maps.OSRMURL, cfg.Maps.UserAgent, cfg.Maps.Timeout)
	}

	var generator llm.Generator
	if gemini, err := llm.NewGeminiGenerator(context.Background(), cfg.Assistant.APIKey, cfg.Assistant.Model, cfg.Assistant.Timeout); err == nil {
		generator = gemini
	} else {
		slog.Warn("assistant disabled", "error", err)
	}

	var pushOptions *webpush.Options
	if cfg.Push.PushEnabled() {
		pushOptions = &webpush.Options{
			Subscriber:      cfg.Push.Subject,
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			TTL:             cfg.Push.TTL,
		}
	}

	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.VerificationTTL)
	notifier := service.NewNotificationService(pushRepo, pushOptions, cfg.Push.Workers, metrics)
	switch {
	case cfg.Mail.Enabled():
		notifier.SetMailer(mail.NewSMTPMailer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From, cfg.Mail.Timeout))
	case cfg.Auth.RequireVerification && !cfg.Auth.ExposeVerificationToken:
		slog.Warn("mail not configured, new accounts cannot be verified")
	}
	if cfg.Auth.ExposeVerificationToken {
		slog.Warn("verification tokens are returned in sign-up responses")
	}

	rooms := service.NewRoomService(service.RoomServiceDeps{
		RoomRepo:  roomRepo,
		UserRepo:  userRepo,
		Geocoder:  geocoder,
		Locations: locationStore,
		Cache:     cacheStore,
		Events:    eventBus,
		Notifier:  notifier,
		Metrics:   metrics,
		Settings:  cfg.Rooms,
	})

	return &services{
		registry:  registry,
		tokens:    tokens,
		events:    eventBus,
		notifier:  notifier,
		auth:      service.NewAuthService(userRepo, tokens, notifier, cfg.Auth),
		profiles:  service.NewProfileService(userRepo),
		rooms:     rooms,
		discovery: service.NewDiscoveryService(roomRepo, locationStore, cfg.Rooms.SearchRadiusKm),
		routes:    service.NewRouteService(rooms, geocoder, router, cacheStore),
		assistant: service.NewAssistantService(generator, rooms, metrics),
		reaper: service.NewReaper(service.ReaperDeps{
			RoomRepo:  roomRepo,
			Locks:     lockStore,
			Locations: locationStore,
			Cache:     cacheStore,
			Events:    eventBus,
			Notifier:  notifier,
			Metrics:   metrics,
			Interval:  cfg.Rooms.ReapInterval,
		}),
	}
}
