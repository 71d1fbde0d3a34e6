package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"linkhub/domain/model"
	"linkhub/domain/repository"
	"linkhub/infrastructure/clients/platform"
	"linkhub/infrastructure/clients/social"
	youtubeclient "linkhub/infrastructure/clients/youtube"
	"linkhub/infrastructure/configuration"
	"linkhub/infrastructure/logger"
	"linkhub/infrastructure/persistence"
	"linkhub/infrastructure/pubsub"
	"linkhub/infrastructure/realtime"
	"linkhub/infrastructure/servicebus"
	"linkhub/infrastructure/worker"
	"linkhub/usecase"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"gorm.io/gorm"
)

// Job names accepted by run-job and POST /api/jobs/:name/run
const (
	JobScheduler    = "scheduler"
	JobPublisher    = "publisher"
	JobTokenRefresh = "token-refresh"
	JobAnalytics    = "analytics"
)

// app holds the dependencies shared by every command. Optional backends are
// nil when they are not configured.
type app struct {
	db       *sql.DB
	vendor   string
	mongo    *mongo.Client
	metricDB *gorm.DB

	posts    repository.IPost
	accounts repository.ISocialAccount
	registry *platform.Registry
	hub      *realtime.Hub

	notifications *usecase.NotificationUsecase
	tokens        *usecase.TokenStore
	refresher     *usecase.TokenRefresher
	runner        *worker.Runner
}

func newApp(ctx context.Context) (*app, error) {
	db, vendor, err := InitiateDatabase()
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	a := &app{db: db, vendor: vendor, hub: realtime.NewPostHub()}
	if vendor == "mssql" {
		a.posts = persistence.NewPostRepositoryMSSQL(db)
		a.accounts = persistence.NewSocialAccountRepositoryMSSQL(db)
	} else {
		a.posts = persistence.NewPostRepository(db)
		a.accounts = persistence.NewSocialAccountRepository(db)
	}

	a.mongo = connectMongo(ctx)
	a.metricDB = connectMetrics()
	a.registry = newRegistry()

	var store repository.INotification
	if a.mongo != nil {
		repo := persistence.NewNotificationRepository(a.mongo, configuration.C.Database.Mongo.Name)
		if err := repo.EnsureIndexes(ctx); err != nil {
			logger.GetLogger().WithField("error", err).Warn("Failed to create notification indexes")
		}
		store = repo
	}
	a.notifications = usecase.NewNotificationUsecase(store, newEventBus(ctx), nil)
	a.tokens = usecase.NewTokenStore(a.accounts, nil)

	jobs := configuration.C.Jobs
	a.refresher = usecase.NewTokenRefresher(a.accounts, a.registry, a.notifications, nil).
		WithWindows(jobs.RefreshWindow, jobs.AlertWindow)

	if err := a.registerJobs(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) registerJobs() error {
	jobs := configuration.C.Jobs
	scheduler := usecase.NewScheduler(a.posts, a.hub, nil)
	publisher := usecase.NewPublisher(a.posts, a.accounts, a.registry, a.notifications, a.hub, nil).
		WithBatchSize(jobs.PublisherBatchSize)

	a.runner = worker.NewRunner()
	list := []worker.Job{
		{Name: JobScheduler, Spec: jobs.SchedulerSpec, Run: counted(JobScheduler, scheduler.Run)},
		{Name: JobPublisher, Spec: jobs.PublisherSpec, Run: counted(JobPublisher, publisher.Run)},
		{Name: JobTokenRefresh, Spec: jobs.TokenRefreshSpec, Run: a.refresher.Run},
	}
	if a.metricDB != nil {
		collector := usecase.NewAnalyticsCollector(a.accounts, a.registry, persistence.NewPostMetricRepository(a.metricDB), nil)
		list = append(list, worker.Job{Name: JobAnalytics, Spec: jobs.AnalyticsSpec, Run: counted(JobAnalytics, collector.Run)})
	} else {
		logger.GetLogger().Info("Metrics database not configured; analytics job disabled")
	}
	for _, job := range list {
		if err := a.runner.Register(job); err != nil {
			return err
		}
	}
	return nil
}

// counted adapts a job that reports how many items it handled
func counted(name string, run func(ctx context.Context) (int, error)) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		n, err := run(ctx)
		if n > 0 {
			logger.GetLogger().WithFields(map[string]interface{}{"job": name, "items": n}).Info("Job processed items")
		}
		return err
	}
}

func (a *app) Close(ctx context.Context) {
	a.notifications.Wait()
	if a.mongo != nil {
		_ = a.mongo.Disconnect(ctx)
	}
	if a.metricDB != nil {
		if sqlDB, err := a.metricDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = a.db.Close()
}

// InitiateDatabase opens the primary store: SQL Server when DB_VENDOR=mssql or
// in production, PostgreSQL otherwise
func InitiateDatabase() (*sql.DB, string, error) {
	env := os.Getenv("ENV")
	vendor := strings.ToLower(configuration.C.Database.Vendor)
	if vendor == "" && (env == "production" || env == "prod") {
		vendor = "mssql"
	}
	if vendor == "mssql" {
		db, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL")
			return nil, "", err
		}
		return db, vendor, nil
	}
	db, err := persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to PostgreSQL")
		return nil, "", err
	}
	return db, "postgres", nil
}

func connectMongo(ctx context.Context) *mongo.Client {
	cfg := configuration.C.Database.Mongo
	if cfg.Host == "" {
		logger.GetLogger().Info("MongoDB not configured; notifications are logged only")
		return nil
	}
	client, err := persistence.NewMongoDb(cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing without stored notifications")
		return nil
	}
	if err := client.Ping(ctx, nil); err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - continuing without stored notifications")
		_ = client.Disconnect(ctx)
		return nil
	}
	logger.GetLogger().Info("MongoDB connected successfully")
	return client
}

func connectMetrics() *gorm.DB {
	if configuration.C.Database.MySql.Host == "" {
		return nil
	}
	db, err := persistence.NewMetricsDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Metrics database not available")
		return nil
	}
	return db
}

func newEventBus(ctx context.Context) repository.IEventPublisher {
	switch strings.ToLower(configuration.C.Events.Bus) {
	case "pubsub":
		client, err := pubsub.NewPubSub(ctx, configuration.C.Pubsub.ProjectID)
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while instantiate PubSub")
			return nil
		}
		return pubsub.NewEventPublisher(client, configuration.C.Pubsub.TopicID)
	case "servicebus":
		client, err := servicebus.NewServiceBus(ctx, configuration.C.ServiceBus.Namespace)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - notification events disabled")
			return nil
		}
		return servicebus.NewQueuePublisher(client, configuration.C.ServiceBus.Queue)
	}
	return nil
}

// newRegistry registers an adapter for every platform with client credentials
func newRegistry() *platform.Registry {
	registry := platform.NewRegistry(configuration.C.Jobs.AdapterTimeout)
	for _, p := range model.AllPlatforms() {
		client := configuration.PlatformClient(string(p))
		if !client.Configured() {
			logger.GetLogger().WithField("platform", p).Info("Platform credentials not configured; adapter disabled")
			continue
		}
		adapter, err := newAdapter(p, client)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Skipping platform adapter")
			continue
		}
		registry.Register(adapter, client.RatePerMinute)
	}
	logger.GetLogger().WithField("platforms", registry.Platforms()).Info("Platform adapters registered")
	return registry
}

func newAdapter(p model.Platform, client configuration.OAuthClient) (repository.IPlatformAdapter, error) {
	switch p {
	case model.PlatformTwitter:
		return social.NewTwitter(client), nil
	case model.PlatformFacebook:
		return social.NewFacebook(client), nil
	case model.PlatformInstagram:
		return social.NewInstagram(client), nil
	case model.PlatformLinkedIn:
		return social.NewLinkedIn(client), nil
	case model.PlatformTikTok:
		return social.NewTikTok(client), nil
	case model.PlatformYouTube:
		return youtubeclient.NewYouTubeClient(client), nil
	}
	return nil, errors.New("no adapter for " + string(p))
}
