package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linkhub/infrastructure/cache"
	"linkhub/infrastructure/configuration"
	"linkhub/infrastructure/logger"
	httpHandler "linkhub/interfaces/http"
	"linkhub/server"
	"linkhub/usecase"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

type ServeCmd struct {
	Port        int  `help:"Port to listen on; overrides the configured port."`
	NoJobs      bool `help:"Serve the API without running background jobs."`
	SkipMigrate bool `help:"Do not ensure the database schema before serving."`
}

func (s *ServeCmd) Run(cctx *Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	if !s.SkipMigrate {
		if err := ensureSchema(ctx, a); err != nil {
			return err
		}
	}

	redisClient, err := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", configuration.C.RedisClient.Host, configuration.C.RedisClient.Port),
		configuration.C.RedisClient.Username,
		configuration.C.RedisClient.Password,
	)
	if err != nil {
		return fmt.Errorf("redis is required for the connect flow: %w", err)
	}
	defer redisClient.Close()
	logger.GetLogger().Info("Redis client initialized successfully.")

	appConfig := configuration.C.App
	oauthUsecase := usecase.NewOAuthUsecase(cache.NewOAuthStateCache(redisClient), a.registry, a.tokens, nil)
	postUsecase := usecase.NewPostUsecase(a.posts, a.hub, nil)
	probes := map[string]usecase.Probe{
		"database": a.db.PingContext,
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}
	if a.mongo != nil {
		probes["mongo"] = func(ctx context.Context) error { return a.mongo.Ping(ctx, nil) }
	}

	var jobsHandler httpHandler.IJobsHandler
	if !s.NoJobs {
		jobsHandler = httpHandler.NewJobsHandler(a.runner)
	}
	router := server.InitiateRouter(
		appConfig.SecretKey,
		[]string{appConfig.BaseURL, appConfig.FrontendURL},
		httpHandler.NewPostHandler(postUsecase),
		httpHandler.NewSocialHandler(oauthUsecase, a.tokens, a.refresher, appConfig.FrontendURL),
		httpHandler.NewNotificationHandler(a.notifications),
		jobsHandler,
		httpHandler.NewHealthHandler(usecase.NewHealthUsecase(probes)),
		a.hub.Serve,
	)

	port := appConfig.Port
	if s.Port != 0 {
		port = s.Port
	}
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	if !s.NoJobs {
		a.runner.Start(ctx)
		defer a.runner.Stop()
	}

	logger.GetLogger().WithFields(map[string]interface{}{"port": port, "tls": appConfig.TLSEnabled}).Info("Starting application")
	g.Go(func() error {
		var err error
		if appConfig.TLSEnabled && appConfig.TLSCertFile != "" && appConfig.TLSKeyFile != "" {
			logger.GetLogger().WithFields(map[string]interface{}{"cert": appConfig.TLSCertFile, "key": appConfig.TLSKeyFile}).Info("Serving HTTPS")
			err = httpServer.ListenAndServeTLS(appConfig.TLSCertFile, appConfig.TLSKeyFile)
		} else {
			if appConfig.TLSEnabled {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
			}
			err = httpServer.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		select {
		case <-interrupt:
			logger.GetLogger().Info("Application shutdown requested")
		case <-ctx.Done():
		}
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		return err
	}
	return nil
}
