package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"linkhub/infrastructure/configuration"
	"linkhub/infrastructure/logger"
	"linkhub/infrastructure/persistence"
	"linkhub/infrastructure/utils"
)

func ensureSchema(ctx context.Context, a *app) error {
	var err error
	if a.vendor == "mssql" {
		err = persistence.EnsureSchemaMSSQL(a.db)
	} else {
		err = persistence.EnsureSchema(a.db)
	}
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	if a.metricDB != nil {
		if err := persistence.EnsureMetricsSchema(a.metricDB); err != nil {
			return fmt.Errorf("ensure metrics schema: %w", err)
		}
	}
	logger.GetLogger().WithField("vendor", a.vendor).Info("Schema is up to date")
	return nil
}

type EnsureSchemaCmd struct{}

func (c *EnsureSchemaCmd) Run(cctx *Context) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)
	return ensureSchema(ctx, a)
}

type RunJobCmd struct {
	Name    string        `arg:"" enum:"scheduler,publisher,token-refresh,analytics" help:"Job to run."`
	Timeout time.Duration `help:"Give up after this long." default:"10m"`
}

func (c *RunJobCmd) Run(cctx *Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())
	return a.runner.Run(ctx, c.Name)
}

type TokenCmd struct {
	UserID string        `arg:"" help:"User id to put in the token issuer claim."`
	TTL    time.Duration `help:"Token lifetime." default:"24h"`
}

func (c *TokenCmd) Run(cctx *Context) error {
	token, err := utils.GenerateUserToken(c.UserID, configuration.C.App.SecretKey, c.TTL)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, token)
	return err
}
