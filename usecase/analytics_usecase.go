package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"linkhub/domain/model"
	"linkhub/domain/repository"
	"linkhub/infrastructure/logger"
	"linkhub/infrastructure/utils"
)

// AnalyticsCollector samples post metrics from every connected account
type AnalyticsCollector struct {
	accounts repository.ISocialAccount
	adapters repository.IPlatformRegistry
	metrics  repository.IPostMetric
	now      utils.Clock
}

func NewAnalyticsCollector(accounts repository.ISocialAccount, adapters repository.IPlatformRegistry, metrics repository.IPostMetric, now utils.Clock) *AnalyticsCollector {
	if now == nil {
		now = utils.GetCurrentTime
	}
	return &AnalyticsCollector{accounts: accounts, adapters: adapters, metrics: metrics, now: now}
}

// Run returns the number of samples stored
func (c *AnalyticsCollector) Run(ctx context.Context) (int, error) {
	accounts, err := c.accounts.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active accounts: %w", err)
	}
	stored := 0
	now := c.now()
	for _, account := range accounts {
		if ctx.Err() != nil {
			return stored, ctx.Err()
		}
		if !account.IsValid(now) {
			continue
		}
		adapter, ok := c.adapters.Get(account.Platform)
		if !ok {
			continue
		}
		samples := adapter.FetchAnalytics(ctx, account)
		if len(samples) == 0 {
			continue
		}
		rows := make([]model.PostMetric, 0, len(samples))
		for _, s := range samples {
			encoded, err := json.Marshal(s.Metrics)
			if err != nil {
				continue
			}
			recorded := s.RecordedAt
			if recorded.IsZero() {
				recorded = now
			}
			rows = append(rows, model.PostMetric{
				AccountID:      account.ID,
				Platform:       string(account.Platform),
				ExternalPostID: s.ExternalPostID,
				Metrics:        string(encoded),
				RecordedAt:     recorded,
			})
		}
		if err := c.metrics.SaveAll(ctx, rows); err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{"error": err, "account_id": account.ID}).Error("Failed to store analytics")
			continue
		}
		stored += len(rows)
	}
	return stored, nil
}
