package model

import "time"

// AnalyticsMetric is one platform-reported metric sample for a published post
type AnalyticsMetric struct {
	ExternalPostID string           `json:"external_post_id"`
	Metrics        map[string]int64 `json:"metrics"`
	RecordedAt     time.Time        `json:"recorded_at"`
}

// PostMetric is the stored form of an AnalyticsMetric
type PostMetric struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"`
	AccountID      string    `gorm:"size:64;index:idx_post_metrics_account"`
	Platform       string    `gorm:"size:32"`
	ExternalPostID string    `gorm:"size:191;index:idx_post_metrics_external"`
	Metrics        string    `gorm:"type:json"`
	RecordedAt     time.Time `gorm:"index"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (PostMetric) TableName() string { return "post_metrics" }
