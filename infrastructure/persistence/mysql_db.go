package persistence

import (
	"fmt"
	"time"

	"linkhub/domain/model"
	"linkhub/infrastructure/configuration"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewMetricsDB opens the MySQL analytics store through GORM
func NewMetricsDB() (*gorm.DB, error) {
	cfg := configuration.C.Database.MySql
	port := cfg.Port
	if port == "" {
		port = "3306"
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC", cfg.User, cfg.Password, cfg.Host, port, cfg.Name)
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// EnsureMetricsSchema migrates the post_metrics table
func EnsureMetricsSchema(db *gorm.DB) error {
	return db.AutoMigrate(&model.PostMetric{})
}
