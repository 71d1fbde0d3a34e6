package configuration

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"linkhub/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	Database    Database    `json:"database"`
	App         App         `json:"app"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	RedisClient RedisClient `json:"redisClient"`
	Logger      Logger      `json:"logger"`
	Events      Events      `json:"events"`
	Jobs        Jobs        `json:"jobs"`
	Platforms   Platforms   `json:"platforms"`
}

type App struct {
	Port        int    `json:"port"`
	SecretKey   string `json:"secretKey"`
	BaseURL     string `json:"baseURL"`
	// FrontendURL receives the browser after an OAuth callback
	FrontendURL string `json:"frontendURL"`
	TLSEnabled  bool   `json:"tlsEnabled"`
	TLSCertFile string `json:"tlsCertFile"`
	TLSKeyFile  string `json:"tlsKeyFile"`
}

type Database struct {
	Vendor string `json:"vendor"`
	Psql   Db     `json:"psql"`
	MySql  Db     `json:"mysql"`
	Mongo  Db     `json:"mongo"`
	Mssql  Db     `json:"mssql"`
}

type Db struct {
	Name     string `json:"string"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	TopicID   string `json:"topicID"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
}

type RedisClient struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Password     string `json:"password"`
	DatabaseName string `json:"databaseName"`
	Username     string `json:"username"`
}

type Logger struct {
	Format string `json:"format"`
	Level  string `json:"level"`
}

// Events selects where notification events go: pubsub, servicebus or none
type Events struct {
	Bus string `json:"bus"`
}

// Jobs holds background job schedules in robfig/cron syntax and their tunables
type Jobs struct {
	SchedulerSpec      string        `json:"schedulerSpec"`
	PublisherSpec      string        `json:"publisherSpec"`
	TokenRefreshSpec   string        `json:"tokenRefreshSpec"`
	AnalyticsSpec      string        `json:"analyticsSpec"`
	PublisherBatchSize int           `json:"publisherBatchSize"`
	RefreshWindow      time.Duration `json:"refreshWindow"`
	AlertWindow        time.Duration `json:"alertWindow"`
	AdapterTimeout     time.Duration `json:"adapterTimeout"`
}

type Platforms struct {
	Twitter   OAuthClient `json:"twitter"`
	Instagram OAuthClient `json:"instagram"`
	Facebook  OAuthClient `json:"facebook"`
	LinkedIn  OAuthClient `json:"linkedin"`
	YouTube   OAuthClient `json:"youtube"`
	TikTok    OAuthClient `json:"tiktok"`
}

type OAuthClient struct {
	ClientID     string   `json:"clientId"`
	ClientSecret string   `json:"clientSecret"`
	RedirectURI  string   `json:"redirectURI"`
	Scopes       []string `json:"scopes"`
	// RatePerMinute throttles outbound calls; zero means the adapter default
	RatePerMinute int `json:"ratePerMinute"`
}

var C Config

func init() {
	Reload()
}

// Reload rebuilds C from the config file and the environment, e.g. after env
// files were loaded
func Reload() {
	C = Config{}
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initJobs(&C)
	if v := os.Getenv("EVENT_BUS"); v != "" {
		C.Events.Bus = v
	}
	if C.Logger.Format != "" || C.Logger.Level != "" {
		logger.Configure(C.Logger.Format, C.Logger.Level)
	}
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initDatabase(C *Config) {
	if v := os.Getenv("DB_VENDOR"); v != "" {
		C.Database.Vendor = v
	}
	if C.Database.Psql.Name == "" {
		C.Database.Psql.Name = os.Getenv("DB_NAME")
	}
	if C.Database.Psql.Host == "" {
		C.Database.Psql.Host = os.Getenv("DB_HOST")
	}
	if C.Database.Psql.User == "" {
		C.Database.Psql.User = os.Getenv("DB_USER")
	}
	if C.Database.Psql.Password == "" {
		C.Database.Psql.Password = os.Getenv("DB_PASSWORD")
	}
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = os.Getenv("DB_PORT")
	}

	// Azure SQL in production
	if C.Database.Mssql.Name == "" {
		C.Database.Mssql.Name = os.Getenv("MSSQL_DB_NAME")
	}
	if C.Database.Mssql.Host == "" {
		C.Database.Mssql.Host = getEnv("MSSQL_HOST", "localhost")
	}
	if C.Database.Mssql.Password == "" {
		C.Database.Mssql.Password = os.Getenv("MSSQL_PASSWORD")
	}
	if C.Database.Mssql.Port == "" {
		C.Database.Mssql.Port = getEnv("MSSQL_PORT", "1433")
	}
	if C.Database.Mssql.User == "" {
		C.Database.Mssql.User = getEnv("MSSQL_USER", "sa")
	}

	if C.Database.Mongo.Host == "" {
		C.Database.Mongo.Host = os.Getenv("MONGO_HOST")
	}
	if C.Database.Mongo.Name == "" {
		C.Database.Mongo.Name = getEnv("MONGO_DB_NAME", "linkhub")
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"vendor": C.Database.Vendor,
		"psql":   C.Database.Psql.Host,
		"mssql":  C.Database.Mssql.Host,
		"mongo":  C.Database.Mongo.Host,
	}).Info("Database configuration")
}

func initApp(C *Config) {
	// SECRET_KEY from the environment wins over the config file
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	// APP_PORT -> PORT -> config -> 10001
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10001
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		switch v {
		case "1", "true", "TRUE", "True":
			C.App.TLSEnabled = true
		case "0", "false", "FALSE", "False":
			C.App.TLSEnabled = false
		}
	}
	if C.App.TLSCertFile == "" {
		C.App.TLSCertFile = os.Getenv("TLS_CERT_FILE")
	}
	if C.App.TLSKeyFile == "" {
		C.App.TLSKeyFile = os.Getenv("TLS_KEY_FILE")
	}
	if v := os.Getenv("APP_BASE_URL"); v != "" {
		C.App.BaseURL = v
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		C.App.FrontendURL = v
	}
	C.App.FrontendURL = strings.TrimRight(C.App.FrontendURL, "/")
	if C.App.BaseURL == "" {
		scheme := "http"
		if C.App.TLSEnabled {
			scheme = "https"
		}
		C.App.BaseURL = fmt.Sprintf("%s://localhost:%d", scheme, C.App.Port)
	}
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; JWT authentication will fail. Provide SECRET_KEY via environment.")
	}
}

func initJobs(C *Config) {
	j := &C.Jobs
	if j.SchedulerSpec == "" {
		j.SchedulerSpec = "@every 60s"
	}
	if j.PublisherSpec == "" {
		j.PublisherSpec = "@every 60s"
	}
	if j.TokenRefreshSpec == "" {
		j.TokenRefreshSpec = "@every 1h"
	}
	if j.AnalyticsSpec == "" {
		j.AnalyticsSpec = "@every 6h"
	}
	if j.PublisherBatchSize <= 0 {
		j.PublisherBatchSize = 10
	}
	if j.RefreshWindow <= 0 {
		j.RefreshWindow = 24 * time.Hour
	}
	if j.AlertWindow <= 0 {
		j.AlertWindow = 72 * time.Hour
	}
	if j.AdapterTimeout <= 0 {
		j.AdapterTimeout = 30 * time.Second
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
