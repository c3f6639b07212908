package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Working state kept in redis between requests.
	DraftTTLMinutes int `mapstructure:"DRAFT_TTL_MINUTES"`
	FlowTTLMinutes  int `mapstructure:"FLOW_TTL_MINUTES"`

	// Stripe.
	StripeKey             string `mapstructure:"STRIPE_KEY"`
	StripeWebhookSecret   string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	PaymentCurrency       string `mapstructure:"PAYMENT_CURRENCY"`
	ReconcileAfterMinutes int    `mapstructure:"RECONCILE_AFTER_MINUTES"`
	ReconcileSweepSpec    string `mapstructure:"RECONCILE_SWEEP_SPEC"`

	// Cloudinary.
	CloudinaryURL    string `mapstructure:"CLOUDINARY_URL"`
	CloudinaryFolder string `mapstructure:"CLOUDINARY_FOLDER"`

	// Viewports narrower than this get the action-sheet booking layout.
	MobileBreakpointPx int `mapstructure:"MOBILE_BREAKPOINT_PX"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "studiobook")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("DRAFT_TTL_MINUTES", 120)
	viper.SetDefault("FLOW_TTL_MINUTES", 30)
	viper.SetDefault("STRIPE_KEY", "")
	viper.SetDefault("STRIPE_WEBHOOK_SECRET", "")
	viper.SetDefault("PAYMENT_CURRENCY", "jpy")
	viper.SetDefault("RECONCILE_AFTER_MINUTES", 15)
	viper.SetDefault("RECONCILE_SWEEP_SPEC", "@every 10m")
	viper.SetDefault("CLOUDINARY_URL", "")
	viper.SetDefault("CLOUDINARY_FOLDER", "studiobook/costumes")
	viper.SetDefault("MOBILE_BREAKPOINT_PX", 768)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// DraftTTL is how long an untouched slot draft survives in redis.
func DraftTTL() time.Duration {
	return time.Duration(AppConfig.DraftTTLMinutes) * time.Minute
}

// FlowTTL is how long an untouched booking selection flow survives in redis.
func FlowTTL() time.Duration {
	return time.Duration(AppConfig.FlowTTLMinutes) * time.Minute
}

// ReconcileAfter is the delay before a payment is checked against the processor.
func ReconcileAfter() time.Duration {
	return time.Duration(AppConfig.ReconcileAfterMinutes) * time.Minute
}
