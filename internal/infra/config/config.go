// Package config loads runtime settings from the environment, an optional
// .env file and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const devJWTSecret = "travelstay-dev-secret"

// Config aggregates application configuration values.
type Config struct {
	Env      string
	LogLevel string
	HTTPAddr string

	DatabaseURL string
	MongoURI    string
	MongoDB     string

	KafkaBrokers       []string
	KafkaTopicPrefix   string
	KafkaGroup         string
	KafkaClientID      string
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration

	CORSOrigins []string

	ChapaAPIURL        string
	ChapaSecretKey     string
	ChapaWebhookSecret string
	BackendURL         string
	FrontendURL        string

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	S3Endpoint  string
	S3PublicURL string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool

	MailFrom string
	// ReminderTime is the UTC time of day of the daily booking reminder run.
	ReminderTime time.Duration
}

var defaults = map[string]any{
	"APP_ENV":              "dev",
	"LOG_LEVEL":            "info",
	"HTTP_ADDR":            ":8080",
	"MONGO_DB":             "travelstay",
	"KAFKA_GROUP":          "travelstay-notifications",
	"KAFKA_CLIENT_ID":      "travelstay",
	"OUTBOX_POLL_INTERVAL": "500ms",
	"RETRY_BACKOFF":        "1s,5s,30s",
	"CORS_ORIGINS":         "*",
	"CHAPA_API_URL":        "https://api.chapa.co/v1/transaction/initialize",
	"BACKEND_URL":          "http://localhost:8080",
	"FRONTEND_URL":         "http://localhost:3000",
	"JWT_ISSUER":           "travelstay",
	"JWT_TTL":              "24h",
	"S3_BUCKET":            "travelstay-images",
	"S3_USE_SSL":           false,
	"MAIL_FROM":            "no-reply@travelstay.local",
	"REMINDER_TIME":        "9h",
}

// NewViper reads envFile when present and binds every setting to its
// environment variable.
func NewViper(envFile string) (*viper.Viper, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	return v, nil
}

// BindFlags lets flags override the matching environment variables.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet, mapping map[string]string) error {
	for flag, key := range mapping {
		f := flags.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("config: bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// Load builds a Config from v and validates it.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Env:                strings.ToLower(v.GetString("APP_ENV")),
		LogLevel:           v.GetString("LOG_LEVEL"),
		HTTPAddr:           v.GetString("HTTP_ADDR"),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		MongoURI:           v.GetString("MONGO_URI"),
		MongoDB:            v.GetString("MONGO_DB"),
		KafkaBrokers:       splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopicPrefix:   v.GetString("KAFKA_TOPIC_PREFIX"),
		KafkaGroup:         v.GetString("KAFKA_GROUP"),
		KafkaClientID:      v.GetString("KAFKA_CLIENT_ID"),
		CORSOrigins:        splitList(v.GetString("CORS_ORIGINS")),
		ChapaAPIURL:        v.GetString("CHAPA_API_URL"),
		ChapaSecretKey:     v.GetString("CHAPA_SECRET_KEY"),
		ChapaWebhookSecret: v.GetString("CHAPA_WEBHOOK_SECRET"),
		BackendURL:         strings.TrimRight(v.GetString("BACKEND_URL"), "/"),
		FrontendURL:        strings.TrimRight(v.GetString("FRONTEND_URL"), "/"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		JWTIssuer:          v.GetString("JWT_ISSUER"),
		S3Endpoint:         v.GetString("S3_ENDPOINT"),
		S3PublicURL:        v.GetString("S3_PUBLIC_URL"),
		S3AccessKey:        v.GetString("S3_ACCESS_KEY"),
		S3SecretKey:        v.GetString("S3_SECRET_KEY"),
		S3Bucket:           v.GetString("S3_BUCKET"),
		S3UseSSL:           v.GetBool("S3_USE_SSL"),
		MailFrom:           v.GetString("MAIL_FROM"),
	}

	var err error
	if cfg.OutboxPollInterval, err = duration(v, "OUTBOX_POLL_INTERVAL"); err != nil {
		return Config{}, err
	}
	if cfg.JWTTTL, err = duration(v, "JWT_TTL"); err != nil {
		return Config{}, err
	}
	if cfg.ReminderTime, err = duration(v, "REMINDER_TIME"); err != nil {
		return Config{}, err
	}
	for _, raw := range splitList(v.GetString("RETRY_BACKOFF")) {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	if cfg.JWTSecret == "" {
		if !cfg.IsDev() {
			return Config{}, errors.New("JWT_SECRET is required outside dev")
		}
		cfg.JWTSecret = devJWTSecret
	}
	if cfg.JWTTTL <= 0 {
		return Config{}, errors.New("JWT_TTL must be positive")
	}
	if cfg.ReminderTime < 0 || cfg.ReminderTime >= 24*time.Hour {
		return Config{}, errors.New("REMINDER_TIME must be within one day")
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	return cfg, nil
}

func (c Config) IsDev() bool {
	switch c.Env {
	case "dev", "local", "test":
		return true
	default:
		return false
	}
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
