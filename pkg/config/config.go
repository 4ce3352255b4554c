package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServiceName string

	ServerPort int

	DatabaseDriver string
	DatabaseURL    string
	AutoMigrate    bool

	AuthSecret   []byte
	AuthTokenTTL time.Duration

	KafkaBrokers []string

	ElasticURL      string
	ElasticUser     string
	ElasticPassword string
	ElasticIndex    string

	LogLevel     string
	OTLPEndpoint string
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "storepanel"),

		ServerPort: EnvIntDefault("SERVER_PORT", 8080),

		DatabaseDriver: EnvDefault("DB_DRIVER", "postgres"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		AutoMigrate:    EnvBoolDefault("DB_AUTO_MIGRATE", false),

		AuthSecret:   []byte(os.Getenv("AUTH_SECRET")),
		AuthTokenTTL: EnvDurationDefault("AUTH_TOKEN_TTL", 0),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ElasticURL:      os.Getenv("ES_URL"),
		ElasticUser:     os.Getenv("ES_USER"),
		ElasticPassword: os.Getenv("ES_PASSWORD"),
		ElasticIndex:    EnvDefault("ES_INDEX", "products"),

		LogLevel:     EnvDefault("LOG_LEVEL", "info"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// EnvDurationDefault accepts Go duration strings ("12h", "30m").
func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
