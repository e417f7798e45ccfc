package shared

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/rs/zerolog/log"
)

const (
	SourceHTTP  = "http"
	SourceMySQL = "mysql"
)

type Config struct {
	AppEnv      string        `env:"APP_ENV" envDefault:"prod"`
	HTTPAddr    string        `env:"HTTP_ADDR" envDefault:":8080"`
	MetricsAddr string        `env:"METRICS_ADDR"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"15s"`

	// Review source
	SourceKind   string        `env:"SOURCE_KIND" envDefault:"http"`
	SourceURL    string        `env:"SOURCE_URL" envDefault:"https://www.dropbox.com/s/wx0fsu580mfl0kjcaub2f/cleaned_reviews.csv?dl=1"`
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT" envDefault:"60s"`
	FetchRPS     float64       `env:"FETCH_RPS" envDefault:"1"`
	ParseMode    string        `env:"PARSE_MODE" envDefault:"strict"`

	TrendBehavior string `env:"TREND_BEHAVIOR" envDefault:"Diverse"`

	MySQLDSN string `env:"MYSQL_DSN" envDefault:"root:root@tcp(localhost:3306)/reviews?parseTime=true&charset=utf8mb4,utf8&loc=UTC"`

	RedisAddr  string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass  string        `env:"REDIS_PASSWORD"`
	RedisDB    int           `env:"REDIS_DB" envDefault:"0"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"30m"`

	// Ingestor
	Workers        int    `env:"INGEST_WORKERS" envDefault:"4"`
	BatchSize      int    `env:"INGEST_BATCH_SIZE" envDefault:"500"`
	IngestSchedule string `env:"INGEST_SCHEDULE"`
}

// Load reads the environment. Callers that want a .env file load it first.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return c, fmt.Errorf("parse config: %w", err)
	}
	switch c.SourceKind {
	case SourceHTTP:
		if c.SourceURL == "" {
			return c, fmt.Errorf("SOURCE_URL is required when SOURCE_KIND=%s", SourceHTTP)
		}
	case SourceMySQL:
	default:
		return c, fmt.Errorf("unknown SOURCE_KIND %q", c.SourceKind)
	}
	if c.FetchRPS <= 0 {
		log.Warn().Float64("rps", c.FetchRPS).Msg("FETCH_RPS must be positive; using 1")
		c.FetchRPS = 1
	}
	return c, nil
}
