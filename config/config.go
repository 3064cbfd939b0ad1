package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Port          string `env:"PORT" envDefault:"8080"`
	BindAddress   string `env:"BIND_ADDRESS" envDefault:"localhost"`
	DBHost        string `env:"DB_HOST" envDefault:"localhost"`
	DBPort        string `env:"DB_PORT" envDefault:"5432"`
	DBUser        string `env:"DB_USER" envDefault:"geoquiz"`
	DBPassword    string `env:"DB_PASSWORD" envDefault:"geoquiz123"`
	DBName        string `env:"DB_NAME" envDefault:"geoquiz"`
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	JWTSecret     string `env:"JWT_SECRET" envDefault:"your-secret-key-change-in-production"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"console"`
	// GameTimeZone decides where "today" starts for daily games.
	GameTimeZone string `env:"GAME_TIME_ZONE" envDefault:"UTC"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Location resolves GameTimeZone, falling back to UTC for an empty value.
func (c *Config) Location() (*time.Location, error) {
	if c.GameTimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.GameTimeZone)
	if err != nil {
		return nil, fmt.Errorf("load game time zone %q: %w", c.GameTimeZone, err)
	}
	return loc, nil
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		// Unique violations surface as gorm.ErrDuplicatedKey.
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func InitRedis(cfg *Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       0,
	})
}
