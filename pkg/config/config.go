package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Redis    RedisConfig
	Game     GameConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port           string
	RequestTimeout time.Duration
	AllowOrigins   []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Migrate  bool
}

type JWTConfig struct {
	SecretKey string
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	Enabled       bool
}

// GameConfig holds the knobs of the reward engine.
type GameConfig struct {
	PlayCooldown    time.Duration
	DrawMaxAttempts int
	// DrawSeed pins the draw RNG when non-zero. Only meant for audits and load tests.
	DrawSeed     uint64
	PlayLockTTL  time.Duration
	PlayLockWait time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, errors.New("invalid redis database")
	}

	maxAttempts, err := getEnvInt("DRAW_MAX_ATTEMPTS", 2)
	if err != nil {
		return nil, errors.New("invalid DRAW_MAX_ATTEMPTS")
	}

	seed, err := strconv.ParseUint(getEnv("DRAW_SEED", "0"), 10, 64)
	if err != nil {
		return nil, errors.New("invalid DRAW_SEED")
	}

	cooldown, err := getEnvDuration("PLAY_COOLDOWN", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	lockTTL, err := getEnvDuration("PLAY_LOCK_TTL", 10*time.Second)
	if err != nil {
		return nil, err
	}

	lockWait, err := getEnvDuration("PLAY_LOCK_WAIT", 3*time.Second)
	if err != nil {
		return nil, err
	}

	requestTimeout, err := getEnvDuration("REQUEST_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Promo Game Reward Engine"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			RequestTimeout: requestTimeout,
			AllowOrigins:   []string{getEnv("CORS_ORIGIN", "http://localhost:3000")},
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "promo_game"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			Migrate:  getEnv("DB_AUTO_MIGRATE", "false") == "true",
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
			Enabled:       getEnv("REDIS_ENABLED", "true") == "true",
		},
		Game: GameConfig{
			PlayCooldown:    cooldown,
			DrawMaxAttempts: maxAttempts,
			DrawSeed:        seed,
			PlayLockTTL:     lockTTL,
			PlayLockWait:    lockWait,
		},
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	if cfg.Game.DrawMaxAttempts < 1 {
		return nil, errors.New("DRAW_MAX_ATTEMPTS must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}

	return strconv.Atoi(val)
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return d, nil
}
