package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Mongo     MongoConfig
	Retry     RetryConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Models    ModelConfig
	Sources   SourceConfig
	Peer      PeerConfig
}

type ServerConfig struct {
	Port int
}

type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig with an empty Secret leaves write routes open.
type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type CORSConfig struct {
	AllowedOrigins string
}

// RateLimitConfig is a token bucket for the whole API. RPS 0 disables it.
type RateLimitConfig struct {
	RPS   int
	Burst int
}

const (
	ModelBackendFile     = "file"
	ModelBackendPostgres = "postgres"

	SourceMongo = "mongo"
	SourceXLSX  = "xlsx"
)

// ModelConfig CacheTTL bounds how long another process's retrain can go
// unnoticed when no model events arrive. Zero keeps entries until evicted.
type ModelConfig struct {
	Backend   string
	Dir       string
	CacheSize int
	CacheTTL  time.Duration
}

// SourceConfig selects where peer and cost/rate tables are read from.
type SourceConfig struct {
	Peer      string
	Costs     string
	XLSXPath  string
	XLSXSheet string
}

type PeerConfig struct {
	Region   string
	Subgrids []string
}

func LoadConfig() (*Config, error) {
	serverPort, err := getIntEnv("SERVER_PORT", 8000)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := getIntEnv("DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	mongoTimeout, err := getDurationEnv("MONGO_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid MONGO_TIMEOUT: %w", err)
	}

	retryAttempts, err := getIntEnv("STORE_RETRY_ATTEMPTS", 3)
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_RETRY_ATTEMPTS: %w", err)
	}
	retryDelay, err := getDurationEnv("STORE_RETRY_DELAY", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_RETRY_DELAY: %w", err)
	}

	redisPort, err := getIntEnv("REDIS_PORT", 6379)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	redisDB, err := getIntEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	jwtExpiry, err := getIntEnv("JWT_EXPIRY_HOURS", 24)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRY_HOURS: %w", err)
	}

	rps, err := getIntEnv("RATE_LIMIT_RPS", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	burst, err := getIntEnv("RATE_LIMIT_BURST", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	cacheSize, err := getIntEnv("MODEL_CACHE_SIZE", 16)
	if err != nil {
		return nil, fmt.Errorf("invalid MODEL_CACHE_SIZE: %w", err)
	}

	cacheTTL, err := getDurationEnv("MODEL_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid MODEL_CACHE_TTL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: serverPort,
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DB", "ecopulse"),
			Timeout:  mongoTimeout,
		},
		Retry: RetryConfig{
			Attempts: retryAttempts,
			Delay:    retryDelay,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "ecopulse"),
			Password: getEnv("DB_PASSWORD", "ecopulse_dev_password"),
			Name:     getEnv("DB_NAME", "ecopulse"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     redisPort,
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", ""),
			ExpiryHours: jwtExpiry,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		RateLimit: RateLimitConfig{
			RPS:   rps,
			Burst: burst,
		},
		Models: ModelConfig{
			Backend:   getEnv("MODEL_BACKEND", ModelBackendFile),
			Dir:       getEnv("MODEL_DIR", "models"),
			CacheSize: cacheSize,
			CacheTTL:  cacheTTL,
		},
		Sources: SourceConfig{
			Peer:      getEnv("PEER_SOURCE", SourceXLSX),
			Costs:     getEnv("COST_SOURCE", SourceXLSX),
			XLSXPath:  getEnv("XLSX_PATH", "peertopeer.xlsx"),
			XLSXSheet: getEnv("XLSX_SHEET", ""),
		},
		Peer: PeerConfig{
			Region:   getEnv("PEER_REGION", "Visayas"),
			Subgrids: getListEnv("PEER_SUBGRIDS", []string{"Bohol", "Cebu", "Negros", "Panay", "Leyte-Samar"}),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Models.Backend {
	case ModelBackendFile, ModelBackendPostgres:
	default:
		return fmt.Errorf("invalid MODEL_BACKEND %q", c.Models.Backend)
	}
	for name, v := range map[string]string{"PEER_SOURCE": c.Sources.Peer, "COST_SOURCE": c.Sources.Costs} {
		if v != SourceMongo && v != SourceXLSX {
			return fmt.Errorf("invalid %s %q", name, v)
		}
	}
	if c.Models.CacheSize < 1 {
		return fmt.Errorf("invalid MODEL_CACHE_SIZE %d", c.Models.CacheSize)
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func getDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}

// getListEnv splits a comma-separated value, dropping blank entries.
func getListEnv(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
