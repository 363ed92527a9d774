package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// JWTConfig defines issuer/secret pair for auth verification.
type JWTConfig struct {
	Issuer string
	Secret []byte
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr     string
	Env      string
	LogLevel string
	Backend  string
	// SeedDemo fills the memory backend with generated stores at startup.
	SeedDemo bool

	MongoURI         string
	MongoDatabase    string
	StoreCollection  string
	UserCollection   string
	ReviewCollection string
	Timeout          time.Duration

	UploadsDir string
	PhotoWidth int

	RedisAddrs    []string
	RedisPassword string
	CacheTTL      time.Duration
	TopMinReviews int

	JWTConfigs     []JWTConfig
	JWTAudience    string
	AllowedOrigins []string
}

// Load reads an optional .env file and then the environment.
// Variables already set in the environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (Config, error) {
	timeout, err := durationEnv("MONGO_CONNECT_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := durationEnv("CACHE_TTL", time.Minute)
	if err != nil {
		return Config{}, err
	}
	photoWidth, err := intEnv("PHOTO_WIDTH", 800)
	if err != nil {
		return Config{}, err
	}
	minReviews, err := intEnv("TOP_MIN_REVIEWS", 1)
	if err != nil {
		return Config{}, err
	}

	seedDemo, err := boolEnv("SEED_DEMO", false)
	if err != nil {
		return Config{}, err
	}

	backend := strings.ToLower(envOrDefault("STORE_BACKEND", BackendMongo))
	if backend != BackendMongo && backend != BackendMemory {
		return Config{}, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendMongo, BackendMemory, backend)
	}

	var jwtConfigs []JWTConfig
	if secret := strings.TrimSpace(os.Getenv("AUTH_JWT_SECRET")); secret != "" {
		jwtConfigs = append(jwtConfigs, JWTConfig{
			Issuer: envOrDefault("AUTH_JWT_ISSUER", "storefinder-auth"),
			Secret: []byte(secret),
		})
	}
	if len(jwtConfigs) == 0 {
		return Config{}, errors.New("JWT secret not configured. Set AUTH_JWT_SECRET")
	}

	return Config{
		Addr:             envOrDefault("HTTP_ADDR", ":8080"),
		Env:              envOrDefault("APP_ENV", "dev"),
		LogLevel:         strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		Backend:          backend,
		SeedDemo:         seedDemo,
		MongoURI:         envOrDefault("MONGO_URI", "mongodb://mongo:27017"),
		MongoDatabase:    envOrDefault("MONGO_DB", "storefinder"),
		StoreCollection:  envOrDefault("STORE_COLLECTION", "stores"),
		UserCollection:   envOrDefault("USER_COLLECTION", "users"),
		ReviewCollection: envOrDefault("REVIEW_COLLECTION", "reviews"),
		Timeout:          timeout,
		UploadsDir:       envOrDefault("UPLOADS_DIR", "./public/uploads"),
		PhotoWidth:       photoWidth,
		RedisAddrs:       parseList("REDIS_ADDRS", nil),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		CacheTTL:         cacheTTL,
		TopMinReviews:    minReviews,
		JWTConfigs:       jwtConfigs,
		JWTAudience:      strings.TrimSpace(os.Getenv("AUTH_JWT_AUDIENCE")),
		AllowedOrigins:   parseList("API_ALLOWED_ORIGINS", []string{"*"}),
	}, nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return parsed, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func parseList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}
