package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	TokenFormatOpaque = "opaque"
	TokenFormatJWT    = "jwt"

	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"

	StorageStatic = "static"
	StorageS3     = "s3"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Port            int
	LogLevel        zerolog.Level
	AllowOrigins    []string
	TokenTTL        time.Duration
	RefreshTTL      time.Duration
	TokenFormat     string
	JWTSecret       string
	SessionStore    string
	RedisURL        string
	EnableReset     bool
	RateLimitPublic RateLimitConfig
	RateLimitAuth   RateLimitConfig
	Storage         StorageConfig
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// StorageConfig descreve onde ficam os PDFs de certificados.
type StorageConfig struct {
	Provider    string
	BaseURL     string
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3Prefix    string
	S3AccessKey string
	S3SecretKey string
	PresignTTL  time.Duration
}

// Load carrega variáveis de ambiente e aplica defaults de desenvolvimento.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	port, err := strconv.Atoi(getEnv("PORT", "8000"))
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	level, err := zerolog.ParseLevel(strings.ToLower(getEnv("LOG_LEVEL", "info")))
	if err != nil {
		return nil, errors.New("LOG_LEVEL inválido")
	}
	cfg.LogLevel = level

	cfg.AllowOrigins = splitList(getEnv("ALLOW_ORIGINS", "http://localhost:3000"))

	if cfg.TokenTTL, err = parseDurationEnv("TOKEN_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.TokenTTL < time.Second {
		return nil, errors.New("TOKEN_TTL deve ser de pelo menos 1s")
	}
	if cfg.RefreshTTL, err = parseDurationEnv("REFRESH_TTL", 30*24*time.Hour); err != nil {
		return nil, err
	}

	cfg.TokenFormat = strings.ToLower(strings.TrimSpace(getEnv("TOKEN_FORMAT", TokenFormatOpaque)))
	switch cfg.TokenFormat {
	case TokenFormatOpaque:
	case TokenFormatJWT:
		cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", ""))
		if len(cfg.JWTSecret) < 32 {
			return nil, errors.New("JWT_SECRET deve ter pelo menos 32 caracteres")
		}
	default:
		return nil, errors.New("TOKEN_FORMAT deve ser opaque ou jwt")
	}

	cfg.SessionStore = strings.ToLower(strings.TrimSpace(getEnv("SESSION_STORE", SessionStoreMemory)))
	switch cfg.SessionStore {
	case SessionStoreMemory:
	case SessionStoreRedis:
		cfg.RedisURL = strings.TrimSpace(getEnv("REDIS_URL", ""))
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL obrigatório com SESSION_STORE=redis")
		}
	default:
		return nil, errors.New("SESSION_STORE deve ser memory ou redis")
	}

	if cfg.EnableReset, err = parseBoolEnv("ENABLE_RESET", true); err != nil {
		return nil, err
	}

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 20, Burst: 40}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 10, Burst: 20}
	// RATE_LIMIT_RPS <= 0 desliga os limites (suites e2e num único IP).
	if raw := strings.TrimSpace(getEnv("RATE_LIMIT_RPS", "")); raw != "" {
		rps, err := parseFloatEnv("RATE_LIMIT_RPS", 0)
		if err != nil {
			return nil, err
		}
		cfg.RateLimitPublic.RequestsPerSecond = rps
		cfg.RateLimitAuth.RequestsPerSecond = rps
	}

	storage, err := loadStorage()
	if err != nil {
		return nil, err
	}
	cfg.Storage = storage

	return cfg, nil
}

func loadStorage() (StorageConfig, error) {
	sc := StorageConfig{
		Provider:    strings.ToLower(strings.TrimSpace(getEnv("STORAGE_PROVIDER", StorageStatic))),
		BaseURL:     strings.TrimSpace(getEnv("STORAGE_BASE_URL", "https://storage.ellp.dev/certificados")),
		S3Endpoint:  strings.TrimSpace(getEnv("S3_ENDPOINT", "")),
		S3Region:    strings.TrimSpace(getEnv("S3_REGION", "us-east-1")),
		S3Bucket:    strings.TrimSpace(getEnv("S3_BUCKET", "")),
		S3Prefix:    strings.TrimSpace(getEnv("S3_PREFIX", "certificados")),
		S3AccessKey: strings.TrimSpace(getEnv("S3_ACCESS_KEY", "")),
		S3SecretKey: strings.TrimSpace(getEnv("S3_SECRET_KEY", "")),
	}

	ttl, err := parseDurationEnv("S3_PRESIGN_TTL", 15*time.Minute)
	if err != nil {
		return StorageConfig{}, err
	}
	sc.PresignTTL = ttl

	switch sc.Provider {
	case "", StorageStatic:
		sc.Provider = StorageStatic
	case StorageS3:
		if sc.S3Bucket == "" {
			return StorageConfig{}, errors.New("S3_BUCKET obrigatório com STORAGE_PROVIDER=s3")
		}
	default:
		return StorageConfig{}, errors.New("STORAGE_PROVIDER " + sc.Provider + " não suportado")
	}
	return sc, nil
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, errors.New(key + " inválido")
	}
	return b, nil
}

func parseFloatEnv(key string, def float64) (float64, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, errors.New(key + " inválido")
	}
	return f, nil
}
