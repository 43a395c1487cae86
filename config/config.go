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

const (
	defaultServerPort      = 8080
	defaultSwapAttempts    = 4
	defaultAllowedOrigin   = "*"
	maxAllowedSwapAttempts = 64

	defaultDBMaxOpenConns    = 25
	defaultDBConnMaxLifetime = 5 * time.Minute
)

var (
	ErrPartialR2Config    = errors.New("R2 storage is partially configured: set all R2_* variables or none")
	ErrPartialAdminConfig = errors.New("set both ADMIN_EMAIL and ADMIN_PASSWORD or neither")
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL        string
	JWTSecretKey       string
	ServerPort         int
	CORSAllowedOrigins []string
	DrawSwapAttempts   int
	DB                 DBConfig
	R2                 R2Config
	// Администратор, создаваемый при старте, если его ещё нет.
	AdminEmail    string
	AdminPassword string
}

type DBConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
}

// Enabled reports whether snapshots should be uploaded.
func (c R2Config) Enabled() bool {
	return c.AccountID != ""
}

func (c R2Config) validate() error {
	set := 0
	for _, v := range []string{c.AccountID, c.AccessKeyID, c.SecretAccessKey, c.BucketName, c.PublicBaseURL} {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != 5 {
		return ErrPartialR2Config
	}
	return nil
}

// Load загружает конфигурацию из переменных окружения.
// .env подгружается, если он есть.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return fromEnv()
}

func fromEnv() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", defaultServerPort)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	swaps, err := intEnv("DRAW_SWAP_ATTEMPTS", defaultSwapAttempts)
	if err != nil {
		return nil, err
	}
	if swaps < 1 || swaps > maxAllowedSwapAttempts {
		return nil, fmt.Errorf("DRAW_SWAP_ATTEMPTS must be between 1 and %d, got %d", maxAllowedSwapAttempts, swaps)
	}

	dbCfg, err := dbFromEnv()
	if err != nil {
		return nil, err
	}

	r2 := R2Config{
		AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		BucketName:      os.Getenv("R2_BUCKET_NAME"),
		PublicBaseURL:   strings.TrimRight(os.Getenv("R2_PUBLIC_BASE_URL"), "/"),
	}
	if err := r2.validate(); err != nil {
		return nil, err
	}

	adminEmail, adminPassword := strings.TrimSpace(os.Getenv("ADMIN_EMAIL")), os.Getenv("ADMIN_PASSWORD")
	if (adminEmail == "") != (adminPassword == "") {
		return nil, ErrPartialAdminConfig
	}

	return &Config{
		DatabaseURL:        dbURL,
		JWTSecretKey:       jwtKey,
		ServerPort:         port,
		CORSAllowedOrigins: splitOrigins(os.Getenv("CORS_ALLOWED_ORIGINS")),
		DrawSwapAttempts:   swaps,
		DB:                 dbCfg,
		R2:                 r2,
		AdminEmail:         adminEmail,
		AdminPassword:      adminPassword,
	}, nil
}

func dbFromEnv() (DBConfig, error) {
	maxOpen, err := intEnv("DB_MAX_OPEN_CONNS", defaultDBMaxOpenConns)
	if err != nil {
		return DBConfig{}, err
	}
	if maxOpen < 1 {
		return DBConfig{}, fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", maxOpen)
	}
	maxIdle, err := intEnv("DB_MAX_IDLE_CONNS", maxOpen)
	if err != nil {
		return DBConfig{}, err
	}

	lifetime := defaultDBConnMaxLifetime
	if raw := os.Getenv("DB_CONN_MAX_LIFETIME"); raw != "" {
		if lifetime, err = time.ParseDuration(raw); err != nil {
			return DBConfig{}, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME environment variable: %w", err)
		}
	}
	return DBConfig{MaxOpenConns: maxOpen, MaxIdleConns: maxIdle, ConnMaxLifetime: lifetime}, nil
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{defaultAllowedOrigin}
	}
	return out
}
