package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"

	OCRProviderMock     = "mock"
	OCRProviderGigaChat = "gigachat"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Upload   UploadConfig
	OCR      OCRConfig
	GigaChat GigaChatConfig
	JWT      JWTConfig
	NATS     NATSConfig
	ClamAV   ClamAVConfig
	Logger   LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// StoreConfig selects the entity store backend. It is resolved once at
// start-up and never consulted again.
type StoreConfig struct {
	Backend string
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

type OCRConfig struct {
	Provider string
	MinDelay time.Duration
	MaxDelay time.Duration
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	InsecureSkipVerify bool
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
	RefreshExp time.Duration
}

type NATSConfig struct {
	URL string
}

type ClamAVConfig struct {
	URL string
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work the same way (Docker/K8s)
	for _, envFile := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	refreshExp, _ := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168"))
	minDelay, _ := strconv.Atoi(getEnv("OCR_MIN_DELAY_MS", "1500"))
	maxDelay, _ := strconv.Atoi(getEnv("OCR_MAX_DELAY_MS", "3500"))
	maxUpload, err := strconv.ParseInt(getEnv("UPLOAD_MAX_BYTES", "10485760"), 10, 64)
	if err != nil || maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Store: StoreConfig{
			Backend: resolveBackend(),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "fra_atlas"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Upload: UploadConfig{
			Dir:      getEnv("UPLOAD_DIR", "uploads"),
			MaxBytes: maxUpload,
		},
		OCR: OCRConfig{
			Provider: strings.ToLower(getEnv("OCR_PROVIDER", OCRProviderMock)),
			MinDelay: time.Duration(minDelay) * time.Millisecond,
			MaxDelay: time.Duration(maxDelay) * time.Millisecond,
		},
		GigaChat: GigaChatConfig{
			APIKey:             getEnv("GIGACHAT_API_KEY", ""),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			InsecureSkipVerify: getEnv("GIGACHAT_INSECURE_SKIP_VERIFY", "false") == "true",
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "your-secret-key-change-in-production"),
			Expiration: time.Duration(jwtExp) * time.Hour,
			RefreshExp: time.Duration(refreshExp) * time.Hour,
		},
		NATS: NATSConfig{
			URL: getEnv("NATS_URL", ""),
		},
		ClamAV: ClamAVConfig{
			URL: getEnv("CLAMAV_URL", ""),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

// DSN returns DATABASE_URL when set, otherwise a keyword/value string built
// from the DB_* variables.
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return "host=" + c.Host + " port=" + c.Port + " user=" + c.User +
		" password=" + c.Password + " dbname=" + c.DBName + " sslmode=" + c.SSLMode
}

// resolveBackend honours STORE_BACKEND, falling back to postgres only when a
// database was actually configured.
func resolveBackend() string {
	switch strings.ToLower(os.Getenv("STORE_BACKEND")) {
	case StoreBackendPostgres:
		return StoreBackendPostgres
	case StoreBackendMemory:
		return StoreBackendMemory
	}
	if os.Getenv("DATABASE_URL") != "" || os.Getenv("DB_HOST") != "" {
		return StoreBackendPostgres
	}
	return StoreBackendMemory
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
