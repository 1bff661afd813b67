package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Runtime  RuntimeConfig
	Auth     AuthConfig
	QR       QRConfig
	LogDir   string
	LogLevel string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Driver       string // sqlite or postgres
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	AutoMigrate  bool
}

// RedisConfig leaves Addr empty to serialize writes in-process instead.
type RedisConfig struct {
	Addr    string
	LockTTL time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Enabled bool
	Topics  TopicConfig
}

type TopicConfig struct {
	EventInitialized     string
	EventEdited          string
	EventClosed          string
	Registered           string
	RegistrationCanceled string
	CredentialMinted     string
}

// All returns every configured topic name.
func (t TopicConfig) All() []string {
	return []string{
		t.EventInitialized,
		t.EventEdited,
		t.EventClosed,
		t.Registered,
		t.RegistrationCanceled,
		t.CredentialMinted,
	}
}

type RuntimeConfig struct {
	ProgramSeed         string
	IssuanceProgramSeed string
	CapabilitySecret    string
	CapabilityTTL       time.Duration
}

type AuthConfig struct {
	// Mode is "oidc" (verified tokens) or "unverified" (subject read without signature checks, local use only).
	Mode       string
	OIDCIssuer string
}

type QRConfig struct {
	Secret string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8085"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "sqlite"),
			DSN:          getEnv("DB_DSN", "file:attendance.db?cache=shared"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
			AutoMigrate:  getEnvBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Addr:    getEnv("REDIS_ADDR", ""),
			LockTTL: getEnvDuration("RECORD_LOCK_TTL", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS", "localhost:9092"),
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Topics: TopicConfig{
				EventInitialized:     getEnv("KAFKA_TOPIC_EVENT_INITIALIZED", "attendance.event.initialized"),
				EventEdited:          getEnv("KAFKA_TOPIC_EVENT_EDITED", "attendance.event.edited"),
				EventClosed:          getEnv("KAFKA_TOPIC_EVENT_CLOSED", "attendance.event.closed"),
				Registered:           getEnv("KAFKA_TOPIC_REGISTERED", "attendance.registration.created"),
				RegistrationCanceled: getEnv("KAFKA_TOPIC_REGISTRATION_CANCELED", "attendance.registration.canceled"),
				CredentialMinted:     getEnv("KAFKA_TOPIC_CREDENTIAL_MINTED", "attendance.credential.minted"),
			},
		},
		Runtime: RuntimeConfig{
			ProgramSeed:         getEnv("PROGRAM_SEED", "attendance-program"),
			IssuanceProgramSeed: getEnv("ISSUANCE_PROGRAM_SEED", "token-metadata"),
			CapabilitySecret:    getEnv("CAPABILITY_SECRET", ""),
			CapabilityTTL:       getEnvDuration("CAPABILITY_TTL", 5*time.Second),
		},
		Auth: AuthConfig{
			Mode:       getEnv("AUTH_MODE", "oidc"),
			OIDCIssuer: getEnv("OIDC_ISSUER", ""),
		},
		QR: QRConfig{
			Secret: getEnv("QR_SECRET_KEY", ""),
		},
		LogDir:   getEnv("LOG_DIR", "logs"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
