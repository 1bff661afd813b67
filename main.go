package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ms-attendance/internal/api"
	"ms-attendance/internal/attendance"
	"ms-attendance/internal/auth"
	"ms-attendance/internal/capability"
	"ms-attendance/internal/config"
	"ms-attendance/internal/database/migrations"
	"ms-attendance/internal/issuance"
	"ms-attendance/internal/kafka"
	"ms-attendance/internal/ledger"
	"ms-attendance/internal/ledger/db"
	ledgerredis "ms-attendance/internal/ledger/redis"
	"ms-attendance/internal/logger"
	"ms-attendance/internal/qr"
	"ms-attendance/internal/runtime"
	"ms-attendance/internal/sse"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// prepareSchema brings the accounts table up to date. Postgres migrates on
// its own connection because the migrate driver closes the one it is given.
func prepareSchema(ctx context.Context, cfg config.DatabaseConfig, store *db.DB, log *logger.Logger) error {
	if cfg.Driver != "postgres" {
		return db.CreateSchema(ctx, store.Bun)
	}
	sqlDB, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return err
	}
	runner := migrations.NewRunner(sqlDB, log)
	defer runner.Close()
	return runner.MigrateUp()
}

func setupVerifier(ctx context.Context, cfg config.AuthConfig, redisClient *redis.Client, log *logger.Logger) auth.TokenVerifier {
	var verifier auth.TokenVerifier
	if cfg.Mode == "unverified" {
		log.Warn("AUTH", "AUTH_MODE=unverified: bearer tokens are NOT signature-checked")
		verifier = auth.UnverifiedVerifier{}
	} else {
		oidcVerifier, err := auth.NewOIDCVerifier(ctx, cfg.OIDCIssuer)
		if err != nil {
			log.Fatal("AUTH", err.Error())
		}
		verifier = oidcVerifier
	}
	if redisClient != nil {
		log.Info("AUTH", "Caching verified tokens in Redis")
		return auth.NewCachingVerifier(verifier, redisClient)
	}
	return verifier
}

func startActivityFeed(ctx context.Context, cfg config.KafkaConfig, rt *runtime.Runtime, emitter *sse.ActivityEmitter, log *logger.Logger) func() {
	topics := cfg.Topics.All()
	if err := kafka.EnsureTopicsExist(ctx, cfg.Brokers, topics, log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	}

	producer := kafka.NewProducer(cfg.Brokers, cfg.Topics, log)
	rt.Publisher = producer

	// A group per replica so every replica relays all activity to its SSE clients.
	hostname, _ := os.Hostname()
	consumer := kafka.NewConsumer(cfg.Brokers, topics, fmt.Sprintf("attendance-activity-%s-%s", hostname, uuid.NewString()[:8]), log)
	go func() {
		if err := consumer.Start(ctx, emitter.Emit); err != nil {
			log.Error("KAFKA", fmt.Sprintf("activity consumer stopped: %v", err))
		}
	}()
	log.Info("KAFKA", "Kafka producer and activity consumer initialized")

	return func() {
		if err := consumer.Close(); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("closing consumer: %v", err))
		}
		if err := producer.Close(); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("closing producer: %v", err))
		}
	}
}

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	log := logger.NewLogger(cfg.LogDir, "attendance")
	defer log.Close()
	log.SetLevel(logger.ParseLevel(cfg.LogLevel))

	log.Info("APP", "Starting Attendance Service initialization")
	if envErr != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := db.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer store.Bun.Close()

	if cfg.Database.AutoMigrate {
		if err := prepareSchema(ctx, cfg.Database, store, log); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("schema setup failed: %v", err))
		}
		log.LogDatabase("MIGRATE", "accounts", "schema ready")
	}

	var locker ledger.Locker = ledger.NewLocalLocker()
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = ledgerredis.Connect(ctx, cfg.Redis.Addr, log)
		if err != nil {
			log.Fatal("REDIS", err.Error())
		}
		defer redisClient.Close()
		locker = ledgerredis.NewRedis(redisClient, cfg.Redis.LockTTL, log)
	} else {
		log.Warn("REDIS", "REDIS_ADDR not set, serializing writes in-process only")
	}

	if cfg.Runtime.CapabilitySecret == "" {
		log.Warn("CONFIG", "CAPABILITY_SECRET not set, using a random per-process key")
	}
	signer := capability.NewIssuer([]byte(cfg.Runtime.CapabilitySecret), cfg.Runtime.CapabilityTTL, nil)

	programID := ledger.AddressFromSeed(cfg.Runtime.ProgramSeed)
	iss := issuance.NewService(ledger.AddressFromSeed(cfg.Runtime.IssuanceProgramSeed), signer)
	program := attendance.NewProgram(programID, iss, signer)
	log.Info("APP", fmt.Sprintf("Attendance program %s", programID))

	emitter := sse.NewActivityEmitter()
	rt := runtime.New(store, program, locker, log)
	rt.Emitter = emitter

	if cfg.Kafka.Enabled {
		closeFeed := startActivityFeed(ctx, cfg.Kafka, rt, emitter, log)
		defer closeFeed()
	} else {
		log.Info("KAFKA", "KAFKA_ENABLED=false, activity is streamed locally only")
	}

	if cfg.QR.Secret == "" {
		log.Warn("CONFIG", "QR_SECRET_KEY not set, attendance QR codes will not survive a restart")
		cfg.QR.Secret = uuid.NewString()
	}
	handler := api.NewHandler(rt, store, qr.NewQRGenerator(cfg.QR.Secret), emitter, log)
	verifier := setupVerifier(ctx, cfg.Auth, redisClient, log)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      handler.Routes(verifier),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Attendance Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Attendance Service shutdown complete")
	}
}
