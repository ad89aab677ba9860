package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/harentsoaR/complaint-api/internal/config"
	"github.com/harentsoaR/complaint-api/internal/handlers"
	"github.com/harentsoaR/complaint-api/internal/messaging"
	"github.com/harentsoaR/complaint-api/internal/middleware"
	"github.com/harentsoaR/complaint-api/internal/ratelimit"
	"github.com/harentsoaR/complaint-api/internal/services"
	"github.com/harentsoaR/complaint-api/internal/storage"
	"github.com/harentsoaR/complaint-api/internal/store"
	"github.com/harentsoaR/complaint-api/internal/timeouts"
	"github.com/harentsoaR/complaint-api/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}
	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts configured from environment", zap.Int("overrides", n))
	}
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// --- Database Connection ---
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Medium())
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		cancel()
		logger.Fatal("connect to MongoDB", zap.Error(err))
	}
	if err := client.Ping(ctx, nil); err != nil {
		cancel()
		logger.Fatal("ping MongoDB", zap.Error(err))
	}
	db := client.Database(cfg.MongoDB)
	if err := store.EnsureIndexes(ctx, db); err != nil {
		cancel()
		logger.Fatal("ensure indexes", zap.Error(err))
	}
	cancel()
	logger.Info("connected to MongoDB", zap.String("database", cfg.MongoDB))

	users := store.NewUserStore(db)
	admins := store.NewAdminStore(db)
	tokenStore := store.NewTokenStore(db)
	resets := store.NewResetStore(db)
	complaints := store.NewComplaintStore(db)
	tx := store.NewTransactor(client, logger)

	// --- Infrastructure ---
	images, uploadDir, err := newImageStore(cfg)
	if err != nil {
		logger.Fatal("init image storage", zap.Error(err))
	}
	events := newPublisher(cfg, logger)
	limiter, closeLimiter := newLimiter(cfg, logger)

	notifier := services.NewNotificationService(cfg.ExpoPushURL, cfg.ExpoAccessToken,
		func(ctx context.Context, id primitive.ObjectID) ([]string, error) {
			u, err := users.FindByID(ctx, id)
			if err != nil {
				return nil, err
			}
			return u.ExpoTokens, nil
		}, logger)

	// --- Services ---
	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authSvc := &services.AuthService{
		Users:    users,
		Admins:   admins,
		Tokens:   tokenStore,
		Resets:   resets,
		Tx:       tx,
		JWT:      tokens,
		Hasher:   utils.NewPasswordHasher(cfg.BcryptCost),
		Events:   events,
		Log:      logger,
		ResetTTL: cfg.ResetTokenTTL,
	}
	userSvc := &services.UserService{Users: users, Admins: admins, Images: images, Notifier: notifier, Log: logger}
	complaintSvc := &services.ComplaintService{
		Complaints: complaints,
		Users:      users,
		Images:     images,
		Events:     events,
		Notifier:   notifier,
		Log:        logger,
	}

	// --- Router ---
	if err := handlers.RegisterValidators(); err != nil {
		logger.Fatal("register validators", zap.Error(err))
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	h := handlers.NewHandler(authSvc, userSvc, complaintSvc, logger)
	h.MaxUploadBytes = int64(cfg.MaxUploadMB) << 20
	router := h.Router(handlers.RouterConfig{
		Tokens:         tokens,
		Gates:          &middleware.Gates{Users: userSvc, Strict: cfg.StrictRoleGates, Log: logger},
		Limiter:        limiter,
		Metrics:        middleware.NewMetrics(reg),
		Gatherer:       reg,
		Health:         func(ctx context.Context) error { return client.Ping(ctx, nil) },
		UploadDir:      uploadDir,
		CORSOrigins:    cfg.CORSOrigins,
		Debug:          cfg.IsDevelopment(),
		TrustedProxies: cfg.TrustedProxies,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port), zap.Bool("strict_role_gates", cfg.StrictRoleGates))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), timeouts.Long())
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	notifier.Wait()
	events.Close()
	closeLimiter()
	if err := client.Disconnect(shutdownCtx); err != nil {
		logger.Error("disconnect MongoDB", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newImageStore returns the configured store and, for local storage, the
// directory to serve.
func newImageStore(cfg config.Config) (storage.ImageStore, string, error) {
	if cfg.StorageDriver == "s3" {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Medium())
		defer cancel()
		s3, err := storage.NewS3(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
		})
		return s3, "", err
	}
	local, err := storage.NewLocal(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		return nil, "", err
	}
	return local, local.Dir(), nil
}

// newPublisher connects to RabbitMQ when configured. Events are dropped
// otherwise.
func newPublisher(cfg config.Config, logger *zap.Logger) messaging.Publisher {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP_URL not set, domain events disabled")
		return messaging.Noop{}
	}
	pub, err := messaging.NewRabbitMQ(cfg.AMQPURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ unavailable, domain events disabled", zap.Error(err))
		return messaging.Noop{}
	}
	return pub
}

func newLimiter(cfg config.Config, logger *zap.Logger) (ratelimit.Limiter, func()) {
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
		defer cancel()
		client, err := ratelimit.NewRedisClient(ctx, cfg.RedisURL)
		if err == nil {
			logger.Info("rate limiting backed by Redis")
			return ratelimit.NewRedis(client, cfg.RateLimit, cfg.RateWindow), func() { client.Close() }
		}
		logger.Warn("Redis unavailable, using in-memory rate limiter", zap.Error(err))
	}
	mem := ratelimit.NewMemory(cfg.RateLimit, cfg.RateWindow)
	return mem, mem.Close
}
