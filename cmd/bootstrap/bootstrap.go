package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinic-booking/config"
	deliveryHttp "clinic-booking/internal/delivery/http"
	"clinic-booking/internal/delivery/http/handler"
	"clinic-booking/internal/delivery/http/middleware"
	infraCache "clinic-booking/internal/infrastructure/cache"
	"clinic-booking/internal/infrastructure/database"
	"clinic-booking/internal/infrastructure/email"
	"clinic-booking/internal/infrastructure/metrics"
	"clinic-booking/internal/infrastructure/queue"
	"clinic-booking/internal/infrastructure/scheduler"
	"clinic-booking/internal/infrastructure/storage"
	"clinic-booking/internal/repository"
	"clinic-booking/internal/service"
	"clinic-booking/internal/usecase"
	"clinic-booking/pkg/cache"
	"clinic-booking/pkg/jwt"
	"clinic-booking/pkg/retry"
	"clinic-booking/pkg/validator"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server
	Scheduler   *scheduler.Scheduler

	reader          *cache.Reader
	warmCache       scheduler.Job
	asyncDispatcher *service.AsyncDispatcher
	worker          *queue.Worker
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Setup logger
	log := setupLogger()
	app.Log = log

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg
	if level, err := logrus.ParseLevel(cfg.App.LogLevel); err == nil {
		log.SetLevel(level)
	}
	log.Info("Configuration loaded successfully")

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB, cfg.App.Env, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db

	// Initialize Redis
	redisClient, err := infraCache.NewRedisClient(cfg.Redis, log)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient

	// Initialize all layers
	if err := app.initialize(context.Background()); err != nil {
		app.Close()
		return nil, err
	}

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger() *logrus.Logger {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)
	return logrus.StandardLogger()
}

// initialize wires repositories, usecases, handlers, background workers and
// the HTTP server.
func (app *App) initialize(ctx context.Context) error {
	cfg := app.Config
	log := app.Log
	db := app.DB

	appMetrics := metrics.New(prometheus.DefaultRegisterer)
	customValidator := validator.NewValidator()
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize repositories
	doctorRepo := repository.NewDoctorRepository(db)
	slotRepo := repository.NewTimeSlotRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	adminRepo := repository.NewAdminUserRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)

	// Cache and read-through reader
	appCache := cache.New(app.cacheStorage(), log, cache.WithPrefix(cfg.Cache.Prefix))
	retryOpts := retry.Options{
		MaxAttempts: cfg.Retry.MaxAttempts,
		Timeout:     cfg.Retry.Timeout,
		BaseDelay:   cfg.Retry.BaseDelay,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			appMetrics.ObserveRetry("catalog")
			log.Debugf("Catalog load attempt %d failed, retrying in %s: %+v", attempt, delay, err)
		},
	}
	app.reader = cache.NewReader(appCache, retryOpts, cfg.Cache.RefreshTimeout, appMetrics, log)

	// Services
	auditService := service.NewAuditService(log, auditLogRepo)
	sender, err := email.NewSender(ctx, cfg.Email, cfg.AWS, log)
	if err != nil {
		return fmt.Errorf("failed to initialize email sender: %w", err)
	}
	notifier := service.NewAdminNotifier(sender, cfg.Notify.AdminEmails, adminRepo, appMetrics, log)
	dispatcher := app.notificationDispatcher(notifier)

	imageStore, err := newImageStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	// Initialize usecases
	bookingUsecase := usecase.NewBookingUsecase(log, customValidator, slotRepo, appointmentRepo, doctorRepo, dispatcher, appCache, appMetrics)
	catalogUsecase := usecase.NewCatalogUsecase(log, app.reader, doctorRepo, slotRepo, usecase.CatalogExpiration{
		Doctors: cfg.Cache.DoctorsExpiration,
		Slots:   cfg.Cache.SlotsExpiration,
	})
	authUsecase := usecase.NewAuthUsecase(log, adminRepo, auditService, jwtService, app.RedisClient)
	doctorUsecase := usecase.NewDoctorUsecase(log, doctorRepo, imageStore, auditService, appCache, cfg.Storage.MaxImageBytes)
	timeSlotUsecase := usecase.NewTimeSlotUsecase(log, slotRepo, appointmentRepo, auditService, appCache)
	appointmentUsecase := usecase.NewAppointmentUsecase(log, appointmentRepo, auditService, appCache)
	dashboardUsecase := usecase.NewDashboardUsecase(log, doctorRepo, slotRepo, appointmentRepo, appCache)
	reconcileUsecase := usecase.NewReconcileUsecase(log, appointmentRepo, auditService, appMetrics, cfg.Reconcile.GracePeriod)
	auditLogUsecase := usecase.NewAuditLogUsecase(log, auditLogRepo)

	// Scheduled jobs
	app.Scheduler = scheduler.New(log, appMetrics)
	app.warmCache = catalogUsecase.WarmDoctors
	jobs := []struct {
		name string
		spec string
		job  scheduler.Job
	}{
		{"reconcile", cfg.Reconcile.Schedule, func(ctx context.Context) error {
			_, err := reconcileUsecase.Sweep(ctx, nil)
			return err
		}},
		{"cache_warm", cfg.Reconcile.CacheWarmSchedule, app.warmCache},
		{"cache_sweep", cfg.Reconcile.CacheSweepSchedule, func(ctx context.Context) error {
			if removed := dashboardUsecase.SweepCache(ctx); removed > 0 {
				log.Infof("Removed %d expired cache entries", removed)
			}
			return nil
		}},
	}
	for _, j := range jobs {
		if err := app.Scheduler.Register(j.name, j.spec, j.job); err != nil {
			return err
		}
	}

	// Initialize handlers
	handlers := deliveryHttp.Handlers{
		Booking:     handler.NewBookingHandler(bookingUsecase),
		Catalog:     handler.NewCatalogHandler(catalogUsecase),
		Auth:        handler.NewAuthHandler(authUsecase, customValidator),
		Doctor:      handler.NewDoctorHandler(doctorUsecase, customValidator, cfg.Storage.MaxImageBytes),
		TimeSlot:    handler.NewTimeSlotHandler(timeSlotUsecase, customValidator),
		Appointment: handler.NewAppointmentHandler(appointmentUsecase, customValidator),
		Dashboard:   handler.NewDashboardHandler(dashboardUsecase, reconcileUsecase),
		AuditLog:    handler.NewAuditLogHandler(auditLogUsecase),
	}

	// Initialize middleware
	middlewares := deliveryHttp.Middlewares{
		Auth:      middleware.NewAuthMiddleware(jwtService, app.RedisClient),
		Admin:     middleware.NewAdminGuard(adminRepo, log),
		CORS:      middleware.NewCORSMiddleware(),
		Logging:   middleware.NewLoggingMiddleware(log),
		RateLimit: middleware.NewRateLimitMiddleware(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, log),
	}

	// Initialize router
	router := deliveryHttp.NewRouter(handlers, middlewares, promhttp.Handler())

	// Create server
	app.Server = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.App.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return nil
}

func (app *App) cacheStorage() cache.Storage {
	if app.Config.Cache.Backend == "memory" {
		app.Log.Info("Using in-memory cache storage")
		return cache.NewMemoryStorage(app.Config.Cache.MemoryQuotaBytes)
	}
	return cache.NewRedisStorage(app.RedisClient)
}

// notificationDispatcher picks the queue when enabled, otherwise delivers on
// background goroutines in this process.
func (app *App) notificationDispatcher(notifier service.Notifier) service.NotificationDispatcher {
	cfg := app.Config.Notify
	if cfg.QueueEnabled {
		app.worker = queue.NewWorker(app.RedisClient, cfg.QueueConcurrency, notifier, app.Log)
		app.Log.Info("Admin notifications go through the task queue")
		return queue.NewDispatcher(asynq.NewClientFromRedisClient(app.RedisClient), cfg.Timeout, app.Log)
	}

	app.asyncDispatcher = service.NewAsyncDispatcher(notifier, cfg.Timeout, app.Log)
	return app.asyncDispatcher
}

// newImageStore returns a nil store when no bucket is configured.
func newImageStore(ctx context.Context, cfg *config.Config, log *logrus.Logger) (service.ImageStore, error) {
	if cfg.Storage.Bucket == "" {
		log.Warn("STORAGE_BUCKET is empty, profile picture uploads are disabled")
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return storage.NewS3ImageStore(s3.NewFromConfig(awsCfg), cfg.Storage.Bucket, cfg.Storage.PublicBaseURL, cfg.AWS.Region, log), nil
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	if app.worker != nil {
		if err := app.worker.Start(); err != nil {
			app.Log.Fatalf("Failed to start notification worker: %v", err)
		}
	}

	app.Scheduler.Start()
	go app.Scheduler.RunNow("cache_warm", app.warmCache)

	// Start server in goroutine
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Log.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	app.Scheduler.Stop(ctx)

	// Let in-flight notifications and cache refreshes finish
	if app.asyncDispatcher != nil {
		app.asyncDispatcher.Wait()
	}
	if app.worker != nil {
		app.worker.Shutdown()
	}
	if app.reader != nil {
		app.reader.Wait()
	}

	// Close connections
	app.Close()

	app.Log.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, etc.)
func (app *App) Close() {
	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
