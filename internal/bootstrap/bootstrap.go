package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/internportal/internal/app/auth"
	appControllers "github.com/yigit/internportal/internal/app/controllers"
	"github.com/yigit/internportal/internal/app/jobs"
	appMigrations "github.com/yigit/internportal/internal/app/migrations"
	appRepos "github.com/yigit/internportal/internal/app/repositories"
	appRoutes "github.com/yigit/internportal/internal/app/routes"
	appServices "github.com/yigit/internportal/internal/app/services"
	"github.com/yigit/internportal/internal/config"
	"github.com/yigit/internportal/internal/db"
	appMiddleware "github.com/yigit/internportal/internal/middleware"
	pkgAuth "github.com/yigit/internportal/internal/pkg/auth"
	"github.com/yigit/internportal/internal/pkg/cache"
	"github.com/yigit/internportal/internal/pkg/email"
	"github.com/yigit/internportal/internal/pkg/filestorage"
	"github.com/yigit/internportal/internal/pkg/helpers"
	"github.com/yigit/internportal/internal/pkg/logger"
	"github.com/yigit/internportal/internal/pkg/queue"
	"github.com/yigit/internportal/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos        *appRepos.Repositories
	JWTService   *pkgAuth.JWTService
	AuthzService *appAuth.AuthorizationService
	Store        filestorage.ObjectStore
	LocalStore   *filestorage.LocalStorage // nil unless the local driver is used
	Cache        cache.Cache
	RedisCache   *cache.RedisCache // nil when redis is not configured
	Producer     *queue.Producer   // nil when kafka is not configured
	Consumer     *queue.KafkaConsumer
	Jobs         *jobs.Manager
	RateLimiter  *appMiddleware.RateLimiter

	AuthService         *appServices.AuthService
	DepartmentService   *appServices.DepartmentService
	ProfileService      *appServices.ProfileService
	InternshipService   *appServices.InternshipService
	ApplicationService  *appServices.ApplicationService
	CertificateService  *appServices.CertificateService
	StatsService        *appServices.StatsService
	NotificationService *appServices.NotificationService
	AccountService      *appServices.AccountService

	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	if err := config.LoadDotEnv(); err != nil {
		logger.Error().Err(err).Msg("Failed to load .env file")
		return nil, zerolog.Logger{}, err
	}

	configPath := config.GetEnv("CONFIG_PATH", filepath.Join("configs", "config.yaml"))
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:   logLevel,
		Pretty:  prettyLog,
		Service: "internportal",
	})

	lgr := logger.Get()
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbPool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		dbPool.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool, logger.Component("migrations"))

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		dbPool.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		dbPool.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	// Default data is best effort
	if err := seed.CreateDefaultData(context.Background(), dbPool, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}
	ctx := context.Background()

	deps.Repos = appRepos.NewRepositories(dbPool)
	transactor := db.NewFromPool(dbPool)
	repos := deps.Repos

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	if err := setupStorage(ctx, cfg, deps); err != nil {
		lgr.Error().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to initialize certificate storage")
		return nil, fmt.Errorf("failed to initialize certificate storage: %w", err)
	}

	deps.Cache = cache.NoopCache{}
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			lgr.Warn().Err(err).Msg("Redis unavailable, dashboard stats will not be cached")
		} else {
			deps.RedisCache = redisCache
			deps.Cache = redisCache
		}
	}

	queueCfg := queue.Config{
		Broker:   cfg.Kafka.Broker,
		Topic:    cfg.Kafka.Topic,
		GroupID:  cfg.Kafka.GroupID,
		Username: cfg.Kafka.Username,
		Password: cfg.Kafka.Password,
	}
	var publisher queue.Publisher
	if queueCfg.Enabled() {
		deps.Producer = queue.NewProducer(queueCfg)
		publisher = deps.Producer
		lgr.Info().Str("topic", queueCfg.Topic).Msg("Notification events will be published to Kafka")
	}

	mailer := email.NewEmailService(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		UseTLS:    cfg.SMTP.UseTLS,
		PortalURL: cfg.SMTP.PortalURL,
	}, logger.Component("email"))

	// Services
	deps.AuthzService = appAuth.NewAuthorizationService(repos.ProfileRepository, cfg.Authorization.AllowUnassignedFaculty)
	identity := appServices.NewLocalIdentityProvider(repos.ProfileRepository, repos.TokenRepository, logger.Component("identity"))

	deps.StatsService = appServices.NewStatsService(
		repos.DepartmentRepository,
		repos.ProfileRepository,
		repos.InternshipRepository,
		repos.ApplicationRepository,
		repos.CertificateRepository,
		deps.AuthzService,
		deps.Cache,
		helpers.ParseDuration(cfg.Redis.StatsTTL, 5*time.Minute),
		logger.Component("stats"),
	)
	deps.NotificationService = appServices.NewNotificationService(
		repos.ProfileRepository,
		repos.InternshipRepository,
		mailer,
		publisher,
		logger.Component("notifications"),
	)
	if queueCfg.Enabled() {
		deps.Consumer = queue.NewKafkaConsumer(queueCfg, deps.NotificationService, logger.Component("kafka"))
	}

	deps.AuthService = appServices.NewAuthService(
		identity,
		repos.ProfileRepository,
		repos.TokenRepository,
		repos.DepartmentRepository,
		deps.JWTService,
		logger.Component("auth"),
	)
	deps.DepartmentService = appServices.NewDepartmentService(repos.DepartmentRepository, deps.StatsService)
	deps.ProfileService = appServices.NewProfileService(repos.ProfileRepository, repos.ApplicationRepository, deps.AuthzService)
	deps.InternshipService = appServices.NewInternshipService(
		transactor,
		repos.InternshipRepository,
		repos.ApplicationRepository,
		repos.DepartmentRepository,
		deps.AuthzService,
		deps.NotificationService,
		deps.StatsService,
		logger.Component("internships"),
	)

	signedURLTTL := helpers.ParseDuration(cfg.Storage.SignedURLTTL, filestorage.DefaultSignedURLTTL)
	deps.ApplicationService = appServices.NewApplicationService(
		transactor,
		repos.ApplicationRepository,
		repos.CertificateRepository,
		repos.InternshipRepository,
		repos.StorageCleanupRepository,
		deps.Store,
		deps.AuthzService,
		deps.NotificationService,
		deps.StatsService,
		appServices.UploadConfig{MaxBytes: cfg.Storage.MaxUploadBytes, SignedURLTTL: signedURLTTL},
		logger.Component("applications"),
	)
	deps.CertificateService = appServices.NewCertificateService(
		transactor,
		repos.CertificateRepository,
		repos.ApplicationRepository,
		deps.Store,
		deps.AuthzService,
		deps.StatsService,
		signedURLTTL,
		logger.Component("certificates"),
	)
	deps.AccountService = appServices.NewAccountService(identity, repos.ProfileRepository, deps.AuthzService, deps.StatsService, logger.Component("accounts"))

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, deps.AuthzService)
	deps.RateLimiter = appMiddleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	if cfg.Cron.Enabled {
		deps.Jobs = jobs.NewManager(repos.StorageCleanupRepository, repos.TokenRepository, deps.Store, deps.StatsService, logger.Component("jobs"))
	}

	// Controllers
	deps.Controllers = appRoutes.Controllers{
		Auth:        appControllers.NewAuthController(deps.AuthService, lgr),
		Department:  appControllers.NewDepartmentController(deps.DepartmentService),
		Profile:     appControllers.NewProfileController(deps.ProfileService),
		Internship:  appControllers.NewInternshipController(deps.InternshipService, lgr),
		Application: appControllers.NewApplicationController(deps.ApplicationService, cfg.Storage.MaxUploadBytes, lgr),
		Certificate: appControllers.NewCertificateController(deps.CertificateService, lgr),
		Stats:       appControllers.NewStatsController(deps.StatsService),
		Function:    appControllers.NewFunctionController(deps.AccountService, deps.NotificationService, deps.AuthMiddleware, lgr),
	}
	if deps.LocalStore != nil {
		deps.Controllers.Storage = appControllers.NewStorageController(deps.LocalStore, lgr)
	}

	return deps, nil
}

// setupStorage picks the certificate object store for the configured driver
func setupStorage(ctx context.Context, cfg *config.Config, deps *Dependencies) error {
	switch strings.ToLower(cfg.Storage.Driver) {
	case "s3":
		store, err := filestorage.NewS3Store(ctx, filestorage.S3StoreConfig{
			Bucket:   cfg.Storage.Bucket,
			Region:   cfg.Storage.Region,
			Endpoint: cfg.Storage.Endpoint,
		})
		if err != nil {
			return err
		}
		deps.Store = store
	case "", "local":
		store, err := filestorage.NewLocalStorage(cfg.Storage.LocalPath, cfg.Storage.Bucket, cfg.BaseURL(), cfg.JWT.Secret)
		if err != nil {
			return err
		}
		deps.LocalStore = store
		deps.Store = store
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	deps.Logger.Info().Str("driver", cfg.Storage.Driver).Str("bucket", cfg.Storage.Bucket).Msg("Certificate storage ready")
	return nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	appMiddleware.RegisterValidators()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger(logger.Component("http")))
	router.Use(appMiddleware.CORS(cfg.Server.AllowOrigin))

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware, deps.RateLimiter)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
