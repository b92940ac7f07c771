package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/httprate"
	"github.com/redis/go-redis/v9"

	"github.com/phrazzld/tourbook-api/internal/config"
	"github.com/phrazzld/tourbook-api/internal/events"
	"github.com/phrazzld/tourbook-api/internal/metrics"
	"github.com/phrazzld/tourbook-api/internal/platform/database"
	"github.com/phrazzld/tourbook-api/internal/platform/mailer"
	"github.com/phrazzld/tourbook-api/internal/platform/ratelimit"
	"github.com/phrazzld/tourbook-api/internal/service"
	"github.com/phrazzld/tourbook-api/internal/service/auth"
	"github.com/phrazzld/tourbook-api/internal/task"
)

// shutdownTimeout bounds the drain of in-flight requests and tasks.
const shutdownTimeout = 10 * time.Second

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	backend *database.Backend
	redis   *redis.Client

	jwtService auth.JWTService
	hasher     *auth.BcryptHasher
	mail       mailer.Sender

	// Event system
	eventEmitter *events.InMemoryEventEmitter

	// Task handling
	taskRunner *task.TaskRunner

	tourService   service.TourService
	reviewService service.ReviewService
	userService   service.UserService
	authService   service.AuthService
}

// newApplication connects to the backends named by cfg and wires every
// service. On error, whatever was opened is closed again.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *application, err error) {
	app := &application{config: cfg, logger: logger}
	defer func() {
		if err != nil {
			app.cleanup()
		}
	}()

	app.backend, err = database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.RateLimit.Enabled && cfg.RateLimit.Backend == config.RateLimitRedis {
		app.redis, err = ratelimit.Connect(ctx, cfg.RateLimit.RedisURL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to rate limit store: %w", err)
		}
	}

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.hasher = auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	app.mail = mailer.New(cfg.Mail, logger)

	app.taskRunner = setupTaskRunner(cfg.Task, logger)
	app.eventEmitter = events.NewInMemoryEventEmitter(logger)

	ratingTasks := task.NewTourRatingTaskFactory(app.backend.Reviews, app.backend.Tx, logger)
	app.eventEmitter.Subscribe(events.ReviewChanged, task.NewReviewEventHandler(ratingTasks, app.taskRunner, logger))

	if err := app.setupServices(); err != nil {
		return nil, err
	}

	logger.Info("application initialized successfully")
	return app, nil
}

func (app *application) setupServices() error {
	b := app.backend
	var err error

	app.tourService, err = service.NewTourService(b.Tours, b.Reviews, b.Users, b.Tx, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create tour service: %w", err)
	}

	app.reviewService, err = service.NewReviewService(b.Reviews, b.Tx, app.eventEmitter, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create review service: %w", err)
	}

	app.userService, err = service.NewUserService(b.Users, app.hasher, b.Tx, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create user service: %w", err)
	}

	app.authService, err = service.NewAuthService(
		b.Users,
		app.jwtService,
		app.hasher,
		app.mail,
		b.Tx,
		service.AuthServiceConfig{
			ResetTokenLifetime: time.Duration(app.config.Auth.ResetTokenLifetimeMinutes) * time.Minute,
		},
		app.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create auth service: %w", err)
	}
	return nil
}

// setupTaskRunner starts the background worker pool. Task outcomes are
// exported as metrics.
func setupTaskRunner(cfg config.TaskConfig, logger *slog.Logger) *task.TaskRunner {
	runnerCfg := task.DefaultTaskRunnerConfig()
	runnerCfg.WorkerCount = cfg.WorkerCount
	runnerCfg.QueueSize = cfg.QueueSize

	runner := task.NewTaskRunner(runnerCfg, logger)
	runner.SetObserver(metrics.RecordTask)
	runner.Start()
	return runner
}

// limitCounter is the shared rate limit store, or nil for in-process
// counting.
func (app *application) limitCounter() httprate.LimitCounter {
	if app.redis == nil {
		return nil
	}
	return ratelimit.NewRedisCounter(app.redis, "")
}

// Run serves HTTP until ctx is canceled.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()

	router := newRouter(routes{
		config:       app.config,
		logger:       app.logger,
		tours:        app.tourService,
		reviews:      app.reviewService,
		users:        app.userService,
		auth:         app.authService,
		health:       app.backend.Pinger,
		limitCounter: app.limitCounter(),
	})

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if app.taskRunner != nil {
		app.taskRunner.Stop(ctx)
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis connection", "error", err)
		}
	}

	if app.backend != nil {
		if err := app.backend.Close(ctx); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
