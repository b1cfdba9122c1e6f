package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/mx-space/landing/internal/config"
	"github.com/mx-space/landing/internal/database"
	"github.com/mx-space/landing/internal/middleware"
	"github.com/mx-space/landing/internal/modules/launch"
	"github.com/mx-space/landing/internal/modules/subscriber"
	"github.com/mx-space/landing/internal/pkg/mail"
	pkgredis "github.com/mx-space/landing/internal/pkg/redis"
	"github.com/mx-space/landing/internal/pkg/schedule"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// App holds all application dependencies.
type App struct {
	cfg       *config.AppConfig
	router    *gin.Engine
	logger    *zap.Logger
	mongo     *mongo.Client
	redis     *pkgredis.Client
	store     subscriber.Store
	sender    *mail.Sender
	sched     *schedule.Scheduler
	launch    *launch.Controller
	startedAt time.Time
}

// New wires the application: store → redis → mail → scheduler → controller → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger, startedAt: time.Now()}

	if err := a.openStore(); err != nil {
		return nil, err
	}
	a.openRedis()

	a.sender = mail.New(mail.BuildConfig(cfg))
	notifier := mail.NewNotifier(a.sender, mail.Site{Name: cfg.Site.Name, URL: cfg.Site.URL})
	if !a.sender.Enabled() {
		logger.Warn("mail delivery disabled, notices are dropped")
	}

	var guard launch.SendGuard = launch.NewMemoryGuard()
	if a.redis != nil {
		guard = launch.NewRedisGuard(a.redis, 0)
	}

	a.sched = schedule.New()
	a.launch = launch.New(a.store, notifier, guard, a.sched, launch.Options{
		Mode:              launch.Mode(cfg.Launch.Mode),
		Delay:             cfg.Launch.Delay,
		Window:            cfg.Launch.Window,
		NotifyLateSignups: cfg.NotifyLateSignups(),
	}, logger)

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(ginzap.RecoveryWithZap(logger, true))
	router.Use(middleware.Logger(logger))
	router.Use(newCORS(cfg))
	a.router = router

	a.registerRoutes(subscriber.NewHandler(a.store, notifier, a.launch, logger))
	return a, nil
}

func (a *App) openStore() error {
	switch a.cfg.Store.Driver {
	case config.StoreMemory:
		a.logger.Warn("using in-memory subscriber store, data is lost on restart")
		a.store = subscriber.NewMemoryStore()
	default:
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Store.Timeout)
		client, err := database.Connect(ctx, a.cfg, a.logger)
		cancel()
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		store := subscriber.NewMongoStore(database.Collection(client, a.cfg))

		// The ping above may have used up the whole timeout.
		ctx, cancel = context.WithTimeout(context.Background(), a.cfg.Store.Timeout)
		if err := store.EnsureIndexes(ctx); err != nil {
			a.logger.Warn("ensure indexes failed, retrying on next signup", zap.Error(err))
		}
		cancel()
		a.mongo = client
		a.store = store
	}
	return nil
}

// openRedis connects when a URL is configured. Failure only disables the
// rate limiter and cross-process send claims.
func (a *App) openRedis() {
	if a.cfg.RedisURL == "" {
		return
	}
	rc, err := pkgredis.Connect(a.cfg.RedisURL)
	if err != nil {
		a.logger.Error("redis unavailable, continuing without it", zap.Error(err))
		return
	}
	a.redis = rc
}

// Start arms the lifecycle controller.
func (a *App) Start(ctx context.Context) error {
	if err := a.launch.Start(ctx); err != nil {
		return fmt.Errorf("launch controller: %w", err)
	}
	a.logger.Info("landing started",
		zap.String("store", a.cfg.Store.Driver),
		zap.String("launchMode", a.cfg.Launch.Mode),
		zap.String("mail", a.sender.Provider()),
		zap.Bool("redis", a.redis != nil),
	)
	return nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops scheduled work and releases connections.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.sched.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop scheduler: %w", err))
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if err := database.Disconnect(a.mongo, a.cfg.ShutdownWait); err != nil {
		errs = append(errs, fmt.Errorf("disconnect mongo: %w", err))
	}
	return errors.Join(errs...)
}

func (a *App) pingStore(ctx context.Context) error {
	if a.mongo == nil {
		return nil
	}
	return a.mongo.Ping(ctx, nil)
}
