package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"room-reservation/cmd"
	"room-reservation/internal/cache"
	"room-reservation/internal/data/repository"
	"room-reservation/internal/notify"
	"room-reservation/internal/scheduler"
	"room-reservation/internal/usecase"
	"room-reservation/internal/wire"
	"room-reservation/pkg/database"
	"room-reservation/pkg/dateutil"
	"room-reservation/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
		zap.String("timezone", config.App.Timezone),
	)

	loc, err := config.App.Location()
	if err != nil {
		logger.Fatal("Invalid timezone", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if config.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatal("Failed to apply schema", zap.Error(err))
		}
		logger.Info("Database schema up to date")
	}

	deps := usecase.Deps{
		Clock:    dateutil.SystemClock{},
		Location: loc,
		Cache:    cache.Noop{},
		Notifier: notify.NewLogDispatcher(logger),
	}

	// Optional calendar cache
	if config.Redis.Addr != "" {
		client := cache.NewRedisClient(config.Redis)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Warn("Redis unreachable, calendar cache disabled", zap.Error(err))
			client.Close()
		} else {
			deps.Cache = cache.NewRedisCalendarCache(client, config.Redis.CalendarTTL, logger)
			defer client.Close()
			logger.Info("Calendar cache enabled", zap.String("addr", config.Redis.Addr))
		}
		cancel()
	}

	// Optional notification broker
	if config.AMQP.URL != "" {
		dispatcher, err := notify.NewAMQPDispatcher(config.AMQP, logger)
		if err != nil {
			logger.Warn("Message broker unreachable, notifications are logged only", zap.Error(err))
		} else {
			deps.Notifier = dispatcher
			logger.Info("Notifications published", zap.String("exchange", config.AMQP.Exchange))
		}
	}
	defer deps.Notifier.Close()

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Wire all dependencies
	app := wire.Wiring(repos, config, deps, logger)

	// Background reconcile sweep
	if config.Booking.ReconcileCron != "" {
		sweep, err := scheduler.New(config.Booking.ReconcileCron, app.Service.Reconciler, logger)
		if err != nil {
			logger.Fatal("Failed to schedule reconcile sweep", zap.Error(err))
		}
		sweep.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := sweep.Stop(stopCtx); err != nil {
				logger.Warn("Reconcile sweep did not stop in time", zap.Error(err))
			}
		}()
	}

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("HTTP server stopped", zap.Error(err))
		return
	}
	logger.Info("Server stopped")
}
