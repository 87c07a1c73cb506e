package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"photoshare/internal/cache"
	"photoshare/internal/config"
	"photoshare/internal/database"
	"photoshare/internal/handler"
	"photoshare/internal/logger"
	"photoshare/internal/queue"
	"photoshare/internal/redis"
	"photoshare/internal/repository"
	"photoshare/internal/service"
	"photoshare/internal/worker"
)

const shutdownTimeout = 15 * time.Second

// stores groups the repositories of one backend.
type stores struct {
	photos        repository.PhotoRepository
	notifications repository.NotificationRepository
	users         repository.UserRepository
	close         func()
}

// Run wires the application and serves HTTP until SIGINT/SIGTERM.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	// Redis is optional: without it fanout runs inline and pages come from the store.
	var (
		index     cache.PhotoIndex
		publisher queue.Publisher
		manager   *worker.Manager
	)

	notificationService := service.NewNotificationService(st.notifications, st.photos, st.users, cfg.MaxPageSize, log)
	eventHandler := worker.NewHandler(notificationService, log)

	if cfg.RedisURL != "" {
		redisClient, err := redis.Connect(ctx, cfg.RedisURL, log)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()

		index = cache.NewPhotoIndex(redisClient.Client, log)
		publisher = queue.NewPublisher(redisClient.Client, log)
		manager = worker.NewManager(
			queue.NewConsumer(redisClient.Client, log),
			eventHandler,
			worker.ManagerConfig{WorkerCount: cfg.WorkerCount},
			log,
		)
	} else {
		log.Warn("REDIS_URL not set, notifications are created inline and the photo index is disabled")
		publisher = queue.NewInlinePublisher(eventHandler)
	}

	var storage service.FileStorage
	media, err := service.NewMediaService(ctx, cfg)
	if err != nil {
		log.Warn("File storage disabled, uploads will fail", "error", err)
	} else {
		storage = media
	}

	interactionService := service.NewInteractionService(st.photos, st.users, storage, index, publisher, log)
	galleryService := service.NewGalleryService(st.photos, st.users, index, cfg.MaxPageSize, log)

	validate := validator.New()
	router := NewRouter(RouterConfig{
		PhotoHandler:        handler.NewPhotoHandler(interactionService, galleryService, validate, cfg.DefaultPageSize, log),
		CommentHandler:      handler.NewCommentHandler(interactionService, log),
		NotificationHandler: handler.NewNotificationHandler(notificationService, validate, cfg.DefaultNotificationPageSize, log),
		JWTSecret:           cfg.JWTSecret,
	})

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Starting server", "addr", srv.Addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if manager != nil {
		g.Go(func() error {
			return manager.Run(gctx)
		})
	}

	return g.Wait()
}

func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		db, err := database.Connect(cfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return &stores{
			photos:        repository.NewPhotoRepository(db),
			notifications: repository.NewNotificationRepository(db),
			users:         repository.NewUserRepository(db),
			close:         func() { _ = db.Close() },
		}, nil

	case config.StoreDriverMongo:
		client, err := database.ConnectMongo(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		db := client.Database(cfg.MongoDatabase)

		photos := repository.NewMongoPhotoRepository(db)
		notifications := repository.NewMongoNotificationRepository(db)
		if err := photos.EnsureIndexes(ctx); err != nil {
			database.DisconnectMongo(client, log)
			return nil, err
		}
		if err := notifications.EnsureIndexes(ctx); err != nil {
			database.DisconnectMongo(client, log)
			return nil, err
		}
		return &stores{
			photos:        photos,
			notifications: notifications,
			users:         repository.NewMongoUserRepository(db),
			close:         func() { database.DisconnectMongo(client, log) },
		}, nil

	case config.StoreDriverMemory:
		log.Warn("Using in-memory store, data is lost on restart")
		users := repository.NewMemoryUserRepository()
		users.AllowUnknown = true
		return &stores{
			photos:        repository.NewMemoryPhotoRepository(),
			notifications: repository.NewMemoryNotificationRepository(),
			users:         users,
			close:         func() {},
		}, nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
