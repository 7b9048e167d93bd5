package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"edufund-backend/internal/adapter/docstore"
	httpadp "edufund-backend/internal/adapter/http"
	"edufund-backend/internal/adapter/middleware"
	"edufund-backend/internal/adapter/payment"
	"edufund-backend/internal/adapter/publisher"
	"edufund-backend/internal/adapter/repository/mysql"
	"edufund-backend/internal/config"
	"edufund-backend/internal/domain/actor"
	"edufund-backend/internal/domain/notification"
	"edufund-backend/internal/infrastructure/cache"
	"edufund-backend/internal/infrastructure/db"
	"edufund-backend/internal/infrastructure/lock"
	"edufund-backend/internal/infrastructure/logger"
	"edufund-backend/internal/infrastructure/retry"
	"edufund-backend/internal/usecase/archival"
	"edufund-backend/internal/usecase/notify"
	"edufund-backend/internal/usecase/submission"
	"edufund-backend/internal/usecase/workflow"
)

const (
	relayBatch = 200
	purgeBatch = 100
)

func main() {
	issue := flag.String("issue-token", "", "print a signed token for <user-id>:<role> and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if *issue != "" {
		if err := printToken(cfg, *issue); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func printToken(cfg *config.Config, subject string) error {
	user, role, found := strings.Cut(subject, ":")
	if !found || user == "" {
		return errors.New("issue-token expects <user-id>:<role>")
	}
	tok, err := middleware.IssueToken([]byte(cfg.JWTSecret), user, actor.Role(role), 24*time.Hour)
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	var (
		gdb *gorm.DB
		err error
	)
	switch cfg.DBDriver {
	case "sqlite":
		gdb, err = db.OpenSQLite(cfg.SQLitePath)
	default:
		gdb, err = db.OpenGorm(cfg.MySQLDSN())
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}
	if err := db.Migrate(gdb); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return gdb, nil
}

func openPublisher(cfg *config.Config, log *zap.Logger) (notification.Publisher, func(), error) {
	switch cfg.NotifyBroker {
	case "nats":
		p, err := publisher.NewNATS(cfg.NATSURL, cfg.NATSSubject, log)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	case "kafka":
		p := publisher.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		return p, func() { _ = p.Close() }, nil
	default:
		// the outbox table is the only sink
		return nil, func() {}, nil
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	gdb, err := openDB(cfg)
	if err != nil {
		return err
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		if rdb, err = cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
	}

	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.LockBackend == "redis" {
		if rdb == nil {
			return errors.New("LOCK_BACKEND=redis needs REDIS_ADDR")
		}
		locker = lock.NewRedisLocker(rdb, cfg.LockTTL)
	}

	if cfg.CloudinaryURL == "" {
		return errors.New("missing CLOUDINARY_URL")
	}
	docs, err := docstore.NewCloudinary(cfg.CloudinaryURL, cfg.DocumentFolder)
	if err != nil {
		return err
	}

	pub, closePub, err := openPublisher(cfg, log)
	if err != nil {
		return fmt.Errorf("publisher: %w", err)
	}
	defer closePub()

	retrier := retry.New(retry.Policy{
		MaxAttempts:     cfg.RetryMaxAttempts,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		AttemptTimeout:  cfg.DependencyAttemptTimeout,
	}, log.Named("retry"))

	repos := mysql.Repos(gdb)
	tx := mysql.NewGormUoW(gdb)
	dispatcher := notify.NewDispatcher(repos.Notifications, pub, retrier, log.Named("notify"))
	coord := workflow.NewCoordinator(workflow.Deps{
		UoW:      tx,
		Reader:   repos,
		Locker:   locker,
		Notifier: dispatcher,
		Retrier:  retrier,
		Log:      log.Named("workflow"),
	})
	subs := submission.NewUsecase(submission.Deps{
		UoW:      tx,
		Reader:   repos,
		Locker:   locker,
		Docs:     docs,
		Payments: payment.NewGateway("EDU"),
		Notifier: dispatcher,
		Retrier:  retrier,
		Log:      log.Named("submission"),
	})
	purger := archival.NewPurger(tx, repos.Archives, locker, retrier, log.Named("archival"))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Recover(), echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.Error(v.Error))
			return nil
		},
	}))

	checks := []httpadp.Check{{Name: "database", Ping: func(ctx context.Context) error { return db.Ping(ctx, gdb) }}}
	if rdb != nil {
		checks = append(checks, httpadp.Check{Name: "redis", Ping: func(ctx context.Context) error { return cache.Ping(ctx, rdb) }})
	}
	routes := httpadp.Routes{
		Health:      httpadp.NewHandler(checks...),
		Admin:       httpadp.NewAdminHandler(workflow.NewGate(coord)),
		Submissions: httpadp.NewSubmissionHandler(subs, repos.Notifications),
		Auth:        middleware.Auth([]byte(cfg.JWTSecret)),
	}
	if rdb != nil {
		routes.Idempotency = middleware.Idempotency(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second, log.Named("idempotency"))
	}
	httpadp.Register(e, routes)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dispatcher.RunRelay(gctx, cfg.RelayInterval, relayBatch)
		return nil
	})
	g.Go(func() error {
		purger.Run(gctx, cfg.ArchivePurgeInterval, purgeBatch)
		return nil
	})
	g.Go(func() error {
		addr := ":" + cfg.AppPort
		log.Info("listening", zap.String("addr", addr), zap.String("db", cfg.DBDriver),
			zap.String("locks", cfg.LockBackend), zap.String("broker", cfg.NotifyBroker))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
