package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/gigmart/backend/internal/config"
	"github.com/gigmart/backend/internal/domain"
	"github.com/gigmart/backend/internal/handlers"
	"github.com/gigmart/backend/internal/identity"
	"github.com/gigmart/backend/internal/notifier"
	"github.com/gigmart/backend/internal/pg"
	"github.com/gigmart/backend/internal/repo"
	"github.com/gigmart/backend/internal/service"
	"github.com/gigmart/backend/pkg/clients"
	"github.com/gigmart/backend/pkg/logger"
)

type ApplicationI interface {
	Start(ctx context.Context) error
	Wait(ctx context.Context, cancel context.CancelFunc) error
}

type Application struct {
	cfg    *config.Config
	api    *handlers.Handlers
	srv    *service.Services
	repo   *repo.Repositories
	events *notifier.Service

	errCh chan error
	wg    sync.WaitGroup
	ready bool
}

func New() *Application {
	return &Application{
		errCh: make(chan error),
	}
}

func (a *Application) Start(ctx context.Context) error {
	cfg := config.New()

	err := logger.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("can't init logger: %w", err)
	}

	pool, err := getPgxpool(ctx, cfg)
	if err != nil {
		zap.L().Error("build pgx pool failed: ", zap.Error(err))
		return fmt.Errorf("can't build pgx pool: %w", err)
	}
	if err := pg.RunMigrations(pool); err != nil {
		zap.L().Error("migrations failed: ", zap.Error(err))
		return fmt.Errorf("can't run migrations: %w", err)
	}
	txManager := pg.NewTXManager(pool, cfg.TxTimeout)

	conn := pg.New(pool)
	httpClient := clients.NewHTTPClient()

	a.cfg = cfg
	a.repo = repo.New(conn)
	a.events = notifier.New(cfg.NotifyAddress, httpClient)
	a.srv = service.New(a.repo, txManager, a.events,
		domain.PayoutShares{Worker: cfg.WorkerShare, Support: cfg.SupportShare})
	resolver := identity.New(cfg.IdentityAddress, httpClient, a.repo.IdentityRepo)
	a.api = handlers.New(a.srv, resolver)

	lock := pg.NewRowLock(conn)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		// Only one instance sweeps expired lock rows.
		owner, err := lock.Acquire(ctx, "lock-sweeper", cfg.LockTTL)
		if err != nil {
			if err != pg.ErrLockNotAcquired {
				zap.L().Error("lock sweeper not started", zap.Error(err))
			}
			return
		}
		defer func() {
			rCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			lock.Release(rCtx, "lock-sweeper", owner)
		}()
		lock.StartSweeper(ctx, cfg.LockSweep)
	}()

	if err = a.startHTTPServer(ctx); err != nil {
		return fmt.Errorf("can't start http server: %w", err)
	}

	a.ready = true
	zap.L().Info("all systems started successfully")
	return nil
}

func getPgxpool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	cfgpool, err := pgxpool.ParseConfig(cfg.Database)
	if err != nil {
		return nil, err
	}
	dbpool, err := pgxpool.NewWithConfig(ctx, cfgpool)
	if err != nil {
		return nil, err
	}
	if err = dbpool.Ping(ctx); err != nil {
		return nil, err
	}
	return dbpool, nil
}

func (a *Application) startHTTPServer(ctx context.Context) error {
	router := chi.NewRouter()
	a.api.InitRoutes(router)
	server := http.Server{
		Addr:    a.cfg.Address,
		Handler: router,
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()

		sCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(sCtx)
		a.events.Close()
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		zap.L().Info("starting http server on port", zap.String("port", a.cfg.Address))
		if err := server.ListenAndServe(); err != nil {
			a.errCh <- fmt.Errorf("http server exited with error: %w", err)
		}
	}()

	return nil
}

func (a *Application) Wait(ctx context.Context, cancel context.CancelFunc) error {
	var appErr error

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for err := range a.errCh {
			cancel()
			zap.L().Error(err.Error())
			appErr = err
		}
	}()

	<-ctx.Done()
	a.wg.Wait()
	close(a.errCh)
	wg.Wait()

	return appErr
}
