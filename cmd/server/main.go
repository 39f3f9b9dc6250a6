package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/dynoform/composer/docs"
	"github.com/dynoform/composer/internal/config"
	"github.com/dynoform/composer/internal/infra/blob"
	"github.com/dynoform/composer/internal/infra/cache"
	"github.com/dynoform/composer/internal/infra/db"
	"github.com/dynoform/composer/internal/infra/logger"
	"github.com/dynoform/composer/internal/infra/queue"
	"github.com/dynoform/composer/internal/infra/telemetry"
	"github.com/dynoform/composer/internal/modules/handler"
	"github.com/dynoform/composer/internal/modules/repo"
	"github.com/dynoform/composer/internal/modules/service"
	"github.com/samber/do"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//	@title			Composer API
//	@version		1.0
//	@description	Multi-tenant form composition engine: versioned catalogs of field definitions, reusable components and forms, with rendering, overrides and submissions.
//	@BasePath		/api/v1

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		panic(err)
	}
}

func run(ctx context.Context) error {
	injector := do.New()
	defer injector.Shutdown()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	do.ProvideValue(injector, cfg)

	log, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()
	do.ProvideValue(injector, log)

	shutdownTracing, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("flush traces", zap.Error(err))
		}
	}()

	do.Provide(injector, func(i *do.Injector) (*gorm.DB, error) {
		return db.New(do.MustInvoke[*config.Config](i), do.MustInvoke[*zap.Logger](i))
	})
	do.Provide(injector, func(i *do.Injector) (repo.Store, error) {
		return repo.NewStore(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(injector, func(i *do.Injector) (service.RenderCache, error) {
		c := do.MustInvoke[*config.Config](i)
		client, err := cache.NewClient(c)
		if err != nil {
			return nil, err
		}
		return cache.NewRenderCache(client, c.Redis.RenderTTL, do.MustInvoke[*zap.Logger](i)), nil
	})
	do.Provide(injector, func(i *do.Injector) (service.ExportStore, error) {
		return blob.NewExportStore(ctx, do.MustInvoke[*config.Config](i))
	})
	do.Provide(injector, func(i *do.Injector) (service.EventPublisher, error) {
		c := do.MustInvoke[*config.Config](i)
		dial := queue.Dial(c.RabbitMQ.URL)
		conn, err := dial()
		if err != nil {
			return nil, fmt.Errorf("dial rabbitmq: %w", err)
		}
		pub, err := queue.NewPublisher(conn, do.MustInvoke[*zap.Logger](i), c, dial)
		if err != nil {
			return nil, fmt.Errorf("open publisher channel: %w", err)
		}
		return pub, nil
	})

	do.Provide(injector, func(i *do.Injector) (service.Guard, error) {
		return service.NewGuard(do.MustInvoke[*zap.Logger](i)), nil
	})

	store := do.MustInvoke[repo.Store](injector)
	guard := do.MustInvoke[service.Guard](injector)
	events := do.MustInvoke[service.EventPublisher](injector)
	renderCache := do.MustInvoke[service.RenderCache](injector)
	exports := do.MustInvoke[service.ExportStore](injector)

	handlers := handler.Handlers{
		Category: handler.NewCategoryHandler(service.NewCategoryService(store, events, log)),
		FieldDef: handler.NewFieldDefHandler(service.NewFieldDefService(store, guard, events, log)),
		Component: handler.NewComponentHandler(
			service.NewComponentService(store, guard, events, log),
			service.NewComponentCompositionService(store, guard, events, renderCache, log),
		),
		Form: handler.NewFormHandler(
			service.NewFormService(store, guard, events, log),
			service.NewFormCompositionService(store, guard, events, renderCache, log),
		),
		Render:      handler.NewRenderHandler(service.NewRenderService(store, renderCache, exports, log)),
		Submission:  handler.NewSubmissionHandler(service.NewSubmissionService(store, events, log)),
		Marketplace: handler.NewMarketplaceHandler(service.NewMarketplaceService(store, events, log)),
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler: handler.NewRouter(cfg.App.Name, handlers),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
