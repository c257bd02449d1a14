package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/leadflow-api/internal/application/activity"
	"github.com/jhoicas/leadflow-api/internal/application/auth"
	"github.com/jhoicas/leadflow-api/internal/application/automation"
	"github.com/jhoicas/leadflow-api/internal/application/documents"
	"github.com/jhoicas/leadflow-api/internal/application/emailbridge"
	"github.com/jhoicas/leadflow-api/internal/application/lifecycle"
	"github.com/jhoicas/leadflow-api/internal/application/pipeline"
	"github.com/jhoicas/leadflow-api/internal/application/ports"
	"github.com/jhoicas/leadflow-api/internal/bootstrap"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/infrastructure/lock"
	"github.com/jhoicas/leadflow-api/internal/infrastructure/mail"
	infrapdf "github.com/jhoicas/leadflow-api/internal/infrastructure/pdf"
	"github.com/jhoicas/leadflow-api/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/leadflow-api/internal/interfaces/http"
	"github.com/jhoicas/leadflow-api/pkg/config"
	"github.com/jhoicas/leadflow-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	logr := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log := logr.Zerolog()
	log.Info().
		Str("env", cfg.App.Env).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es requerido")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := bootstrap.OpenStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir storage")
	}
	defer st.Close()

	// Document Store opcional: sin MinIO no hay subida de documentos ni PDF del NDA
	var docStore ports.DocumentStore
	if cfg.Minio.Enabled() {
		ms, err := storage.NewMinioStore(storage.MinioConfig{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("cliente MinIO")
		}
		if err := ms.EnsureBucket(ctx); err != nil {
			log.Fatal().Err(err).Str("bucket", cfg.Minio.Bucket).Msg("bucket de documentos")
		}
		docStore = ms
	} else {
		log.Warn().Msg("MINIO_ENDPOINT vacío: documentos deshabilitados")
	}

	var locker ports.RecordLocker = lock.NewLocalLocker(nil)
	if cfg.Redis.URL != "" {
		rl, err := lock.NewRedisLocker(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rl.Close()
		locker = rl
	}

	var source ports.MailSource
	if cfg.IMAP.Enabled() {
		source = mail.NewIMAPSource(mail.IMAPConfig{
			Addr:     cfg.IMAP.Addr,
			Username: cfg.IMAP.Username,
			Password: cfg.IMAP.Password,
			Mailbox:  cfg.IMAP.Mailbox,
			Provider: entity.LeadSource(cfg.IMAP.Provider),
		}, log)
	}

	reconciler := lifecycle.NewReconciler(lifecycle.ReconcilerConfig{
		BaseDelay:   cfg.Reconcile.BaseDelay,
		MaxAttempts: cfg.Reconcile.MaxAttempts,
	}, log)

	deps := lifecycle.Deps{Tx: st.Tx, Repos: st.Repos, Reconciler: reconciler, Log: log}
	if docStore != nil {
		deps.Renderer = infrapdf.NewNdaGenerator(cfg.App.Name)
		deps.Documents = docStore
	}
	svc := lifecycle.NewService(deps, lifecycle.Config{ChecklistTemplate: cfg.Checklist.DefaultItems})

	sweeper := bootstrap.NewSweeper(st, cfg.Automation, log)
	authUC := auth.NewAuthUseCase(st.Repos.Users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    30 << 20,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "LeadFlow API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:    authUC,
		Lifecycle: svc,
		LeadLocks: activity.NewLeadLocks(locker, cfg.Redis.LeadLockTTL),
		Pipeline:  pipeline.NewUseCase(st.Tx, st.Repos, log, nil),
		Activity:  activity.NewUseCase(st.Tx, st.Repos, log, nil),
		Documents: documents.NewUseCase(st.Tx, st.Repos, docStore, cfg.Minio.URLTTL, log, nil),
		Email:     emailbridge.NewUseCase(st.Repos, source, svc, log, nil),
		Sweeper:   sweeper,
		JWTSecret: cfg.JWT.Secret,
		Log:       log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.Listen(cfg.HTTP.Addr()) })
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})
	g.Go(func() error {
		return reconciler.Start(gctx, cfg.Reconcile.Interval)
	})
	if cfg.Automation.Enabled {
		g.Go(func() error {
			return automation.NewScheduler(sweeper, cfg.Automation.Interval, log).Start(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("aplicación finalizada con error")
	}
	if n := reconciler.Pending(); n > 0 {
		log.Warn().Int("pending", n).Msg("pasos secundarios sin aplicar al apagar")
	}
	log.Info().Msg("aplicación detenida")
}
