package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	_ "github.com/jhoicas/Convenios-api/docs"
	appconvenio "github.com/jhoicas/Convenios-api/internal/application/convenio"
	"github.com/jhoicas/Convenios-api/internal/application/notification"
	"github.com/jhoicas/Convenios-api/internal/application/ports"
	domconvenio "github.com/jhoicas/Convenios-api/internal/domain/convenio"
	"github.com/jhoicas/Convenios-api/internal/domain/entity"
	"github.com/jhoicas/Convenios-api/internal/infrastructure/email"
	"github.com/jhoicas/Convenios-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/Convenios-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Convenios-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Convenios-api/internal/infrastructure/realtime"
	"github.com/jhoicas/Convenios-api/internal/infrastructure/scheduler"
	httpRouter "github.com/jhoicas/Convenios-api/internal/interfaces/http"
	"github.com/jhoicas/Convenios-api/pkg/config"
	"github.com/jhoicas/Convenios-api/pkg/logger"
)

// @title           Convenios API
// @version         1.0
// @description     Barrido de vencimiento de convenios, notificaciones y reporte de vencimientos.
// @BasePath        /
// @securityDefinitions.apikey Bearer
// @in              header
// @name            Authorization
// @description     Token JWT con el prefijo Bearer
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("tz", cfg.App.Timezone).
		Msg("iniciando aplicación")

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("tz", cfg.App.Timezone).Msg("zona horaria inválida")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	convenioRepo := postgres.NewConvenioRepository(pool)
	companyRepo := postgres.NewCompanyRepository(pool)
	directorRepo := postgres.NewDirectorRepository(pool)
	notifRepo := postgres.NewNotificationRepository(pool)
	recipientRepo := postgres.NewRecipientRepository(pool)

	// Fan-out en tiempo real: si Redis no responde se sigue sin él (las notificaciones quedan persistidas).
	var (
		publisher ports.RealtimePublisher = ports.NopPublisher{}
		rdb       *redis.Client
	)
	if cfg.Redis.Enabled {
		rdb, err = realtime.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr()).Msg("Redis no disponible, fan-out deshabilitado")
		} else {
			publisher = realtime.NewRedisPublisher(rdb)
		}
	}

	var sender ports.EmailSender
	if cfg.SES.Enabled {
		sesSender, err := email.NewSESSender(ctx, cfg.SES, log)
		if err != nil {
			log.Fatal().Err(err).Msg("cliente SES")
		}
		sender = sesSender
	} else {
		sender = email.NewLogSender(log)
	}

	promMetrics := metrics.New(prometheus.DefaultRegisterer)

	notificationSvc := notification.NewService(
		notifRepo, recipientRepo, publisher, sender,
		map[string]string{
			entity.NotificationConvenioPorVencer: cfg.SES.TemplateConvenioPorVencer,
			entity.NotificationConvenioVencido:   cfg.SES.TemplateConvenioVencido,
		},
		log,
		notification.WithMetrics(promMetrics),
	)

	thresholds := domconvenio.Thresholds{
		Urgent: cfg.Sweep.UrgentDays,
		High:   cfg.Sweep.HighDays,
		Medium: cfg.Sweep.MediumDays,
	}
	sweepUC := appconvenio.NewSweepUseCase(
		convenioRepo, companyRepo, directorRepo, notifRepo, notificationSvc,
		thresholds, log,
		appconvenio.WithLocation(loc),
		appconvenio.WithSweepMetrics(promMetrics),
	)
	reportUC := appconvenio.NewReportUseCase(
		convenioRepo, companyRepo,
		infrapdf.NewMarotoReportGenerator(cfg.App.Name, loc),
		sweepUC.Thresholds(),
	)

	// El scheduler serializa el barrido programado y el disparo manual.
	sweepScheduler := scheduler.New(sweepUC, scheduler.Options{
		Schedule:   cfg.Sweep.Schedule,
		RunOnStart: cfg.Sweep.RunOnStart,
		Location:   loc,
	}, log)
	if cfg.Sweep.Enabled {
		if err := sweepScheduler.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("scheduler de barrido")
		}
	} else {
		log.Info().Msg("barrido programado deshabilitado (SWEEP_ENABLED=false)")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Convenios API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Sweep:         sweepScheduler,
		Report:        reportUC,
		Notifications: notificationSvc,
		Metrics:       promMetrics,
		JWTSecret:     cfg.JWT.Secret,
		Log:           log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	// Un barrido en curso termina; no se interrumpe a mitad de un convenio.
	select {
	case <-sweepScheduler.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn().Msg("barrido en curso no terminó antes del tiempo de apagado")
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("cerrar Redis")
		}
	}

	log.Info().Msg("aplicación detenida")
}
