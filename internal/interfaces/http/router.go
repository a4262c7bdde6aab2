package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Convenios-api/internal/domain/entity"
	"github.com/jhoicas/Convenios-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Sweep         SweepRunner
	Report        ExpirationReporter
	Notifications NotificationLister
	Metrics       requestRecorder // opcional
	JWTSecret     string
	Log           *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Metrics != nil {
		app.Use(MetricsMiddleware(deps.Metrics))
	}

	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Convenios: disparo manual del barrido y reporte (directores y administradores)
	convenioHandler := NewConvenioHandler(deps.Sweep, deps.Report, deps.Log)
	convenios := api.Group("/convenios", RequireRole(entity.RoleDirector, entity.RoleAdmin))
	convenios.Post("/sweep", convenioHandler.RunSweep)
	convenios.Get("/vencimientos/reporte", convenioHandler.ExpirationReport)

	// Notificaciones del usuario autenticado (cualquier rol)
	notificationHandler := NewNotificationHandler(deps.Notifications)
	api.Get("/notificaciones", notificationHandler.List)
}
