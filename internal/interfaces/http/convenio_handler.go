package http

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Convenios-api/internal/application/dto"
	"github.com/jhoicas/Convenios-api/internal/domain"
	"github.com/jhoicas/Convenios-api/pkg/logger"
)

// SweepRunner ejecuta el barrido de vencimientos. Lo implementa *scheduler.SweepScheduler
// (que evita barridos simultáneos) o directamente *convenio.SweepUseCase.
type SweepRunner interface {
	Run(ctx context.Context) (*dto.SweepSummary, error)
}

// ExpirationReporter genera el reporte PDF. Lo implementa *convenio.ReportUseCase.
type ExpirationReporter interface {
	ExpiringReportPDF(ctx context.Context, windowDays int) ([]byte, string, error)
}

// ConvenioHandler maneja el disparo manual del barrido y el reporte de vencimientos.
type ConvenioHandler struct {
	sweep  SweepRunner
	report ExpirationReporter
	log    *logger.Logger
}

// NewConvenioHandler construye el handler.
func NewConvenioHandler(sweep SweepRunner, report ExpirationReporter, log *logger.Logger) *ConvenioHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ConvenioHandler{sweep: sweep, report: report, log: log.Named("http")}
}

// RunSweep godoc
// @Summary      Ejecutar barrido de vencimiento de convenios
// @Description  Ejecuta el barrido de forma síncrona y devuelve el resumen. Solo directores y administradores.
// @Tags         convenios
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SweepSummary
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/convenios/sweep [post]
func (h *ConvenioHandler) RunSweep(c *fiber.Ctx) error {
	summary, err := h.sweep.Run(c.UserContext())
	if err != nil {
		if errors.Is(err, domain.ErrSweepInProgress) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "SWEEP_IN_PROGRESS", Message: "ya hay un barrido en ejecución"})
		}
		h.log.Error().Err(err).Str("user_id", GetUserID(c)).Msg("barrido manual falló")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "SWEEP_FAILED", Message: err.Error()})
	}
	h.log.Info().
		Str("user_id", GetUserID(c)).
		Int("agreements_scanned", summary.AgreementsScanned).
		Msg("barrido manual ejecutado")
	return c.JSON(summary)
}

// ExpirationReport godoc
// @Summary      Reporte PDF de convenios próximos a vencer
// @Tags         convenios
// @Security     Bearer
// @Produce      application/pdf
// @Param        dias  query  int  false  "Ventana en días (por defecto el umbral medio, máx. 365)"
// @Success      200  {file}    binary
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/convenios/vencimientos/reporte [get]
func (h *ConvenioHandler) ExpirationReport(c *fiber.Ctx) error {
	days := 0
	if raw := c.Query("dias"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "dias debe ser un entero"})
		}
		days = n
	}
	pdf, filename, err := h.report.ExpiringReportPDF(c.UserContext(), days)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(pdf)
}
