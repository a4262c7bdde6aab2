package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Convenios-api/internal/application/dto"
	"github.com/jhoicas/Convenios-api/internal/domain"
)

// NotificationLister lista notificaciones de un destinatario. Lo implementa *notification.Service.
type NotificationLister interface {
	ListForRecipient(ctx context.Context, recipientID string, page dto.PageRequest) (*dto.NotificationListResponse, error)
}

// NotificationHandler expone las notificaciones del usuario autenticado.
type NotificationHandler struct {
	svc NotificationLister
}

// NewNotificationHandler construye el handler.
func NewNotificationHandler(svc NotificationLister) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List godoc
// @Summary      Listar mis notificaciones
// @Tags         notificaciones
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Máximo de resultados (1-100, por defecto 20)"
// @Param        offset  query  int  false  "Desplazamiento"
// @Success      200  {object}  dto.NotificationListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/notificaciones [get]
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "limit y offset deben ser enteros"})
	}
	out, err := h.svc.ListForRecipient(c.UserContext(), userID, page)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}
