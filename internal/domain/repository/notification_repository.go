package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Convenios-api/internal/domain/entity"
)

// NotificationRepository define el puerto de persistencia para Notification.
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	// FindByTypeAndConvenio busca una notificación del tipo dado cuyo payload.convenio_id
	// coincide y cuya creación cae en [from, to). Devuelve (nil, nil) si no existe.
	FindByTypeAndConvenio(ctx context.Context, notificationType, convenioID string, from, to time.Time) (*entity.Notification, error)
	ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]*entity.Notification, error)
}
