package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Convenios-api/internal/domain"
	"github.com/jhoicas/Convenios-api/internal/domain/entity"
	"github.com/jhoicas/Convenios-api/internal/domain/repository"
)

var _ repository.NotificationRepository = (*NotificationRepo)(nil)

const notificationColumns = `id, tipo, titulo, mensaje, prioridad, destinatario_id, destinatario_rol, leida, payload, created_at`

// NotificationRepo implementación del puerto NotificationRepository sobre PostgreSQL.
// El payload se guarda como JSONB; la deduplicación consulta payload->>'convenio_id'.
type NotificationRepo struct {
	q Querier
}

// NewNotificationRepository construye el adaptador.
func NewNotificationRepository(q Querier) *NotificationRepo {
	return &NotificationRepo{q: q}
}

// Create persiste una notificación.
func (r *NotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	query := `
		INSERT INTO notificaciones (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = r.q.Exec(ctx, query,
		n.ID, n.Type, n.Title, n.Message, n.Priority,
		n.RecipientID, n.RecipientRole, n.Read, payload, n.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert notificación %s: %w", n.ID, domain.ErrConflict)
		}
		return fmt.Errorf("insert notificación: %w", err)
	}
	return nil
}

// FindByTypeAndConvenio devuelve la primera notificación del tipo para el convenio creada en [from, to).
func (r *NotificationRepo) FindByTypeAndConvenio(ctx context.Context, notificationType, convenioID string, from, to time.Time) (*entity.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notificaciones
		WHERE tipo = $1 AND payload->>'convenio_id' = $2
		  AND created_at >= $3 AND created_at < $4
		ORDER BY created_at
		LIMIT 1`
	n, err := scanNotification(r.q.QueryRow(ctx, query, notificationType, convenioID, from, to))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find notificación: %w", err)
	}
	return n, nil
}

// ListByRecipient notificaciones del destinatario, más recientes primero.
func (r *NotificationRepo) ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]*entity.Notification, error) {
	if !validUUID(recipientID) {
		return []*entity.Notification{}, nil
	}
	query := `
		SELECT ` + notificationColumns + `
		FROM notificaciones
		WHERE destinatario_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, recipientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list notificaciones: %w", err)
	}
	defer rows.Close()

	list := make([]*entity.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notificación: %w", err)
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

func scanNotification(row pgx.Row) (*entity.Notification, error) {
	var (
		n   entity.Notification
		raw []byte
	)
	err := row.Scan(
		&n.ID, &n.Type, &n.Title, &n.Message, &n.Priority,
		&n.RecipientID, &n.RecipientRole, &n.Read, &raw, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	payload, err := entity.DecodePayload(n.Type, raw)
	if err != nil {
		return nil, fmt.Errorf("notificación %s: %w", n.ID, err)
	}
	n.Payload = payload
	return &n, nil
}
