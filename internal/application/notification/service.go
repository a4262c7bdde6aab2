package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Convenios-api/internal/application/dto"
	"github.com/jhoicas/Convenios-api/internal/application/ports"
	"github.com/jhoicas/Convenios-api/internal/domain"
	"github.com/jhoicas/Convenios-api/internal/domain/entity"
	"github.com/jhoicas/Convenios-api/internal/domain/repository"
	"github.com/jhoicas/Convenios-api/pkg/logger"
)

// EmitInput datos de una notificación a emitir.
type EmitInput struct {
	RecipientID   string
	RecipientRole string
	Type          string
	Title         string
	Message       string
	Priority      string
	Payload       entity.Payload
}

// Service persiste notificaciones y las entrega por tiempo real y correo (best-effort).
type Service struct {
	notifRepo     repository.NotificationRepository
	recipientRepo repository.RecipientRepository
	publisher     ports.RealtimePublisher
	email         ports.EmailSender
	templates     map[string]string // tipo de notificación -> plantilla SES
	metrics       ports.SweepMetrics
	log           *logger.Logger
	now           func() time.Time
}

// Option configura dependencias opcionales del Service.
type Option func(*Service)

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics inyecta el registrador de métricas.
func WithMetrics(m ports.SweepMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService construye el servicio. publisher y email pueden ser nil: se usan los objetos nulos.
func NewService(
	notifRepo repository.NotificationRepository,
	recipientRepo repository.RecipientRepository,
	publisher ports.RealtimePublisher,
	email ports.EmailSender,
	templates map[string]string,
	log *logger.Logger,
	opts ...Option,
) *Service {
	if publisher == nil {
		publisher = ports.NopPublisher{}
	}
	if email == nil {
		email = ports.NopEmailSender{}
	}
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		notifRepo:     notifRepo,
		recipientRepo: recipientRepo,
		publisher:     publisher,
		email:         email,
		templates:     templates,
		metrics:       ports.NopMetrics{},
		log:           log.Named("notification"),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Emit valida el destinatario, persiste la notificación y luego intenta el fan-out y
// el correo (solo directores). Una vez persistida la fila, los fallos de entrega se
// registran pero no se devuelven.
//
// Retorna:
//   - domain.ErrInvalidInput      si faltan campos o el payload no corresponde al tipo.
//   - domain.ErrRecipientNotFound si el destinatario no existe.
func (s *Service) Emit(ctx context.Context, in EmitInput) (*entity.Notification, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	recipient, err := s.recipientRepo.FindByID(ctx, in.RecipientID)
	if err != nil {
		return nil, fmt.Errorf("notificación: buscar destinatario: %w", err)
	}
	if recipient == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecipientNotFound, in.RecipientID)
	}

	role := in.RecipientRole
	if role == "" {
		role = recipient.Role
	}
	n := &entity.Notification{
		ID:            uuid.New().String(),
		Type:          in.Type,
		Title:         in.Title,
		Message:       in.Message,
		Priority:      in.Priority,
		RecipientID:   recipient.ID,
		RecipientRole: role,
		Read:          false,
		Payload:       in.Payload,
		CreatedAt:     s.now(),
	}
	if err := s.notifRepo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("notificación: persistir: %w", err)
	}
	s.metrics.NotificationEmitted(n.Type, n.Priority)

	s.fanOut(ctx, n)
	if role == entity.RoleDirector {
		s.sendEmail(ctx, n, recipient)
	}
	return n, nil
}

// ListForRecipient lista las notificaciones de un destinatario, más recientes primero.
func (s *Service) ListForRecipient(ctx context.Context, recipientID string, page dto.PageRequest) (*dto.NotificationListResponse, error) {
	if recipientID == "" {
		return nil, domain.ErrInvalidInput
	}
	page.Normalize()
	list, err := s.notifRepo.ListByRecipient(ctx, recipientID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.NotificationResponse, 0, len(list))
	for _, n := range list {
		items = append(items, ToResponse(n))
	}
	return &dto.NotificationListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

func (s *Service) fanOut(ctx context.Context, n *entity.Notification) {
	room := ports.RoomForUser(n.RecipientID)
	if err := s.publisher.Publish(ctx, room, ports.EventNotificationNew, ToResponse(n)); err != nil {
		s.metrics.DeliveryFailed(ports.ChannelRealtime)
		s.log.Warn().Err(err).
			Str("notification_id", n.ID).
			Str("room", room).
			Msg("fan-out en tiempo real falló")
	}
}

func (s *Service) sendEmail(ctx context.Context, n *entity.Notification, r *entity.Recipient) {
	templateID := s.templates[n.Type]
	if templateID == "" || strings.TrimSpace(r.Email) == "" {
		return
	}
	data := map[string]any{
		"recipient_name": r.Name,
		"title":          n.Title,
		"message":        n.Message,
		"priority":       n.Priority,
	}
	if cp, ok := n.Payload.(entity.ConvenioPayload); ok {
		data["convenio_id"] = cp.ConvenioID
		data["convenio_name"] = cp.ConvenioName
		data["company_name"] = cp.CompanyName
		data["end_date"] = cp.EndDate.Format("02/01/2006")
		data["days_remaining"] = cp.DaysRemaining
	}
	if err := s.email.SendTemplated(ctx, r.Email, templateID, data); err != nil {
		s.metrics.DeliveryFailed(ports.ChannelEmail)
		s.log.Warn().Err(err).
			Str("notification_id", n.ID).
			Str("template", templateID).
			Msg("envío de correo falló")
	}
}

func validate(in EmitInput) error {
	if in.RecipientID == "" || in.Type == "" || strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Message) == "" {
		return fmt.Errorf("%w: destinatario, tipo, título y mensaje son requeridos", domain.ErrInvalidInput)
	}
	if entity.PriorityRank(in.Priority) == 0 {
		return fmt.Errorf("%w: prioridad %q desconocida", domain.ErrInvalidInput, in.Priority)
	}
	if err := entity.ValidatePayload(in.Type, in.Payload); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// ToResponse convierte la entidad al DTO de salida.
func ToResponse(n *entity.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:            n.ID,
		Type:          n.Type,
		Title:         n.Title,
		Message:       n.Message,
		Priority:      n.Priority,
		RecipientID:   n.RecipientID,
		RecipientRole: n.RecipientRole,
		Read:          n.Read,
		Payload:       n.Payload,
		CreatedAt:     n.CreatedAt,
	}
}
