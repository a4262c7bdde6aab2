package dto

import "time"

// NotificationResponse notificación tal como se entrega al cliente (HTTP y tiempo real).
type NotificationResponse struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	Priority      string    `json:"priority"`
	RecipientID   string    `json:"recipient_id"`
	RecipientRole string    `json:"recipient_role"`
	Read          bool      `json:"read"`
	Payload       any       `json:"payload"`
	CreatedAt     time.Time `json:"created_at"`
}

// NotificationListResponse lista paginada de notificaciones.
type NotificationListResponse struct {
	Items []NotificationResponse `json:"items"`
	Page  PageResponse           `json:"page"`
}
