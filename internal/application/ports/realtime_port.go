package ports

import (
	"context"
	"fmt"
)

// Eventos publicados en las salas de usuario.
const (
	EventNotificationNew = "notification:new"
)

// RoomForUser devuelve la sala de tiempo real de un usuario ("user:<id>").
func RoomForUser(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}

// RealtimePublisher define el puerto de salida para el fan-out en tiempo real.
// Es fire-and-forget: no se espera confirmación de los suscriptores.
type RealtimePublisher interface {
	Publish(ctx context.Context, room, event string, payload any) error
}

// NopPublisher se usa cuando el fan-out no está disponible; las notificaciones
// se siguen persistiendo.
type NopPublisher struct{}

// Publish no hace nada.
func (NopPublisher) Publish(context.Context, string, string, any) error { return nil }
