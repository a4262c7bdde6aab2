package ports

import "context"

// EmailSender define el puerto de salida para correo transaccional con plantilla.
type EmailSender interface {
	SendTemplated(ctx context.Context, to, templateID string, data map[string]any) error
}

// NopEmailSender descarta los envíos (SES deshabilitado).
type NopEmailSender struct{}

// SendTemplated no hace nada.
func (NopEmailSender) SendTemplated(context.Context, string, string, map[string]any) error {
	return nil
}
