package ports

import "time"

// Canales de entrega secundarios, usados como etiqueta de métricas.
const (
	ChannelRealtime = "realtime"
	ChannelEmail    = "email"
)

// SweepMetrics registra la actividad del barrido de vencimientos y de la emisión de notificaciones.
type SweepMetrics interface {
	SweepFinished(result string, duration time.Duration)
	ConvenioExpired()
	CompanyDisabled()
	ConvenioFailed()
	NotificationEmitted(notificationType, priority string)
	DeliveryFailed(channel string)
}

// NopMetrics implementación vacía para tests y herramientas.
type NopMetrics struct{}

func (NopMetrics) SweepFinished(string, time.Duration) {}

func (NopMetrics) ConvenioExpired() {}

func (NopMetrics) CompanyDisabled() {}

func (NopMetrics) ConvenioFailed() {}

func (NopMetrics) NotificationEmitted(string, string) {}

func (NopMetrics) DeliveryFailed(string) {}
