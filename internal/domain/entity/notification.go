package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Tipos de notificación. Solo los de convenio los produce el barrido.
const (
	NotificationConvenioPorVencer = "CONVENIO_POR_VENCER"
	NotificationConvenioVencido   = "CONVENIO_VENCIDO"
	NotificationVacanteAprobada   = "VACANTE_APROBADA"
	NotificationVacanteRechazada  = "VACANTE_RECHAZADA"
	NotificationNuevaPostulacion  = "NUEVA_POSTULACION"
	NotificationMensaje           = "MENSAJE"
)

// Prioridades de notificación, de menor a mayor.
const (
	PriorityBaja    = "BAJA"
	PriorityMedia   = "MEDIA"
	PriorityAlta    = "ALTA"
	PriorityUrgente = "URGENTE"
)

// PriorityRank devuelve el orden de una prioridad (BAJA=1 … URGENTE=4, desconocida=0).
func PriorityRank(p string) int {
	switch p {
	case PriorityBaja:
		return 1
	case PriorityMedia:
		return 2
	case PriorityAlta:
		return 3
	case PriorityUrgente:
		return 4
	default:
		return 0
	}
}

// Notification representa un aviso de un solo uso para un destinatario.
type Notification struct {
	ID            string
	Type          string // ver constantes Notification*
	Title         string
	Message       string
	Priority      string // ver constantes Priority*
	RecipientID   string
	RecipientRole string
	Read          bool
	Payload       Payload
	CreatedAt     time.Time
}

// Payload es la unión etiquetada por Type que viaja en la columna JSONB "payload".
type Payload interface {
	payloadKind() string
}

// ConvenioPayload datos de CONVENIO_POR_VENCER y CONVENIO_VENCIDO.
// ConvenioID es la clave de deduplicación diaria.
type ConvenioPayload struct {
	ConvenioID    string    `json:"convenio_id"`
	ConvenioName  string    `json:"convenio_name"`
	CompanyName   string    `json:"company_name"`
	CompanyID     string    `json:"company_id"`
	EndDate       time.Time `json:"end_date"`
	DaysRemaining int       `json:"days_remaining"`
}

func (ConvenioPayload) payloadKind() string { return "convenio" }

// GenericPayload para tipos que no pertenecen a este servicio; se conserva tal cual.
type GenericPayload struct {
	Raw json.RawMessage
}

func (GenericPayload) payloadKind() string { return "generic" }

// MarshalJSON serializa el contenido crudo.
func (g GenericPayload) MarshalJSON() ([]byte, error) {
	if len(g.Raw) == 0 {
		return []byte("{}"), nil
	}
	return g.Raw, nil
}

// ErrInvalidPayload indica que el payload no corresponde al tipo de notificación.
var ErrInvalidPayload = errors.New("payload de notificación inválido")

// IsConvenioType informa si el tipo transporta un ConvenioPayload.
func IsConvenioType(notificationType string) bool {
	return notificationType == NotificationConvenioPorVencer || notificationType == NotificationConvenioVencido
}

// ValidatePayload verifica que el payload sea la variante correcta para el tipo.
func ValidatePayload(notificationType string, p Payload) error {
	if p == nil {
		return fmt.Errorf("%w: payload requerido", ErrInvalidPayload)
	}
	if !IsConvenioType(notificationType) {
		return nil
	}
	cp, ok := p.(ConvenioPayload)
	if !ok {
		return fmt.Errorf("%w: %s requiere ConvenioPayload", ErrInvalidPayload, notificationType)
	}
	if cp.ConvenioID == "" {
		return fmt.Errorf("%w: convenio_id vacío", ErrInvalidPayload)
	}
	return nil
}

// DecodePayload reconstruye la variante de Payload a partir del JSON almacenado.
func DecodePayload(notificationType string, raw []byte) (Payload, error) {
	if !IsConvenioType(notificationType) {
		return GenericPayload{Raw: append(json.RawMessage(nil), raw...)}, nil
	}
	var cp ConvenioPayload
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if cp.ConvenioID == "" {
		return nil, fmt.Errorf("%w: convenio_id vacío", ErrInvalidPayload)
	}
	return cp, nil
}
