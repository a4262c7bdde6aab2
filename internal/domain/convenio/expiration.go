// Package convenio contiene la política de vencimiento de convenios: conteo de días,
// prioridad, días de disparo y textos de los avisos. No tiene dependencias externas.
package convenio

import (
	"fmt"
	"math"
	"time"

	"github.com/jhoicas/Convenios-api/internal/domain/entity"
)

// Días de disparo fijos, además de los tres umbrales configurables.
const (
	FixedTriggerThreeDays = 3
	FixedTriggerOneDay    = 1
)

// Thresholds umbrales de días para la prioridad de los avisos.
type Thresholds struct {
	Urgent int
	High   int
	Medium int
}

// DefaultThresholds 7/15/30 días.
func DefaultThresholds() Thresholds {
	return Thresholds{Urgent: 7, High: 15, Medium: 30}
}

// Validate exige 0 < Urgent <= High <= Medium.
func (t Thresholds) Validate() error {
	if t.Urgent <= 0 || t.High < t.Urgent || t.Medium < t.High {
		return fmt.Errorf("umbrales inválidos: urgente=%d alto=%d medio=%d (se requiere 0 < urgente <= alto <= medio)",
			t.Urgent, t.High, t.Medium)
	}
	return nil
}

// IsDefault informa si los umbrales son 7/15/30.
func (t Thresholds) IsDefault() bool {
	return t == DefaultThresholds()
}

// DaysRemaining devuelve ceil((endDate - now) / 24h).
// Un convenio que termina en 12 horas tiene 1 día; uno que terminó hace 10 horas tiene 0.
func DaysRemaining(endDate, now time.Time) int {
	days := math.Ceil(endDate.Sub(now).Hours() / 24)
	if days == 0 {
		return 0 // normaliza -0
	}
	return int(days)
}

// IsExpired cualquier valor negativo está vencido; 0 sigue en la ruta de avisos.
func IsExpired(daysRemaining int) bool {
	return daysRemaining < 0
}

// PriorityFor asigna la prioridad del aviso; gana el umbral más pequeño que cubra los días.
func PriorityFor(daysRemaining int, t Thresholds) string {
	switch {
	case daysRemaining <= t.Urgent:
		return entity.PriorityUrgente
	case daysRemaining <= t.High:
		return entity.PriorityAlta
	case daysRemaining <= t.Medium:
		return entity.PriorityMedia
	default:
		return entity.PriorityBaja
	}
}

// TriggerDays devuelve el conjunto de días exactos en los que corresponde avisar.
func TriggerDays(t Thresholds) map[int]struct{} {
	return map[int]struct{}{
		t.Medium:              {},
		t.High:                {},
		t.Urgent:              {},
		FixedTriggerThreeDays: {},
		FixedTriggerOneDay:    {},
	}
}

// IsTriggerDay coincidencia exacta con TriggerDays, nunca "menor o igual".
func IsTriggerDay(daysRemaining int, t Thresholds) bool {
	_, ok := TriggerDays(t)[daysRemaining]
	return ok
}

// DayWindow devuelve [medianoche, medianoche siguiente) del día de now en loc.
func DayWindow(now time.Time, loc *time.Location) (start, end time.Time) {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	start = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// UpcomingTitle título del aviso de próximo vencimiento.
func UpcomingTitle(daysRemaining int) string {
	if daysRemaining == 1 {
		return "Convenio vence mañana"
	}
	return "Convenio próximo a vencer"
}

// UpcomingMessage cuerpo del aviso: singular para 1 día, plural en otro caso.
func UpcomingMessage(convenioName, companyName string, daysRemaining int) string {
	if daysRemaining == 1 {
		return fmt.Sprintf("El convenio %q con %s vence mañana. Gestione su renovación.", convenioName, companyName)
	}
	return fmt.Sprintf("El convenio %q con %s vence en %d días. Gestione su renovación.", convenioName, companyName, daysRemaining)
}

// ExpiredTitle título del aviso de convenio vencido.
func ExpiredTitle() string {
	return "Convenio vencido"
}

// ExpiredMessage cuerpo del aviso de convenio vencido.
func ExpiredMessage(convenioName, companyName string) string {
	return fmt.Sprintf("El convenio %q con %s ha vencido y fue marcado como VENCIDO.", convenioName, companyName)
}
