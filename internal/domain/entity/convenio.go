package entity

import "time"

// Estados del ciclo de vida de un convenio.
const (
	ConvenioStatusEnRevision = "EN_REVISION" // Creado por la empresa, pendiente del director
	ConvenioStatusAprobado   = "APROBADO"    // Vigente: habilita vacantes de la empresa
	ConvenioStatusVencido    = "VENCIDO"     // Terminal para el barrido de vencimientos
	ConvenioStatusRechazado  = "RECHAZADO"
)

// Convenio representa el acuerdo entre una empresa y la dirección de programa
// que autoriza a la empresa a publicar vacantes de pasantía.
type Convenio struct {
	ID         string
	CompanyID  string
	DirectorID *string // nil = convenio institucional sin director asignado
	Name       string
	Status     string     // ver constantes ConvenioStatus*
	EndDate    *time.Time // nil = sin fecha de terminación; el barrido lo ignora
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsApproved informa si el convenio está vigente.
func (c *Convenio) IsApproved() bool {
	return c.Status == ConvenioStatusAprobado
}
