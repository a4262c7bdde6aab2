package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Convenios-api/internal/domain/entity"
)

// ConvenioRepository define el puerto de persistencia para Convenio (DIP).
// La implementación vive en infrastructure.
type ConvenioRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Convenio, error)
	// FindByStatusWithEndDate devuelve los convenios en el estado dado con fecha de fin definida.
	FindByStatusWithEndDate(ctx context.Context, status string) ([]*entity.Convenio, error)
	// UpdateStatus cambia el estado solo si el convenio sigue en fromStatus.
	// Devuelve domain.ErrConflict si otro proceso ya lo cambió.
	UpdateStatus(ctx context.Context, id, fromStatus, toStatus string) error
	CountByCompanyAndStatus(ctx context.Context, companyID, status string) (int, error)
	// ListEndingBetween convenios en el estado dado cuya fecha de fin cae en [from, to).
	ListEndingBetween(ctx context.Context, status string, from, to time.Time) ([]*entity.Convenio, error)
}
