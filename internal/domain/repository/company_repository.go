package repository

import (
	"context"

	"github.com/jhoicas/Convenios-api/internal/domain/entity"
)

// CompanyRepository define el puerto de persistencia para Company.
type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	SetEnabled(ctx context.Context, id string, enabled bool) error
}
