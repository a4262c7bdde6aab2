package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Convenios-api/internal/domain"
	"github.com/jhoicas/Convenios-api/internal/domain/entity"
	"github.com/jhoicas/Convenios-api/internal/domain/repository"
)

// Asegura que CompanyRepo implementa repository.CompanyRepository.
var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo implementación del puerto CompanyRepository sobre PostgreSQL (tabla empresas).
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador de persistencia para empresas.
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

// GetByID obtiene una empresa por ID.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	if !validUUID(id) {
		return nil, nil
	}
	query := `
		SELECT id, COALESCE(director_id::text, ''), nombre, COALESCE(nit, ''), COALESCE(email, ''),
		       habilitada, created_at, updated_at
		FROM empresas WHERE id = $1`
	var c entity.Company
	err := r.q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.DirectorID, &c.Name, &c.NIT, &c.Email,
		&c.Enabled, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get empresa: %w", err)
	}
	return &c, nil
}

// SetEnabled cambia el indicador de habilitación de la empresa.
func (r *CompanyRepo) SetEnabled(ctx context.Context, id string, enabled bool) error {
	query := `UPDATE empresas SET habilitada = $2, updated_at = $3 WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, id, enabled, time.Now())
	if err != nil {
		return fmt.Errorf("update empresa habilitada: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
