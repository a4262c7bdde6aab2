package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Convenios-api/internal/domain"
	"github.com/jhoicas/Convenios-api/internal/domain/entity"
	"github.com/jhoicas/Convenios-api/internal/domain/repository"
)

// Asegura que ConvenioRepo implementa repository.ConvenioRepository.
var _ repository.ConvenioRepository = (*ConvenioRepo)(nil)

const convenioColumns = `id, empresa_id, director_id, nombre, estado, fecha_fin, created_at, updated_at`

// ConvenioRepo implementación del puerto ConvenioRepository sobre PostgreSQL.
type ConvenioRepo struct {
	q Querier
}

// NewConvenioRepository construye el adaptador. Pasar pool o tx (Querier).
func NewConvenioRepository(q Querier) *ConvenioRepo {
	return &ConvenioRepo{q: q}
}

// GetByID obtiene un convenio por ID.
func (r *ConvenioRepo) GetByID(ctx context.Context, id string) (*entity.Convenio, error) {
	if !validUUID(id) {
		return nil, nil
	}
	query := `SELECT ` + convenioColumns + ` FROM convenios WHERE id = $1`
	c, err := scanConvenio(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get convenio: %w", err)
	}
	return c, nil
}

// FindByStatusWithEndDate convenios en el estado dado con fecha_fin no nula.
func (r *ConvenioRepo) FindByStatusWithEndDate(ctx context.Context, status string) ([]*entity.Convenio, error) {
	query := `
		SELECT ` + convenioColumns + `
		FROM convenios
		WHERE estado = $1 AND fecha_fin IS NOT NULL
		ORDER BY fecha_fin, id`
	rows, err := r.q.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("find convenios by status: %w", err)
	}
	return collectConvenios(rows)
}

// UpdateStatus cambia el estado solo si el convenio sigue en fromStatus.
func (r *ConvenioRepo) UpdateStatus(ctx context.Context, id, fromStatus, toStatus string) error {
	query := `
		UPDATE convenios SET estado = $3, updated_at = $4
		WHERE id = $1 AND estado = $2`
	cmd, err := r.q.Exec(ctx, query, id, fromStatus, toStatus, time.Now())
	if err != nil {
		return fmt.Errorf("update convenio status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM convenios WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("check convenio: %w", err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}
	return nil
}

// CountByCompanyAndStatus cuenta los convenios de la empresa en el estado dado.
func (r *ConvenioRepo) CountByCompanyAndStatus(ctx context.Context, companyID, status string) (int, error) {
	query := `SELECT COUNT(*) FROM convenios WHERE empresa_id = $1 AND estado = $2`
	var n int
	if err := r.q.QueryRow(ctx, query, companyID, status).Scan(&n); err != nil {
		return 0, fmt.Errorf("count convenios: %w", err)
	}
	return n, nil
}

// ListEndingBetween convenios en el estado dado cuya fecha_fin cae en [from, to).
func (r *ConvenioRepo) ListEndingBetween(ctx context.Context, status string, from, to time.Time) ([]*entity.Convenio, error) {
	query := `
		SELECT ` + convenioColumns + `
		FROM convenios
		WHERE estado = $1 AND fecha_fin >= $2 AND fecha_fin < $3
		ORDER BY fecha_fin, id`
	rows, err := r.q.Query(ctx, query, status, from, to)
	if err != nil {
		return nil, fmt.Errorf("list convenios ending between: %w", err)
	}
	return collectConvenios(rows)
}

func scanConvenio(row pgx.Row) (*entity.Convenio, error) {
	var c entity.Convenio
	err := row.Scan(
		&c.ID, &c.CompanyID, &c.DirectorID, &c.Name, &c.Status, &c.EndDate,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectConvenios(rows pgx.Rows) ([]*entity.Convenio, error) {
	defer rows.Close()
	var list []*entity.Convenio
	for rows.Next() {
		c, err := scanConvenio(rows)
		if err != nil {
			return nil, fmt.Errorf("scan convenio: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows convenios: %w", err)
	}
	return list, nil
}
