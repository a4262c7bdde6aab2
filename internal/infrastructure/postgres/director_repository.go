package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Convenios-api/internal/domain/entity"
	"github.com/jhoicas/Convenios-api/internal/domain/repository"
)

var _ repository.DirectorRepository = (*DirectorRepo)(nil)

// DirectorRepo implementación del puerto DirectorRepository sobre PostgreSQL.
type DirectorRepo struct {
	q Querier
}

// NewDirectorRepository construye el adaptador.
func NewDirectorRepository(q Querier) *DirectorRepo {
	return &DirectorRepo{q: q}
}

// List devuelve todos los directores de programa.
func (r *DirectorRepo) List(ctx context.Context) ([]*entity.Director, error) {
	query := `
		SELECT id, nombre, COALESCE(email, ''), COALESCE(programa, ''), created_at
		FROM directores
		ORDER BY nombre, id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list directores: %w", err)
	}
	defer rows.Close()

	var list []*entity.Director
	for rows.Next() {
		var d entity.Director
		if err := rows.Scan(&d.ID, &d.Name, &d.Email, &d.Program, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan director: %w", err)
		}
		list = append(list, &d)
	}
	return list, rows.Err()
}
