package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Convenios-api/internal/domain/entity"
	"github.com/jhoicas/Convenios-api/internal/domain/repository"
)

var _ repository.RecipientRepository = (*RecipientRepo)(nil)

// RecipientRepo resuelve destinatarios buscando en las tablas de cada rol.
type RecipientRepo struct {
	q Querier
}

// NewRecipientRepository construye el adaptador.
func NewRecipientRepository(q Querier) *RecipientRepo {
	return &RecipientRepo{q: q}
}

// FindByID busca el ID en directores, empresas, estudiantes y administradores.
// Devuelve (nil, nil) si no existe en ninguna.
func (r *RecipientRepo) FindByID(ctx context.Context, id string) (*entity.Recipient, error) {
	if !validUUID(id) {
		return nil, nil
	}
	query := `
		SELECT id, 'director', nombre, COALESCE(email, '') FROM directores WHERE id = $1
		UNION ALL
		SELECT id, 'empresa', nombre, COALESCE(email, '') FROM empresas WHERE id = $1
		UNION ALL
		SELECT id, 'estudiante', nombre, COALESCE(email, '') FROM estudiantes WHERE id = $1
		UNION ALL
		SELECT id, 'admin', nombre, COALESCE(email, '') FROM administradores WHERE id = $1
		LIMIT 1`
	var rec entity.Recipient
	err := r.q.QueryRow(ctx, query, id).Scan(&rec.ID, &rec.Role, &rec.Name, &rec.Email)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find recipient: %w", err)
	}
	return &rec, nil
}
