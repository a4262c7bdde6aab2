package repository

import (
	"context"

	"github.com/jhoicas/Convenios-api/internal/domain/entity"
)

// DirectorRepository define el puerto de persistencia para Director.
type DirectorRepository interface {
	List(ctx context.Context) ([]*entity.Director, error)
}
