package repository

import (
	"context"

	"github.com/jhoicas/Convenios-api/internal/domain/entity"
)

// RecipientRepository resuelve un destinatario por ID sin importar su rol.
type RecipientRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Recipient, error)
}
