package entity

import "time"

// Company representa una empresa receptora de pasantes.
// Enabled=false impide publicar vacantes; lo desactiva el barrido cuando la empresa
// se queda sin convenios aprobados.
type Company struct {
	ID         string
	DirectorID string // dirección de programa a la que pertenece
	Name       string
	NIT        string
	Email      string
	Enabled    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
