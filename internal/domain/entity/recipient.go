package entity

// Roles de destinatario de notificaciones (coinciden con el claim "role" del JWT).
const (
	RoleAdmin      = "admin"
	RoleDirector   = "director"
	RoleEmpresa    = "empresa"
	RoleEstudiante = "estudiante"
)

// Recipient vista de un usuario de cualquier rol, resuelta solo por ID.
type Recipient struct {
	ID    string
	Role  string
	Name  string
	Email string
}
