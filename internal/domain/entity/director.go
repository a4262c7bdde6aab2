package entity

import "time"

// Director representa a un director de programa académico.
type Director struct {
	ID        string
	Name      string
	Email     string
	Program   string
	CreatedAt time.Time
}
