package clients

import (
	"time"

	"vet-clinic/internal/platform/stats"
)

type Status string

const (
	StatusActive   Status = "Activo"
	StatusInactive Status = "Inactivo"
)

// Client es el dueño de uno o más pacientes.
type Client struct {
	ID               int64
	Name             string
	Email            string
	Phone            string
	Address          string
	City             string
	Status           Status
	RegistrationDate time.Time
}

type Stats struct {
	Total     int
	ByStatus  []stats.Group
	Timestamp time.Time
}
