package patients

import (
	"time"

	"vet-clinic/internal/platform/stats"
)

type Gender string

const (
	GenderMale    Gender = "Macho"
	GenderFemale  Gender = "Hembra"
	GenderUnknown Gender = "Desconocido"
)

type Status string

const (
	StatusActive   Status = "Activo"
	StatusInactive Status = "Inactivo"
)

// Patient es un animal atendido en la clínica. Pertenece a un cliente (OwnerID).
type Patient struct {
	ID        int64
	Name      string
	Species   string
	Breed     string
	Age       float64
	Weight    float64
	Gender    Gender
	BirthDate *time.Time
	OwnerID   int64

	// LastVisit lo mantienen también visitas, vacunas y citas completadas.
	LastVisit *time.Time
	NextVisit *time.Time

	// Microchip vacío = sin microchip (no participa de la unicidad).
	Microchip string
	Color     string
	Allergies string
	Status    Status

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Stats struct {
	Total     int
	BySpecies []stats.Group
	ByStatus  []stats.Group
	Timestamp time.Time
}
