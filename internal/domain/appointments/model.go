package appointments

import (
	"time"

	"vet-clinic/internal/domain/visits"
	"vet-clinic/internal/platform/stats"
)

type Status string

const (
	StatusScheduled Status = "Programada"
	StatusCompleted Status = "Completada"
	StatusCancelled Status = "Cancelada"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Appointment struct {
	ID        int64
	PatientID int64
	Date      time.Time
	// Time es la hora local de la cita, HH:MM o HH:MM:SS.
	Time         string
	Type         visits.Type
	Veterinarian string
	Status       Status
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Solo lectura, resueltos por join con paciente y dueño.
	PatientName string
	Species     string
	OwnerName   string
}

type Stats struct {
	Total     int
	Today     int
	ByType    []stats.Group
	ByStatus  []stats.Group
	Timestamp time.Time
}
