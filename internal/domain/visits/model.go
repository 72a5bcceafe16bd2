package visits

import "time"

// Type es el tipo de atención. Lo comparten visitas y citas.
type Type string

const (
	TypeConsultation Type = "Consulta"
	TypeVaccination  Type = "Vacunación"
	TypeSurgery      Type = "Cirugía"
	TypeCheckup      Type = "Control"
	TypeEmergency    Type = "Emergencia"
)

func (t Type) Valid() bool {
	switch t {
	case TypeConsultation, TypeVaccination, TypeSurgery, TypeCheckup, TypeEmergency:
		return true
	}
	return false
}

type Visit struct {
	ID           int64
	PatientID    int64
	Date         time.Time
	Type         Type
	Veterinarian string
	Diagnosis    string
	Treatment    string
	Notes        string
	Cost         float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TypeStat agrega visitas por tipo. AvgCost lo calcula el service.
type TypeStat struct {
	Type         Type
	Count        int
	TotalRevenue float64
	AvgCost      float64
}

type Stats struct {
	Total     int
	ByType    []TypeStat
	Timestamp time.Time
}
