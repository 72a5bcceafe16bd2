package vaccinations

import "time"

type Vaccination struct {
	ID           int64
	PatientID    int64
	Date         time.Time
	Vaccine      string
	NextDue      time.Time
	Veterinarian string
	BatchNumber  string
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Reminder es una vacuna con los datos de contacto para avisar al dueño.
type Reminder struct {
	Vaccination
	PatientName string
	Species     string
	OwnerName   string
	OwnerPhone  string
	// DaysOverdue solo aplica a vencidas.
	DaysOverdue int
}

type Stats struct {
	Total     int
	Upcoming  int
	Overdue   int
	Timestamp time.Time
}
