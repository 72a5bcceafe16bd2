package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vet-clinic/internal/domain/visits"
	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/dates"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/stats"
	"vet-clinic/internal/ports/storage"
)

const TotalKey = "totalAppointments"

var (
	ErrNotFound        = apperr.NotFound("Cita no encontrada")
	ErrPatientNotFound = apperr.Invalid("El paciente seleccionado no existe", "patientId")
	ErrInvalidStatus   = apperr.Invalid("El estado no es válido", "status")
	ErrInvalidDate     = apperr.Invalid("La fecha debe estar en formato válido (YYYY-MM-DD)", "date")
)

// PatientRecords es lo que citas necesita de pacientes.
type PatientRecords interface {
	Exists(ctx context.Context, id int64) (bool, error)
	SetLastVisit(ctx context.Context, id int64, at time.Time) error
}

type Service struct {
	repo     Repository
	patients PatientRecords
	tx       storage.Transactor
	now      func() time.Time
}

func NewService(repo Repository, patients PatientRecords, tx storage.Transactor) *Service {
	if tx == nil {
		tx = storage.NopTransactor{}
	}
	return &Service{
		repo:     repo,
		patients: patients,
		tx:       tx,
		now:      time.Now,
	}
}

type Input struct {
	PatientID    int64
	Date         time.Time
	Time         string
	Type         visits.Type
	Veterinarian string
	Status       Status
	Notes        string
}

// Create agenda la cita. Si ya viene Completada, lastVisit del paciente
// pasa a ser la fecha de la cita (misma transacción).
func (s *Service) Create(ctx context.Context, in Input) (Appointment, error) {
	if err := s.checkPatient(ctx, in.PatientID); err != nil {
		return Appointment{}, err
	}

	now := s.now().UTC()
	a := apply(Appointment{CreatedAt: now}, in)
	a.UpdatedAt = now

	var created Appointment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		out, err := s.repo.Create(ctx, a)
		if err != nil {
			return translate(err)
		}
		created = out
		if out.Status == StatusCompleted {
			return s.patients.SetLastVisit(ctx, out.PatientID, out.Date)
		}
		return nil
	})
	if err != nil {
		return Appointment{}, err
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (Appointment, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	if in.PatientID != current.PatientID {
		if err := s.checkPatient(ctx, in.PatientID); err != nil {
			return Appointment{}, err
		}
	}

	a := apply(current, in)
	a.UpdatedAt = s.now().UTC()

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, a); err != nil {
			return translate(err)
		}
		if a.Status == StatusCompleted {
			return s.patients.SetLastVisit(ctx, a.PatientID, a.Date)
		}
		return nil
	})
	if err != nil {
		return Appointment{}, err
	}
	// Releer para traer nombre de paciente/dueño si cambió el paciente.
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Appointment{}, translate(err)
	}
	return a, nil
}

func (s *Service) List(ctx context.Context) ([]Appointment, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListByPatient(ctx context.Context, patientID int64) ([]Appointment, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

// ListByDate recibe la fecha tal como llega en la URL.
func (s *Service) ListByDate(ctx context.Context, raw string) ([]Appointment, error) {
	day, err := dates.Parse(raw)
	if err != nil {
		return nil, ErrInvalidDate
	}
	return s.repo.ListByDate(ctx, dates.Day(day))
}

func (s *Service) ListByStatus(ctx context.Context, status Status) ([]Appointment, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.ListByStatus(ctx, status)
}

func (s *Service) Search(ctx context.Context, term string) ([]Appointment, error) {
	return s.repo.Search(ctx, strings.TrimSpace(term))
}

func (s *Service) Page(ctx context.Context, p pagination.Request) ([]Appointment, pagination.Meta, error) {
	items, total, err := s.repo.Page(ctx, p)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return items, pagination.NewMeta(p, total, TotalKey), nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	today, err := s.repo.CountOnDate(ctx, dates.Day(s.now()))
	if err != nil {
		return Stats{}, err
	}
	byType, err := s.repo.CountByType(ctx)
	if err != nil {
		return Stats{}, err
	}
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Total:     total,
		Today:     today,
		ByType:    stats.Sort(byType),
		ByStatus:  stats.Sort(byStatus),
		Timestamp: s.now().UTC(),
	}, nil
}

func (s *Service) checkPatient(ctx context.Context, patientID int64) error {
	if patientID < 1 {
		return ErrPatientNotFound
	}
	ok, err := s.patients.Exists(ctx, patientID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPatientNotFound
	}
	return nil
}

func apply(a Appointment, in Input) Appointment {
	a.PatientID = in.PatientID
	a.Date = dates.Day(in.Date)
	a.Time = NormalizeClock(in.Time)
	a.Type = in.Type
	a.Veterinarian = strings.TrimSpace(in.Veterinarian)
	a.Status = in.Status
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	a.Notes = strings.TrimSpace(in.Notes)
	return a
}

// NormalizeClock lleva "9:05" a "09:05" para que el orden por string
// coincida con el orden horario. Respeta los segundos si vienen.
func NormalizeClock(s string) string {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return s
	}
	var h int
	if _, err := fmt.Sscanf(parts[0], "%d", &h); err != nil {
		return s
	}
	parts[0] = fmt.Sprintf("%02d", h)
	return strings.Join(parts, ":")
}

func translate(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, storage.ErrReference):
		return ErrPatientNotFound
	}
	return err
}
