package vaccinations

import (
	"context"
	"errors"
	"strings"
	"time"

	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/dates"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/ports/storage"
)

const (
	TotalKey = "totalVaccinations"

	DefaultUpcomingDays = 30
	MaxUpcomingDays     = 365
)

var (
	ErrNotFound        = apperr.NotFound("Vacuna no encontrada")
	ErrPatientNotFound = apperr.Invalid("El paciente seleccionado no existe", "patientId")
)

// PatientRecords es lo que vacunas necesita de pacientes.
type PatientRecords interface {
	Exists(ctx context.Context, id int64) (bool, error)
	AdvanceLastVisit(ctx context.Context, id int64, at time.Time) (bool, error)
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
	Vaccine      string
	NextDue      time.Time
	Veterinarian string
	BatchNumber  string
	Notes        string
}

// Create registra la vacuna. lastVisit del paciente solo avanza si la
// fecha de aplicación es posterior (o no tenía).
func (s *Service) Create(ctx context.Context, in Input) (Vaccination, error) {
	if err := s.checkPatient(ctx, in.PatientID); err != nil {
		return Vaccination{}, err
	}

	now := s.now().UTC()
	v := apply(Vaccination{CreatedAt: now}, in)
	v.UpdatedAt = now

	var created Vaccination
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		out, err := s.repo.Create(ctx, v)
		if err != nil {
			return translate(err)
		}
		created = out
		_, err = s.patients.AdvanceLastVisit(ctx, out.PatientID, out.Date)
		return err
	})
	if err != nil {
		return Vaccination{}, err
	}
	return created, nil
}

// Update no toca lastVisit del paciente.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Vaccination, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Vaccination{}, err
	}
	if in.PatientID != current.PatientID {
		if err := s.checkPatient(ctx, in.PatientID); err != nil {
			return Vaccination{}, err
		}
	}

	v := apply(current, in)
	v.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, v); err != nil {
		return Vaccination{}, translate(err)
	}
	return v, nil
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

func (s *Service) Get(ctx context.Context, id int64) (Vaccination, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Vaccination{}, translate(err)
	}
	return v, nil
}

func (s *Service) List(ctx context.Context) ([]Vaccination, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListByPatient(ctx context.Context, patientID int64) ([]Vaccination, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) Search(ctx context.Context, term string) ([]Vaccination, error) {
	return s.repo.Search(ctx, strings.TrimSpace(term))
}

func (s *Service) Page(ctx context.Context, p pagination.Request) ([]Vaccination, pagination.Meta, error) {
	items, total, err := s.repo.Page(ctx, p)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return items, pagination.NewMeta(p, total, TotalKey), nil
}

// Upcoming devuelve las vacunas que vencen entre hoy y hoy+days (inclusive).
func (s *Service) Upcoming(ctx context.Context, days int) ([]Reminder, error) {
	days = clampDays(days)
	today := dates.Day(s.now())
	return s.repo.DueBetween(ctx, today, today.AddDate(0, 0, days+1))
}

// Overdue devuelve las vacunas vencidas antes de hoy con sus días de atraso.
func (s *Service) Overdue(ctx context.Context) ([]Reminder, error) {
	today := dates.Day(s.now())
	items, err := s.repo.DueBefore(ctx, today)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].DaysOverdue = dates.DaysBetween(items[i].NextDue, today)
	}
	return items, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	upcoming, err := s.Upcoming(ctx, DefaultUpcomingDays)
	if err != nil {
		return Stats{}, err
	}
	overdue, err := s.Overdue(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Total:     total,
		Upcoming:  len(upcoming),
		Overdue:   len(overdue),
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

func clampDays(days int) int {
	if days < 1 {
		return DefaultUpcomingDays
	}
	if days > MaxUpcomingDays {
		return MaxUpcomingDays
	}
	return days
}

func apply(v Vaccination, in Input) Vaccination {
	v.PatientID = in.PatientID
	v.Date = in.Date.UTC()
	v.Vaccine = strings.TrimSpace(in.Vaccine)
	v.NextDue = in.NextDue.UTC()
	v.Veterinarian = strings.TrimSpace(in.Veterinarian)
	v.BatchNumber = strings.TrimSpace(in.BatchNumber)
	v.Notes = strings.TrimSpace(in.Notes)
	return v
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
