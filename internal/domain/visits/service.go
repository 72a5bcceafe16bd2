package visits

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/ports/storage"
)

const TotalKey = "totalVisits"

var (
	ErrNotFound        = apperr.NotFound("Visita no encontrada")
	ErrPatientNotFound = apperr.Invalid("El paciente seleccionado no existe", "patientId")
)

// PatientRecords es lo que visitas necesita de pacientes.
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
	Type         Type
	Veterinarian string
	Diagnosis    string
	Treatment    string
	Notes        string
	Cost         float64
}

// Create registra la visita y actualiza lastVisit del paciente en la misma
// transacción.
func (s *Service) Create(ctx context.Context, in Input) (Visit, error) {
	if err := s.checkPatient(ctx, in.PatientID); err != nil {
		return Visit{}, err
	}

	now := s.now().UTC()
	v := apply(Visit{CreatedAt: now}, in)
	v.UpdatedAt = now

	var created Visit
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		out, err := s.repo.Create(ctx, v)
		if err != nil {
			return translate(err)
		}
		created = out
		return s.patients.SetLastVisit(ctx, out.PatientID, out.Date)
	})
	if err != nil {
		return Visit{}, err
	}
	return created, nil
}

// Update reemplaza la visita y vuelve a fijar lastVisit con la nueva fecha.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Visit, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Visit{}, err
	}
	if in.PatientID != current.PatientID {
		if err := s.checkPatient(ctx, in.PatientID); err != nil {
			return Visit{}, err
		}
	}

	v := apply(current, in)
	v.UpdatedAt = s.now().UTC()

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, v); err != nil {
			return translate(err)
		}
		return s.patients.SetLastVisit(ctx, v.PatientID, v.Date)
	})
	if err != nil {
		return Visit{}, err
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

func (s *Service) Get(ctx context.Context, id int64) (Visit, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Visit{}, translate(err)
	}
	return v, nil
}

func (s *Service) List(ctx context.Context) ([]Visit, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListByPatient(ctx context.Context, patientID int64) ([]Visit, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) Search(ctx context.Context, term string) ([]Visit, error) {
	return s.repo.Search(ctx, strings.TrimSpace(term))
}

func (s *Service) Page(ctx context.Context, p pagination.Request) ([]Visit, pagination.Meta, error) {
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
	byType, err := s.repo.StatsByType(ctx)
	if err != nil {
		return Stats{}, err
	}
	for i := range byType {
		if byType[i].Count > 0 {
			byType[i].AvgCost = math.Round(byType[i].TotalRevenue/float64(byType[i].Count)*100) / 100
		}
	}
	sort.SliceStable(byType, func(i, j int) bool {
		if byType[i].Count != byType[j].Count {
			return byType[i].Count > byType[j].Count
		}
		return byType[i].Type < byType[j].Type
	})
	return Stats{Total: total, ByType: byType, Timestamp: s.now().UTC()}, nil
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

func apply(v Visit, in Input) Visit {
	v.PatientID = in.PatientID
	v.Date = in.Date.UTC()
	v.Type = in.Type
	v.Veterinarian = strings.TrimSpace(in.Veterinarian)
	v.Diagnosis = strings.TrimSpace(in.Diagnosis)
	v.Treatment = strings.TrimSpace(in.Treatment)
	v.Notes = strings.TrimSpace(in.Notes)
	v.Cost = in.Cost
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
