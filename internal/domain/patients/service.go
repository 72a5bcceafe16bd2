package patients

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/stats"
	"vet-clinic/internal/ports/storage"
)

const TotalKey = "totalPatients"

var (
	ErrNotFound              = apperr.NotFound("Paciente no encontrado")
	ErrOwnerNotFound         = apperr.Invalid("El propietario seleccionado no existe", "ownerId")
	ErrMicrochipTaken        = apperr.Conflict("El microchip ya está registrado")
	ErrMicrochipTakenByOther = apperr.Conflict("El microchip ya está registrado en otro paciente")
)

// OwnerDirectory resuelve si un cliente existe (lo implementa clients.Service).
type OwnerDirectory interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type Service struct {
	repo   Repository
	owners OwnerDirectory
	now    func() time.Time
}

func NewService(repo Repository, owners OwnerDirectory) *Service {
	return &Service{
		repo:   repo,
		owners: owners,
		now:    time.Now,
	}
}

type Input struct {
	Name      string
	Species   string
	Breed     string
	Age       float64
	Weight    float64
	Gender    Gender
	BirthDate *time.Time
	OwnerID   int64
	LastVisit *time.Time
	NextVisit *time.Time
	Microchip string
	Color     string
	Allergies string
	Status    Status
}

func (s *Service) Create(ctx context.Context, in Input) (Patient, error) {
	if err := s.checkOwner(ctx, in.OwnerID); err != nil {
		return Patient{}, err
	}

	chip := strings.TrimSpace(in.Microchip)
	if chip != "" {
		owner, err := s.microchipOwner(ctx, chip)
		if err != nil {
			return Patient{}, err
		}
		if owner != 0 {
			return Patient{}, ErrMicrochipTaken
		}
	}

	now := s.now().UTC()
	p := apply(Patient{CreatedAt: now}, in)
	p.UpdatedAt = now

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return Patient{}, translate(err, ErrMicrochipTaken)
	}
	return created, nil
}

// Update reemplaza la fila completa (lastVisit/nextVisit incluidos).
func (s *Service) Update(ctx context.Context, id int64, in Input) (Patient, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Patient{}, err
	}
	if in.OwnerID != current.OwnerID {
		if err := s.checkOwner(ctx, in.OwnerID); err != nil {
			return Patient{}, err
		}
	}

	chip := strings.TrimSpace(in.Microchip)
	if chip != "" && chip != current.Microchip {
		owner, err := s.microchipOwner(ctx, chip)
		if err != nil {
			return Patient{}, err
		}
		if owner != 0 && owner != id {
			return Patient{}, ErrMicrochipTakenByOther
		}
	}

	p := apply(current, in)
	p.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, p); err != nil {
		return Patient{}, translate(err, ErrMicrochipTakenByOther)
	}
	return p, nil
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

func (s *Service) Get(ctx context.Context, id int64) (Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Patient{}, translate(err, nil)
	}
	return p, nil
}

func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	_, err := s.repo.GetByID(ctx, id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (s *Service) List(ctx context.Context) ([]Patient, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListByOwner(ctx context.Context, ownerID int64) ([]Patient, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *Service) Search(ctx context.Context, term string) ([]Patient, error) {
	return s.repo.Search(ctx, strings.TrimSpace(term))
}

func (s *Service) Page(ctx context.Context, p pagination.Request) ([]Patient, pagination.Meta, error) {
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
	bySpecies, err := s.repo.CountBySpecies(ctx)
	if err != nil {
		return Stats{}, err
	}
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Total:     total,
		BySpecies: stats.Sort(bySpecies),
		ByStatus:  stats.Sort(byStatus),
		Timestamp: s.now().UTC(),
	}, nil
}

// SetLastVisit fija lastVisit del paciente. Se llama dentro de la
// transacción de la escritura principal (visita, cita completada).
func (s *Service) SetLastVisit(ctx context.Context, id int64, at time.Time) error {
	if err := s.repo.SetLastVisit(ctx, id, at.UTC()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("set last visit: %w", err)
	}
	return nil
}

// AdvanceLastVisit mueve lastVisit hacia adelante, nunca hacia atrás.
func (s *Service) AdvanceLastVisit(ctx context.Context, id int64, at time.Time) (bool, error) {
	changed, err := s.repo.AdvanceLastVisit(ctx, id, at.UTC())
	if err != nil {
		return false, fmt.Errorf("advance last visit: %w", err)
	}
	return changed, nil
}

func (s *Service) checkOwner(ctx context.Context, ownerID int64) error {
	if ownerID < 1 {
		return ErrOwnerNotFound
	}
	ok, err := s.owners.Exists(ctx, ownerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOwnerNotFound
	}
	return nil
}

func (s *Service) microchipOwner(ctx context.Context, chip string) (int64, error) {
	p, err := s.repo.GetByMicrochip(ctx, chip)
	if err == nil {
		return p.ID, nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	return 0, err
}

func apply(p Patient, in Input) Patient {
	p.Name = strings.TrimSpace(in.Name)
	p.Species = strings.TrimSpace(in.Species)
	p.Breed = strings.TrimSpace(in.Breed)
	p.Age = in.Age
	p.Weight = in.Weight
	p.Gender = in.Gender
	p.BirthDate = in.BirthDate
	p.OwnerID = in.OwnerID
	p.LastVisit = in.LastVisit
	p.NextVisit = in.NextVisit
	p.Microchip = strings.TrimSpace(in.Microchip)
	p.Color = strings.TrimSpace(in.Color)
	p.Allergies = strings.TrimSpace(in.Allergies)
	p.Status = in.Status
	if p.Status == "" {
		p.Status = StatusActive
	}
	return p
}

func translate(err error, chipErr error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, storage.ErrReference):
		return ErrOwnerNotFound
	case storage.DuplicateField(err) == "microchip" && chipErr != nil:
		return chipErr
	}
	return err
}
