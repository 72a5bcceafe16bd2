package clients

import (
	"context"
	"errors"
	"strings"
	"time"

	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/stats"
	"vet-clinic/internal/ports/storage"
)

const TotalKey = "totalClients"

var (
	ErrNotFound          = apperr.NotFound("Cliente no encontrado")
	ErrEmailTaken        = apperr.Conflict("El email ya está registrado")
	ErrEmailTakenByOther = apperr.Conflict("El email ya está registrado en otro cliente")
	ErrIDTaken           = apperr.Conflict("El ID de cliente ya está registrado")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type Input struct {
	// ID opcional, solo en Create.
	ID      int64
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
	Status  Status
}

func (s *Service) Create(ctx context.Context, in Input) (Client, error) {
	email := normalizeEmail(in.Email)

	taken, err := s.emailOwner(ctx, email)
	if err != nil {
		return Client{}, err
	}
	if taken != 0 {
		return Client{}, ErrEmailTaken
	}

	if in.ID > 0 {
		if _, err := s.repo.GetByID(ctx, in.ID); err == nil {
			return Client{}, ErrIDTaken
		} else if !errors.Is(err, storage.ErrNotFound) {
			return Client{}, err
		}
	}

	c := Client{
		ID:               in.ID,
		Name:             strings.TrimSpace(in.Name),
		Email:            email,
		Phone:            strings.TrimSpace(in.Phone),
		Address:          strings.TrimSpace(in.Address),
		City:             strings.TrimSpace(in.City),
		Status:           statusOrDefault(in.Status),
		RegistrationDate: s.now().UTC(),
	}

	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return Client{}, translate(err, ErrEmailTaken)
	}
	return created, nil
}

// Update reemplaza todos los campos editables del cliente id.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Client, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Client{}, err
	}

	email := normalizeEmail(in.Email)
	if email != current.Email {
		owner, err := s.emailOwner(ctx, email)
		if err != nil {
			return Client{}, err
		}
		if owner != 0 && owner != id {
			return Client{}, ErrEmailTakenByOther
		}
	}

	current.Name = strings.TrimSpace(in.Name)
	current.Email = email
	current.Phone = strings.TrimSpace(in.Phone)
	current.Address = strings.TrimSpace(in.Address)
	current.City = strings.TrimSpace(in.City)
	current.Status = statusOrDefault(in.Status)

	if err := s.repo.Update(ctx, current); err != nil {
		return Client{}, translate(err, ErrEmailTakenByOther)
	}
	return current, nil
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

func (s *Service) Get(ctx context.Context, id int64) (Client, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Client{}, translate(err, nil)
	}
	return c, nil
}

// Exists lo usan otros módulos para validar ownerId.
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

func (s *Service) List(ctx context.Context) ([]Client, error) {
	return s.repo.List(ctx)
}

func (s *Service) Search(ctx context.Context, term string) ([]Client, error) {
	return s.repo.Search(ctx, strings.TrimSpace(term))
}

func (s *Service) Page(ctx context.Context, p pagination.Request) ([]Client, pagination.Meta, error) {
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
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Total: total, ByStatus: stats.Sort(byStatus), Timestamp: s.now().UTC()}, nil
}

// emailOwner devuelve el id del cliente con ese email, o 0.
func (s *Service) emailOwner(ctx context.Context, email string) (int64, error) {
	c, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return c.ID, nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	return 0, err
}

func translate(err error, emailErr error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case storage.DuplicateField(err) == "email" && emailErr != nil:
		return emailErr
	case storage.DuplicateField(err) == "id":
		return ErrIDTaken
	}
	return err
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func statusOrDefault(s Status) Status {
	if s == "" {
		return StatusActive
	}
	return s
}
