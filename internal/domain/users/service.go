package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/stats"
	"vet-clinic/internal/ports/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const TotalKey = "totalUsers"

var (
	ErrNotFound          = apperr.NotFound("Usuario no encontrado")
	ErrEmailTaken        = apperr.Conflict("El email ya está registrado")
	ErrEmailTakenByOther = apperr.Conflict("El email ya está registrado en otro usuario")
)

type Service struct {
	repo Repository
	now  func() time.Time
	cost int
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
		cost: bcrypt.DefaultCost,
	}
}

type Input struct {
	Nombre   string
	Email    string
	Telefono string
	// Password vacío: en Create se genera un secreto aleatorio (cuenta sin
	// login hasta que se asigne uno); en Update se conserva el actual.
	Password string
	Role     Role
	Status   Status
}

func (s *Service) Create(ctx context.Context, in Input) (User, error) {
	email := normalizeEmail(in.Email)
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return User{}, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return User{}, err
	}

	secret := in.Password
	if secret == "" {
		secret = uuid.NewString()
	}
	hash, err := s.hash(secret)
	if err != nil {
		return User{}, err
	}

	now := s.now().UTC()
	u := apply(User{CreatedAt: now}, in)
	u.Email = email
	u.PasswordHash = hash
	u.UpdatedAt = now

	created, err := s.repo.Create(ctx, u)
	if err != nil {
		if storage.DuplicateField(err) == "email" {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (User, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return User{}, err
	}

	email := normalizeEmail(in.Email)
	if email != current.Email {
		other, err := s.repo.GetByEmail(ctx, email)
		switch {
		case err == nil && other.ID != id:
			return User{}, ErrEmailTakenByOther
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			return User{}, err
		}
	}

	u := apply(current, in)
	u.Email = email
	u.UpdatedAt = s.now().UTC()
	if in.Password != "" {
		if u.PasswordHash, err = s.hash(in.Password); err != nil {
			return User{}, err
		}
	}

	if err := s.repo.Update(ctx, u); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return User{}, ErrNotFound
		case storage.DuplicateField(err) == "email":
			return User{}, ErrEmailTakenByOther
		}
		return User{}, err
	}
	return u, nil
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

func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *Service) Search(ctx context.Context, term string) ([]User, error) {
	return s.repo.Search(ctx, strings.TrimSpace(term))
}

func (s *Service) Page(ctx context.Context, p pagination.Request) ([]User, pagination.Meta, error) {
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
	byRole, err := s.repo.CountByRole(ctx)
	if err != nil {
		return Stats{}, err
	}
	for i := range byRole {
		if id, err := strconv.Atoi(byRole[i].Key); err == nil {
			byRole[i].Key = Role(id).String()
		}
	}
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Total:     total,
		ByRole:    stats.Sort(byRole),
		ByStatus:  stats.Sort(byStatus),
		Timestamp: s.now().UTC(),
	}, nil
}

// CheckPassword compara pw contra el hash guardado.
func CheckPassword(u User, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pw)) == nil
}

func (s *Service) hash(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func apply(u User, in Input) User {
	u.Nombre = strings.TrimSpace(in.Nombre)
	u.Telefono = strings.TrimSpace(in.Telefono)
	// Sin rolName se conserva el rol actual (Asistente si es nuevo).
	if in.Role != 0 {
		u.Role = in.Role
	} else if u.Role == 0 {
		u.Role = RoleAssistant
	}
	u.Status = in.Status
	if u.Status == "" {
		u.Status = StatusActive
	}
	return u
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
