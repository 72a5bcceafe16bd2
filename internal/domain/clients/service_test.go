package clients

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/stats"
	"vet-clinic/internal/ports/storage"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID   map[int64]Client
	nextID int64
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[int64]Client{}, nextID: 1}
}

func (r *testRepo) Create(ctx context.Context, c Client) (Client, error) {
	for _, other := range r.byID {
		if other.Email == c.Email {
			return Client{}, &storage.DuplicateError{Field: "email"}
		}
	}
	if c.ID == 0 {
		c.ID = r.nextID
	}
	if _, ok := r.byID[c.ID]; ok {
		return Client{}, &storage.DuplicateError{Field: "id"}
	}
	if c.ID >= r.nextID {
		r.nextID = c.ID + 1
	}
	r.byID[c.ID] = c
	return c, nil
}

func (r *testRepo) Update(ctx context.Context, c Client) error {
	if _, ok := r.byID[c.ID]; !ok {
		return storage.ErrNotFound
	}
	r.byID[c.ID] = c
	return nil
}

func (r *testRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := r.byID[id]; !ok {
		return false, nil
	}
	delete(r.byID, id)
	return true, nil
}

func (r *testRepo) GetByID(ctx context.Context, id int64) (Client, error) {
	c, ok := r.byID[id]
	if !ok {
		return Client{}, storage.ErrNotFound
	}
	return c, nil
}

func (r *testRepo) GetByEmail(ctx context.Context, email string) (Client, error) {
	for _, c := range r.byID {
		if c.Email == email {
			return c, nil
		}
	}
	return Client{}, storage.ErrNotFound
}

func (r *testRepo) List(ctx context.Context) ([]Client, error) {
	out := make([]Client, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *testRepo) Search(ctx context.Context, term string) ([]Client, error) {
	out := make([]Client, 0)
	for _, c := range r.byID {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(term)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *testRepo) Page(ctx context.Context, p pagination.Request) ([]Client, int, error) {
	all, _ := r.List(ctx)
	start := p.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + p.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (r *testRepo) Count(ctx context.Context) (int, error) { return len(r.byID), nil }

func (r *testRepo) CountByStatus(ctx context.Context) ([]stats.Group, error) {
	m := map[string]int{}
	for _, c := range r.byID {
		m[string(c.Status)]++
	}
	return stats.FromMap(m), nil
}

func newTestService() (*Service, *testRepo) {
	repo := newTestRepo()
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return svc, repo
}

func sampleInput(email string) Input {
	return Input{
		Name:    "Ana Pérez",
		Email:   email,
		Phone:   "555-1234",
		Address: "Calle Falsa 123",
		City:    "Rosario",
	}
}

// -------------------------
// Tests
// -------------------------

func TestCreate_DefaultsAndNormalizesEmail(t *testing.T) {
	svc, _ := newTestService()

	c, err := svc.Create(context.Background(), sampleInput("  Ana@Mail.COM "))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if c.Email != "ana@mail.com" {
		t.Fatalf("expected normalized email, got %q", c.Email)
	}
	if c.Status != StatusActive {
		t.Fatalf("expected default status Activo, got %q", c.Status)
	}
	if !c.RegistrationDate.Equal(svc.now()) {
		t.Fatalf("expected registration date from clock, got %v", c.RegistrationDate)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, sampleInput("ana@mail.com")); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.Create(ctx, sampleInput("ANA@mail.com"))
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestCreate_CallerSuppliedID(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	in := sampleInput("uno@mail.com")
	in.ID = 42
	c, err := svc.Create(ctx, in)
	if err != nil || c.ID != 42 {
		t.Fatalf("expected id 42, got %d err=%v", c.ID, err)
	}

	in = sampleInput("dos@mail.com")
	in.ID = 42
	if _, err := svc.Create(ctx, in); !errors.Is(err, ErrIDTaken) {
		t.Fatalf("expected ErrIDTaken, got %v", err)
	}
}

func TestUpdate_EmailOwnedByOtherClient(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a, _ := svc.Create(ctx, sampleInput("a@mail.com"))
	b, _ := svc.Create(ctx, sampleInput("b@mail.com"))

	_, err := svc.Update(ctx, b.ID, sampleInput("a@mail.com"))
	if !errors.Is(err, ErrEmailTakenByOther) {
		t.Fatalf("expected ErrEmailTakenByOther, got %v", err)
	}

	// Mismo email propio: OK
	in := sampleInput("a@mail.com")
	in.City = "Córdoba"
	in.Status = StatusInactive
	got, err := svc.Update(ctx, a.ID, in)
	if err != nil {
		t.Fatalf("update own email: %v", err)
	}
	if got.City != "Córdoba" || got.Status != StatusInactive || !got.RegistrationDate.Equal(a.RegistrationDate) {
		t.Fatalf("unexpected updated client: %+v", got)
	}
}

func TestUpdateAndDelete_NotFound(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Update(ctx, 99, sampleInput("x@mail.com")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
	if err := svc.Delete(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}
	if ok, err := svc.Exists(ctx, 99); ok || err != nil {
		t.Fatalf("expected Exists=false, got %v err=%v", ok, err)
	}
}

func TestStats(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, _ = svc.Create(ctx, sampleInput("a@mail.com"))
	in := sampleInput("b@mail.com")
	in.Status = StatusInactive
	_, _ = svc.Create(ctx, in)
	_, _ = svc.Create(ctx, sampleInput("c@mail.com"))

	st, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Total != 3 || len(st.ByStatus) != 2 || st.ByStatus[0] != (stats.Group{Key: "Activo", Count: 2}) {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestPage_Meta(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	for _, e := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		_, _ = svc.Create(ctx, sampleInput(e))
	}

	items, meta, err := svc.Page(ctx, pagination.New(2, 2))
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(items) != 1 || meta.Total != 3 || meta.TotalPages != 2 || meta.HasNextPage || !meta.HasPrevPage {
		t.Fatalf("unexpected page: items=%d meta=%+v", len(items), meta)
	}
	if meta.TotalKey != TotalKey {
		t.Fatalf("unexpected total key %q", meta.TotalKey)
	}
}
