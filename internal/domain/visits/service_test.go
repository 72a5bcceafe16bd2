package visits

import (
	"context"
	"errors"
	"testing"
	"time"

	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/ports/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	byID   map[int64]Visit
	nextID int64
	failOn string
}

func newFakeRepo() *fakeRepo { return &fakeRepo{byID: map[int64]Visit{}, nextID: 1} }

func (r *fakeRepo) Create(ctx context.Context, v Visit) (Visit, error) {
	if r.failOn == "create" {
		return Visit{}, errors.New("db down")
	}
	v.ID = r.nextID
	r.nextID++
	r.byID[v.ID] = v
	return v, nil
}

func (r *fakeRepo) Update(ctx context.Context, v Visit) error {
	if _, ok := r.byID[v.ID]; !ok {
		return storage.ErrNotFound
	}
	r.byID[v.ID] = v
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, id int64) (bool, error) {
	_, ok := r.byID[id]
	delete(r.byID, id)
	return ok, nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id int64) (Visit, error) {
	v, ok := r.byID[id]
	if !ok {
		return Visit{}, storage.ErrNotFound
	}
	return v, nil
}

func (r *fakeRepo) List(ctx context.Context) ([]Visit, error) { return nil, nil }
func (r *fakeRepo) ListByPatient(ctx context.Context, patientID int64) ([]Visit, error) {
	return nil, nil
}
func (r *fakeRepo) Search(ctx context.Context, term string) ([]Visit, error) { return nil, nil }
func (r *fakeRepo) Page(ctx context.Context, p pagination.Request) ([]Visit, int, error) {
	return nil, 0, nil
}
func (r *fakeRepo) Count(ctx context.Context) (int, error) { return len(r.byID), nil }

func (r *fakeRepo) StatsByType(ctx context.Context) ([]TypeStat, error) {
	m := map[Type]*TypeStat{}
	for _, v := range r.byID {
		st, ok := m[v.Type]
		if !ok {
			st = &TypeStat{Type: v.Type}
			m[v.Type] = st
		}
		st.Count++
		st.TotalRevenue += v.Cost
	}
	out := make([]TypeStat, 0, len(m))
	for _, st := range m {
		out = append(out, *st)
	}
	return out, nil
}

type fakePatients struct {
	existing  map[int64]bool
	lastVisit map[int64]time.Time
	fail      error
}

func (p *fakePatients) Exists(ctx context.Context, id int64) (bool, error) {
	return p.existing[id], nil
}

func (p *fakePatients) SetLastVisit(ctx context.Context, id int64, at time.Time) error {
	if !inTx(ctx) {
		return errors.New("SetLastVisit called outside transaction")
	}
	if p.fail != nil {
		return p.fail
	}
	p.lastVisit[id] = at
	return nil
}

type txKey struct{}

func inTx(ctx context.Context) bool { return ctx.Value(txKey{}) != nil }

// recordingTx marca el ctx y cuenta commits/rollbacks.
type recordingTx struct {
	commits, rollbacks int
}

func (t *recordingTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		t.rollbacks++
		return err
	}
	t.commits++
	return nil
}

func newTestService() (*Service, *fakeRepo, *fakePatients, *recordingTx) {
	repo := newFakeRepo()
	pats := &fakePatients{existing: map[int64]bool{7: true}, lastVisit: map[int64]time.Time{}}
	tx := &recordingTx{}
	svc := NewService(repo, pats, tx)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	return svc, repo, pats, tx
}

func visitInput(patientID int64, date time.Time) Input {
	return Input{
		PatientID:    patientID,
		Date:         date,
		Type:         TypeConsultation,
		Veterinarian: "Dra. Gómez",
		Diagnosis:    "Otitis externa",
		Treatment:    "Gotas óticas",
		Cost:         1500,
	}
}

func TestCreate_SetsLastVisitInsideTransaction(t *testing.T) {
	svc, _, pats, tx := newTestService()
	date := time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)

	v, err := svc.Create(context.Background(), visitInput(7, date))
	require.NoError(t, err)
	assert.NotZero(t, v.ID)
	assert.Equal(t, date, pats.lastVisit[7])
	assert.Equal(t, 1, tx.commits)
}

func TestCreate_UnknownPatient(t *testing.T) {
	svc, repo, _, tx := newTestService()

	_, err := svc.Create(context.Background(), visitInput(99, time.Now()))
	require.ErrorIs(t, err, ErrPatientNotFound)
	assert.Empty(t, repo.byID)
	assert.Zero(t, tx.commits+tx.rollbacks, "no transaction should be opened")
}

func TestCreate_SecondaryWriteFailureRollsBack(t *testing.T) {
	svc, _, pats, tx := newTestService()
	pats.fail = errors.New("patients unavailable")

	_, err := svc.Create(context.Background(), visitInput(7, time.Now()))
	require.Error(t, err)
	assert.Equal(t, 1, tx.rollbacks)
	assert.Equal(t, 0, tx.commits)
}

func TestUpdate_ResetsLastVisitToNewDate(t *testing.T) {
	svc, _, pats, _ := newTestService()
	ctx := context.Background()

	v, err := svc.Create(ctx, visitInput(7, time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	earlier := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	updated, err := svc.Update(ctx, v.ID, visitInput(7, earlier))
	require.NoError(t, err)
	assert.Equal(t, earlier, updated.Date)
	assert.Equal(t, earlier, pats.lastVisit[7])
	assert.Equal(t, v.CreatedAt, updated.CreatedAt)
}

func TestUpdateDelete_NotFound(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Update(ctx, 123, visitInput(7, time.Now()))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 123), ErrNotFound)
}

func TestStats_AverageCost(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	a := visitInput(7, time.Now())
	a.Cost = 100
	b := visitInput(7, time.Now())
	b.Cost = 250
	c := visitInput(7, time.Now())
	c.Type = TypeSurgery
	c.Cost = 9000
	for _, in := range []Input{a, b, c} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, st.ByType, 2)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, TypeStat{Type: TypeConsultation, Count: 2, TotalRevenue: 350, AvgCost: 175}, st.ByType[0])
	assert.Equal(t, TypeStat{Type: TypeSurgery, Count: 1, TotalRevenue: 9000, AvgCost: 9000}, st.ByType[1])
}
