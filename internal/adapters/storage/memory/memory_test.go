package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"vet-clinic/internal/domain/appointments"
	"vet-clinic/internal/domain/clients"
	"vet-clinic/internal/domain/patients"
	"vet-clinic/internal/domain/vaccinations"
	"vet-clinic/internal/domain/visits"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/ports/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func seed(t *testing.T, db *DB) (clients.Client, patients.Patient) {
	t.Helper()
	ctx := context.Background()

	c, err := NewClientRepo(db).Create(ctx, clients.Client{Name: "Ana", Email: "ana@x.com", Phone: "5551234", Status: clients.StatusActive})
	require.NoError(t, err)
	p, err := NewPatientRepo(db).Create(ctx, patients.Patient{Name: "Firulais", Species: "Perro", OwnerID: c.ID, Microchip: "123456789012345"})
	require.NoError(t, err)
	return c, p
}

func TestClientRepo_UniqueEmailAndExplicitID(t *testing.T) {
	db := NewDB()
	repo := NewClientRepo(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, clients.Client{Name: "Ana", Email: "ana@x.com"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, clients.Client{Name: "Otra", Email: "ANA@x.com"})
	assert.ErrorIs(t, err, storage.ErrDuplicate)
	assert.Equal(t, "email", storage.DuplicateField(err))

	c, err := repo.Create(ctx, clients.Client{ID: 10, Name: "Beto", Email: "beto@x.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(10), c.ID)

	_, err = repo.Create(ctx, clients.Client{ID: 10, Name: "Carla", Email: "carla@x.com"})
	assert.Equal(t, "id", storage.DuplicateField(err))

	next, err := repo.Create(ctx, clients.Client{Name: "Dani", Email: "dani@x.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(11), next.ID)
}

func TestPatientRepo_ReferenceAndMicrochip(t *testing.T) {
	db := NewDB()
	c, p := seed(t, db)
	repo := NewPatientRepo(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, patients.Patient{Name: "X", OwnerID: 999})
	assert.ErrorIs(t, err, storage.ErrReference)

	_, err = repo.Create(ctx, patients.Patient{Name: "Y", OwnerID: c.ID, Microchip: p.Microchip})
	assert.Equal(t, "microchip", storage.DuplicateField(err))

	// sin microchip no choca
	_, err = repo.Create(ctx, patients.Patient{Name: "Z1", OwnerID: c.ID})
	require.NoError(t, err)
	_, err = repo.Create(ctx, patients.Patient{Name: "Z2", OwnerID: c.ID})
	require.NoError(t, err)
}

func TestPatientRepo_AdvanceLastVisit(t *testing.T) {
	db := NewDB()
	_, p := seed(t, db)
	repo := NewPatientRepo(db)
	ctx := context.Background()

	changed, err := repo.AdvanceLastVisit(ctx, p.ID, day("2024-05-10"))
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.AdvanceLastVisit(ctx, p.ID, day("2024-01-01"))
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.LastVisit.Equal(day("2024-05-10")))

	require.NoError(t, repo.SetLastVisit(ctx, p.ID, day("2024-01-01")))
	got, _ = repo.GetByID(ctx, p.ID)
	assert.True(t, got.LastVisit.Equal(day("2024-01-01")))
}

func TestDeleteClient_Cascades(t *testing.T) {
	db := NewDB()
	c, p := seed(t, db)
	ctx := context.Background()

	_, err := NewVisitRepo(db).Create(ctx, visits.Visit{PatientID: p.ID, Date: day("2024-01-01"), Type: visits.TypeCheckup})
	require.NoError(t, err)
	_, err = NewVaccinationRepo(db).Create(ctx, vaccinations.Vaccination{PatientID: p.ID, Date: day("2024-01-01"), NextDue: day("2025-01-01")})
	require.NoError(t, err)
	_, err = NewAppointmentRepo(db).Create(ctx, appointments.Appointment{PatientID: p.ID, Date: day("2024-02-01"), Time: "10:00"})
	require.NoError(t, err)

	ok, err := NewClientRepo(db).Delete(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	n, _ := NewPatientRepo(db).Count(ctx)
	assert.Zero(t, n)
	n, _ = NewVisitRepo(db).Count(ctx)
	assert.Zero(t, n)
	n, _ = NewVaccinationRepo(db).Count(ctx)
	assert.Zero(t, n)
	n, _ = NewAppointmentRepo(db).Count(ctx)
	assert.Zero(t, n)

	ok, err = NewClientRepo(db).Delete(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	db := NewDB()
	_, p := seed(t, db)
	ctx := context.Background()
	visitsRepo := NewVisitRepo(db)
	patientsRepo := NewPatientRepo(db)

	boom := errors.New("boom")
	err := db.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := visitsRepo.Create(ctx, visits.Visit{PatientID: p.ID, Date: day("2024-03-03"), Type: visits.TypeConsultation}); err != nil {
			return err
		}
		if err := patientsRepo.SetLastVisit(ctx, p.ID, day("2024-03-03")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, _ := visitsRepo.Count(ctx)
	assert.Zero(t, n)
	got, _ := patientsRepo.GetByID(ctx, p.ID)
	assert.Nil(t, got.LastVisit)

	// la secuencia también vuelve atrás
	v, err := visitsRepo.Create(ctx, visits.Visit{PatientID: p.ID, Date: day("2024-03-03")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.ID)
}

func TestVaccinationRepo_RemindersJoinOwner(t *testing.T) {
	db := NewDB()
	c, p := seed(t, db)
	repo := NewVaccinationRepo(db)
	ctx := context.Background()

	for _, due := range []string{"2024-06-20", "2024-06-10", "2024-07-30"} {
		_, err := repo.Create(ctx, vaccinations.Vaccination{PatientID: p.ID, Vaccine: "Rabia", Date: day("2024-01-01"), NextDue: day(due)})
		require.NoError(t, err)
	}

	got, err := repo.DueBetween(ctx, day("2024-06-10"), day("2024-07-01"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].NextDue.Equal(day("2024-06-10")))
	assert.Equal(t, p.Name, got[0].PatientName)
	assert.Equal(t, c.Name, got[0].OwnerName)
	assert.Equal(t, c.Phone, got[0].OwnerPhone)

	over, err := repo.DueBefore(ctx, day("2024-06-10"))
	require.NoError(t, err)
	assert.Empty(t, over)
}

func TestAppointmentRepo_OrderAndByDate(t *testing.T) {
	db := NewDB()
	_, p := seed(t, db)
	repo := NewAppointmentRepo(db)
	ctx := context.Background()

	mk := func(d, hour string) {
		_, err := repo.Create(ctx, appointments.Appointment{PatientID: p.ID, Date: day(d), Time: hour, Type: visits.TypeCheckup, Status: appointments.StatusScheduled})
		require.NoError(t, err)
	}
	mk("2024-05-01", "09:00")
	mk("2024-05-01", "15:30")
	mk("2024-05-02", "08:00")

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "08:00", all[0].Time)
	assert.Equal(t, "15:30", all[1].Time)
	assert.Equal(t, "Firulais", all[0].PatientName)

	onDay, err := repo.ListByDate(ctx, day("2024-05-01"))
	require.NoError(t, err)
	assert.Len(t, onDay, 2)

	n, err := repo.CountOnDate(ctx, day("2024-05-02"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	page, total, err := repo.Page(ctx, pagination.New(2, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, page, 1)
}

func TestSearch_NameOrderIgnoresCase(t *testing.T) {
	db := NewDB()
	ctx := context.Background()
	c, _ := seed(t, db)

	pats := NewPatientRepo(db)
	for _, name := range []string{"bobby", "Zeus", "alma"} {
		_, err := pats.Create(ctx, patients.Patient{Name: name, Species: "Perro", OwnerID: c.ID})
		require.NoError(t, err)
	}

	got, err := pats.ListByOwner(ctx, c.ID)
	require.NoError(t, err)
	names := make([]string, 0, len(got))
	for _, p := range got {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"alma", "bobby", "Firulais", "Zeus"}, names)

	cls := NewClientRepo(db)
	_, err = cls.Create(ctx, clients.Client{Name: "beatriz", Email: "b@x.com", Status: clients.StatusActive})
	require.NoError(t, err)
	_, err = cls.Create(ctx, clients.Client{Name: "Andres", Email: "andres@x.com", Status: clients.StatusActive})
	require.NoError(t, err)

	found, err := cls.Search(ctx, "x.com")
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, "Ana", found[0].Name)
	assert.Equal(t, "Andres", found[1].Name)
	assert.Equal(t, "beatriz", found[2].Name)
}

func TestPageOf_OffsetPastEnd(t *testing.T) {
	items := []int{1, 2, 3}

	assert.Empty(t, pageOf(items, pagination.New(pagination.MaxPage, 10)))
	assert.Empty(t, pageOf(items, pagination.Request{Page: 1 << 62, Limit: 100}), "offset desbordado")
	assert.Equal(t, []int{3}, pageOf(items, pagination.New(2, 2)))
}
