package patients_test

import (
	"context"
	"testing"
	"time"

	mem "vet-clinic/internal/adapters/storage/memory"
	"vet-clinic/internal/domain/clients"
	"vet-clinic/internal/domain/patients"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*patients.Service, int64) {
	t.Helper()
	db := mem.NewDB()
	owners := clients.NewService(mem.NewClientRepo(db))

	c, err := owners.Create(context.Background(), clients.Input{
		Name:    "Ana Perez",
		Email:   "ana@example.com",
		Phone:   "5551234567",
		Address: "Calle Falsa 123",
		City:    "Lima",
	})
	require.NoError(t, err)

	return patients.NewService(mem.NewPatientRepo(db), owners), c.ID
}

func input(ownerID int64, name, species, chip string) patients.Input {
	return patients.Input{
		Name:      name,
		Species:   species,
		Breed:     "Mestizo",
		Age:       3,
		Weight:    10,
		Gender:    patients.GenderFemale,
		OwnerID:   ownerID,
		Microchip: chip,
	}
}

func TestCreate_DefaultsAndOwnerCheck(t *testing.T) {
	svc, owner := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, input(owner+100, "Luna", "Gato", ""))
	require.ErrorIs(t, err, patients.ErrOwnerNotFound)

	p, err := svc.Create(ctx, input(owner, "  Luna ", "Gato", ""))
	require.NoError(t, err)
	assert.Equal(t, "Luna", p.Name)
	assert.Equal(t, patients.StatusActive, p.Status)
	assert.Nil(t, p.LastVisit)
}

func TestMicrochip_Uniqueness(t *testing.T) {
	svc, owner := setup(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, input(owner, "Luna", "Gato", "CHIP000001"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, input(owner, "Sol", "Gato", "CHIP000001"))
	require.ErrorIs(t, err, patients.ErrMicrochipTaken)

	second, err := svc.Create(ctx, input(owner, "Sol", "Gato", ""))
	require.NoError(t, err)
	_, err = svc.Create(ctx, input(owner, "Nube", "Gato", ""))
	require.NoError(t, err, "pacientes sin microchip no chocan entre sí")

	_, err = svc.Update(ctx, second.ID, input(owner, "Sol", "Gato", "CHIP000001"))
	require.ErrorIs(t, err, patients.ErrMicrochipTakenByOther)

	// re-guardar el propio microchip es válido
	_, err = svc.Update(ctx, first.ID, input(owner, "Luna II", "Gato", "CHIP000001"))
	require.NoError(t, err)
}

func TestAdvanceLastVisit_NeverMovesBack(t *testing.T) {
	svc, owner := setup(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, input(owner, "Luna", "Gato", ""))
	require.NoError(t, err)

	may := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	changed, err := svc.AdvanceLastVisit(ctx, p.ID, may)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = svc.AdvanceLastVisit(ctx, p.ID, may.AddDate(0, -2, 0))
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastVisit)
	assert.True(t, got.LastVisit.Equal(may))

	// SetLastVisit sí pisa
	require.NoError(t, svc.SetLastVisit(ctx, p.ID, may.AddDate(0, -2, 0)))
	got, err = svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.LastVisit.Equal(may.AddDate(0, -2, 0)))
}

func TestGetDelete_NotFound(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, 42)
	assert.ErrorIs(t, err, patients.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 42), patients.ErrNotFound)

	ok, err := svc.Exists(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStats_GroupsBySpecies(t *testing.T) {
	svc, owner := setup(t)
	ctx := context.Background()

	for _, in := range []patients.Input{
		input(owner, "Luna", "Gato", ""),
		input(owner, "Rex", "Perro", ""),
		input(owner, "Toby", "Perro", ""),
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Total)
	require.Len(t, st.BySpecies, 2)
	assert.Equal(t, "Perro", st.BySpecies[0].Key)
	assert.Equal(t, 2, st.BySpecies[0].Count)
	require.Len(t, st.ByStatus, 1)
	assert.Equal(t, "Activo", st.ByStatus[0].Key)
}
