package users_test

import (
	"context"
	"testing"

	mem "vet-clinic/internal/adapters/storage/memory"
	"vet-clinic/internal/domain/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService() *users.Service {
	return users.NewService(mem.NewUserRepo(mem.NewDB()))
}

func TestCreate_HashesPasswordAndDefaults(t *testing.T) {
	svc := newService()

	u, err := svc.Create(context.Background(), users.Input{
		Nombre:   " Carla Ruiz ",
		Email:    "Carla@Example.com",
		Telefono: "5551234567",
		Password: "Secreta1!",
	})
	require.NoError(t, err)
	assert.Equal(t, "Carla Ruiz", u.Nombre)
	assert.Equal(t, "carla@example.com", u.Email)
	assert.Equal(t, users.RoleAssistant, u.Role)
	assert.Equal(t, users.StatusActive, u.Status)
	assert.NotEqual(t, "Secreta1!", u.PasswordHash)
	assert.True(t, users.CheckPassword(u, "Secreta1!"))
	assert.False(t, users.CheckPassword(u, "otra"))
}

func TestCreate_EmailTakenIgnoresCase(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, users.Input{Nombre: "Carla", Email: "carla@example.com", Telefono: "5551234567"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, users.Input{Nombre: "Otra", Email: "CARLA@example.com", Telefono: "5551234567"})
	assert.ErrorIs(t, err, users.ErrEmailTaken)
}

func TestUpdate_KeepsPasswordAndRoleWhenOmitted(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	u, err := svc.Create(ctx, users.Input{
		Nombre:   "Carla",
		Email:    "carla@example.com",
		Telefono: "5551234567",
		Password: "Secreta1!",
		Role:     users.RoleVeterinarian,
	})
	require.NoError(t, err)

	other, err := svc.Create(ctx, users.Input{Nombre: "Luis", Email: "luis@example.com", Telefono: "5551234567"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, u.ID, users.Input{Nombre: "Carla R", Email: "carla@example.com", Telefono: "5550000000"})
	require.NoError(t, err)
	assert.Equal(t, users.RoleVeterinarian, updated.Role)
	assert.True(t, users.CheckPassword(updated, "Secreta1!"))

	_, err = svc.Update(ctx, other.ID, users.Input{Nombre: "Luis", Email: "carla@example.com", Telefono: "5551234567"})
	assert.ErrorIs(t, err, users.ErrEmailTakenByOther)

	_, err = svc.Update(ctx, 999, users.Input{Nombre: "X", Email: "x@example.com"})
	assert.ErrorIs(t, err, users.ErrNotFound)
}

func TestStats_RoleNames(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	for i, r := range []users.Role{users.RoleAdmin, users.RoleVeterinarian, users.RoleVeterinarian} {
		_, err := svc.Create(ctx, users.Input{
			Nombre:   "Usuario",
			Email:    string(rune('a'+i)) + "@example.com",
			Telefono: "5551234567",
			Password: "Secreta1!",
			Role:     r,
		})
		require.NoError(t, err)
	}

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Total)
	require.Len(t, st.ByRole, 2)
	assert.Equal(t, "Veterinario", st.ByRole[0].Key)
	assert.Equal(t, 2, st.ByRole[0].Count)
	assert.Equal(t, "Administrador", st.ByRole[1].Key)
}

func TestParseRole(t *testing.T) {
	r, ok := users.ParseRole("Recepcionista")
	assert.True(t, ok)
	assert.Equal(t, users.RoleReception, r)

	_, ok = users.ParseRole("Gerente")
	assert.False(t, ok)
}
