package users

import (
	"strconv"
	"time"

	"vet-clinic/internal/platform/stats"
)

type Role int

const (
	RoleAdmin        Role = 1
	RoleVeterinarian Role = 2
	RoleReception    Role = 3
	RoleAssistant    Role = 4
)

var roleNames = map[Role]string{
	RoleAdmin:        "Administrador",
	RoleVeterinarian: "Veterinario",
	RoleReception:    "Recepcionista",
	RoleAssistant:    "Asistente",
}

func (r Role) String() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return strconv.Itoa(int(r))
}

// ParseRole traduce el nombre de rol (rolName) a su id.
func ParseRole(name string) (Role, bool) {
	for r, n := range roleNames {
		if n == name {
			return r, true
		}
	}
	return 0, false
}

type Status string

const (
	StatusActive   Status = "Activo"
	StatusInactive Status = "Inactivo"
)

// User es un usuario del staff. PasswordHash nunca sale por la API.
type User struct {
	ID           int64
	Nombre       string
	Email        string
	Telefono     string
	PasswordHash string
	Role         Role
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Stats struct {
	Total     int
	ByRole    []stats.Group
	ByStatus  []stats.Group
	Timestamp time.Time
}
