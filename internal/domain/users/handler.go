package users

import (
	"net/http"
	"strings"
	"time"

	"vet-clinic/internal/platform/httpx"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/stats"
	"vet-clinic/internal/platform/validation"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, v *validation.Validator) {
	r.Route("/users", func(ur chi.Router) {
		ur.Get("/", listUsersHandler(svc))
		ur.Get("/search", searchUsersHandler(svc))
		ur.Get("/stats", userStatsHandler(svc))
		ur.Get("/{id}", getUserHandler(svc))
		ur.Post("/", createUserHandler(svc, v))
		ur.Put("/{id}", updateUserHandler(svc, v))
		ur.Delete("/{id}", deleteUserHandler(svc))
	})
}

type userRequest struct {
	Nombre   string `json:"nombre" validate:"required,min=2,max=100,letters"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Telefono string `json:"telefono" validate:"required,min=7,max=20,phone"`
	Password string `json:"password,omitempty" validate:"omitempty,min=8,max=128,password"`
	RolName  string `json:"rolName,omitempty" validate:"omitempty,oneof=Administrador Veterinario Recepcionista Asistente"`
	Status   string `json:"status,omitempty" validate:"omitempty,oneof=Activo Inactivo"`
}

var userMessages = validation.Messages{
	"nombre.required":   "El nombre es requerido",
	"nombre.letters":    "El nombre solo puede contener letras y espacios",
	"nombre":            "El nombre debe tener entre 2 y 100 caracteres",
	"email.required":    "El email es requerido",
	"email.max":         "El email no puede exceder 255 caracteres",
	"email":             "Debe ser un email válido",
	"telefono.required": "El teléfono es requerido",
	"telefono.phone":    "Formato de teléfono inválido",
	"telefono":          "El teléfono debe tener entre 7 y 20 caracteres",
	"password.password": "La contraseña debe contener al menos una minúscula, una mayúscula, un número y un carácter especial",
	"password":          "La contraseña debe tener entre 8 y 128 caracteres",
	"rolName":           "El rol debe ser 'Administrador', 'Veterinario', 'Recepcionista' o 'Asistente'",
	"status":            "El estado debe ser 'Activo' o 'Inactivo'",
}

func (req userRequest) input() Input {
	role, _ := ParseRole(req.RolName)
	return Input{
		Nombre:   req.Nombre,
		Email:    req.Email,
		Telefono: req.Telefono,
		Password: req.Password,
		Role:     role,
		Status:   Status(req.Status),
	}
}

type userResponse struct {
	ID        int64     `json:"id"`
	Nombre    string    `json:"nombre"`
	Email     string    `json:"email"`
	Telefono  string    `json:"telefono"`
	RolID     int       `json:"rolId"`
	RolName   string    `json:"rolName"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type userStatsResponse struct {
	TotalUsers int           `json:"totalUsers"`
	ByRole     stats.Labeled `json:"byRole"`
	ByStatus   stats.Labeled `json:"byStatus"`
	Timestamp  time.Time     `json:"timestamp"`
}

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:        u.ID,
		Nombre:    u.Nombre,
		Email:     u.Email,
		Telefono:  u.Telefono,
		RolID:     int(u.Role),
		RolName:   u.Role.String(),
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toUserResponses(items []User) []userResponse {
	out := make([]userResponse, 0, len(items))
	for _, u := range items {
		out = append(out, toUserResponse(u))
	}
	return out
}

func listUsersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if term := strings.TrimSpace(r.URL.Query().Get("search")); term != "" {
			items, err := svc.Search(r.Context(), term)
			if err != nil {
				httpx.WriteError(w, r, err)
				return
			}
			httpx.Page(w, "Búsqueda de usuarios completada", toUserResponses(items), pagination.Single(len(items), TotalKey))
			return
		}

		p, _ := pagination.FromQuery(r.URL.Query())
		items, meta, err := svc.Page(r.Context(), p)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.Page(w, "Usuarios obtenidos exitosamente", toUserResponses(items), meta)
	}
}

func searchUsersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		term, err := httpx.SearchTerm(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		items, err := svc.Search(r.Context(), term)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.List(w, "Búsqueda de usuarios completada", toUserResponses(items), len(items))
	}
}

func userStatsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Stats(r.Context())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.OK(w, "Estadísticas de usuarios obtenidas exitosamente", userStatsResponse{
			TotalUsers: st.Total,
			ByRole:     stats.Labeled{Label: "rolName", Groups: st.ByRole},
			ByStatus:   stats.Labeled{Label: "status", Groups: st.ByStatus},
			Timestamp:  st.Timestamp,
		})
	}
}

func getUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.ParseID(r, "id")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		u, err := svc.Get(r.Context(), id)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.OK(w, "Usuario obtenido exitosamente", toUserResponse(u))
	}
}

// @Summary Crear usuario
// @Description La contraseña se guarda hasheada con bcrypt y nunca se devuelve.
// @Tags users
// @Accept json
// @Produce json
// @Param payload body userRequest true "Datos del usuario"
// @Success 201 {object} httpx.Envelope
// @Failure 400 {object} httpx.Envelope
// @Failure 409 {object} httpx.Envelope "El email ya está registrado"
// @Router /users [post]
func createUserHandler(svc *Service, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req userRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := v.Struct(req, userMessages); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		u, err := svc.Create(r.Context(), req.input())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.Created(w, "Usuario creado exitosamente", toUserResponse(u))
	}
}

func updateUserHandler(svc *Service, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.ParseID(r, "id")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		var req userRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := v.Struct(req, userMessages); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		u, err := svc.Update(r.Context(), id, req.input())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.OK(w, "Usuario actualizado exitosamente", toUserResponse(u))
	}
}

func deleteUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.ParseID(r, "id")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.OK(w, "Usuario eliminado exitosamente", nil)
	}
}
