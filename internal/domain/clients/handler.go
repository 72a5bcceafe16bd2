package clients

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
	r.Route("/clients", func(cr chi.Router) {
		cr.Get("/", listClientsHandler(svc))
		cr.Get("/search", searchClientsHandler(svc))
		cr.Get("/stats", clientStatsHandler(svc))
		cr.Get("/{id}", getClientHandler(svc))
		cr.Post("/", createClientHandler(svc, v))
		cr.Put("/{id}", updateClientHandler(svc, v))
		cr.Delete("/{id}", deleteClientHandler(svc))
	})
}

type clientRequest struct {
	ID      int64  `json:"id,omitempty" validate:"omitempty,gte=1"`
	Name    string `json:"name" validate:"required,min=2,max=150,letters"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Phone   string `json:"phone" validate:"required,min=7,max=20,phone"`
	Address string `json:"address" validate:"required,min=5,max=255"`
	City    string `json:"city" validate:"required,min=2,max=100,letters"`
	Status  string `json:"status,omitempty" validate:"omitempty,oneof=Activo Inactivo"`
}

var clientMessages = validation.Messages{
	"id":               "El ID debe ser un número entero positivo",
	"name.required":    "El nombre es requerido",
	"name.letters":     "El nombre solo puede contener letras y espacios",
	"name":             "El nombre debe tener entre 2 y 150 caracteres",
	"email.required":   "El email es requerido",
	"email.max":        "El email no puede exceder 255 caracteres",
	"email":            "Debe ser un email válido",
	"phone.required":   "El teléfono es requerido",
	"phone.phone":      "Formato de teléfono inválido",
	"phone":            "El teléfono debe tener entre 7 y 20 caracteres",
	"address.required": "La dirección es requerida",
	"address":          "La dirección debe tener entre 5 y 255 caracteres",
	"city.required":    "La ciudad es requerida",
	"city.letters":     "La ciudad solo puede contener letras y espacios",
	"city":             "La ciudad debe tener entre 2 y 100 caracteres",
	"status":           "El estado debe ser 'Activo' o 'Inactivo'",
}

func (req clientRequest) input() Input {
	return Input{
		ID:      req.ID,
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		City:    req.City,
		Status:  Status(req.Status),
	}
}

type clientResponse struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	Address          string    `json:"address"`
	City             string    `json:"city"`
	Status           Status    `json:"status"`
	RegistrationDate time.Time `json:"registrationDate"`
}

type clientStatsResponse struct {
	TotalClients int           `json:"totalClients"`
	ByStatus     stats.Labeled `json:"byStatus"`
	Timestamp    time.Time     `json:"timestamp"`
}

func toClientResponse(c Client) clientResponse {
	return clientResponse{
		ID:               c.ID,
		Name:             c.Name,
		Email:            c.Email,
		Phone:            c.Phone,
		Address:          c.Address,
		City:             c.City,
		Status:           c.Status,
		RegistrationDate: c.RegistrationDate,
	}
}

func toClientResponses(items []Client) []clientResponse {
	out := make([]clientResponse, 0, len(items))
	for _, c := range items {
		out = append(out, toClientResponse(c))
	}
	return out
}

// listClientsHandler lista clientes paginados.
// @Summary Listar clientes
// @Description Devuelve clientes ordenados por fecha de registro (más recientes primero). Con `search` hace una búsqueda por nombre, email o teléfono en una sola página.
// @Tags clients
// @Produce json
// @Param page query int false "Página (default 1)"
// @Param limit query int false "Tamaño de página, 1-100 (default 10)"
// @Param search query string false "Texto a buscar"
// @Success 200 {object} httpx.Envelope
// @Failure 500 {object} httpx.Envelope
// @Router /clients [get]
func listClientsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if term := strings.TrimSpace(r.URL.Query().Get("search")); term != "" {
			items, err := svc.Search(r.Context(), term)
			if err != nil {
				httpx.WriteError(w, r, err)
				return
			}
			httpx.Page(w, "Búsqueda de clientes completada", toClientResponses(items), pagination.Single(len(items), TotalKey))
			return
		}

		p, _ := pagination.FromQuery(r.URL.Query())
		items, meta, err := svc.Page(r.Context(), p)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.Page(w, "Clientes obtenidos exitosamente", toClientResponses(items), meta)
	}
}

// @Summary Buscar clientes
// @Tags clients
// @Produce json
// @Param q query string true "Texto a buscar en nombre, email o teléfono"
// @Success 200 {object} httpx.Envelope
// @Failure 400 {object} httpx.Envelope
// @Router /clients/search [get]
func searchClientsHandler(svc *Service) http.HandlerFunc {
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
		httpx.List(w, "Búsqueda de clientes completada", toClientResponses(items), len(items))
	}
}

// @Summary Estadísticas de clientes
// @Tags clients
// @Produce json
// @Success 200 {object} httpx.Envelope
// @Router /clients/stats [get]
func clientStatsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Stats(r.Context())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.OK(w, "Estadísticas de clientes obtenidas exitosamente", clientStatsResponse{
			TotalClients: st.Total,
			ByStatus:     stats.Labeled{Label: "status", Groups: st.ByStatus},
			Timestamp:    st.Timestamp,
		})
	}
}

// @Summary Obtener cliente
// @Tags clients
// @Produce json
// @Param id path int true "ID del cliente"
// @Success 200 {object} httpx.Envelope
// @Failure 400 {object} httpx.Envelope "ID inválido"
// @Failure 404 {object} httpx.Envelope "Cliente no encontrado"
// @Router /clients/{id} [get]
func getClientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.ParseID(r, "id")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		c, err := svc.Get(r.Context(), id)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.OK(w, "Cliente obtenido exitosamente", toClientResponse(c))
	}
}

// createClientHandler crea un cliente. El id es opcional.
// @Summary Crear cliente
// @Tags clients
// @Accept json
// @Produce json
// @Param payload body clientRequest true "Datos del cliente"
// @Success 201 {object} httpx.Envelope
// @Failure 400 {object} httpx.Envelope "Errores de validación"
// @Failure 409 {object} httpx.Envelope "El email ya está registrado"
// @Router /clients [post]
func createClientHandler(svc *Service, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req clientRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := v.Struct(req, clientMessages); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		c, err := svc.Create(r.Context(), req.input())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.Created(w, "Cliente creado exitosamente", toClientResponse(c))
	}
}

// @Summary Actualizar cliente
// @Tags clients
// @Accept json
// @Produce json
// @Param id path int true "ID del cliente"
// @Param payload body clientRequest true "Datos completos del cliente"
// @Success 200 {object} httpx.Envelope
// @Failure 400 {object} httpx.Envelope
// @Failure 404 {object} httpx.Envelope
// @Failure 409 {object} httpx.Envelope "El email ya está registrado en otro cliente"
// @Router /clients/{id} [put]
func updateClientHandler(svc *Service, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.ParseID(r, "id")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		var req clientRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := v.Struct(req, clientMessages); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		c, err := svc.Update(r.Context(), id, req.input())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.OK(w, "Cliente actualizado exitosamente", toClientResponse(c))
	}
}

// @Summary Eliminar cliente
// @Description Elimina el cliente junto con sus pacientes y el historial de estos.
// @Tags clients
// @Produce json
// @Param id path int true "ID del cliente"
// @Success 200 {object} httpx.Envelope
// @Failure 404 {object} httpx.Envelope
// @Router /clients/{id} [delete]
func deleteClientHandler(svc *Service) http.HandlerFunc {
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
		httpx.OK(w, "Cliente eliminado exitosamente", nil)
	}
}
