package patients

import (
	"net/http"
	"strings"
	"time"

	"vet-clinic/internal/platform/dates"
	"vet-clinic/internal/platform/httpx"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/stats"
	"vet-clinic/internal/platform/validation"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, v *validation.Validator) {
	r.Route("/patients", func(pr chi.Router) {
		pr.Get("/", listPatientsHandler(svc))
		pr.Get("/search", searchPatientsHandler(svc))
		pr.Get("/stats", patientStatsHandler(svc))
		pr.Get("/owner/{ownerId}", listByOwnerHandler(svc))
		pr.Get("/{id}", getPatientHandler(svc))
		pr.Post("/", createPatientHandler(svc, v))
		pr.Put("/{id}", updatePatientHandler(svc, v))
		pr.Delete("/{id}", deletePatientHandler(svc))
	})
}

type patientRequest struct {
	Name      string   `json:"name" validate:"required,min=2,max=100"`
	Species   string   `json:"species" validate:"required,min=2,max=50,letters"`
	Breed     string   `json:"breed" validate:"required,min=2,max=100"`
	Age       *float64 `json:"age" validate:"required,gte=0,lte=50"`
	Weight    *float64 `json:"weight" validate:"required,gte=0,lte=1000"`
	Gender    string   `json:"gender" validate:"required,oneof=Macho Hembra Desconocido"`
	BirthDate string   `json:"birthDate,omitempty" validate:"omitempty,isodate,notfuture"`
	OwnerID   *int64   `json:"ownerId" validate:"required,gte=1"`
	LastVisit string   `json:"lastVisit,omitempty" validate:"omitempty,isodate"`
	NextVisit string   `json:"nextVisit,omitempty" validate:"omitempty,isodate,dategte=LastVisit"`
	Microchip string   `json:"microchip,omitempty" validate:"omitempty,min=10,max=20,microchip"`
	Color     string   `json:"color,omitempty" validate:"omitempty,min=2,max=50"`
	Allergies string   `json:"allergies,omitempty" validate:"omitempty,max=500"`
	Status    string   `json:"status,omitempty" validate:"omitempty,oneof=Activo Inactivo"`
}

var patientMessages = validation.Messages{
	"name.required":       "El nombre es requerido",
	"name":                "El nombre debe tener entre 2 y 100 caracteres",
	"species.required":    "La especie es requerida",
	"species.letters":     "La especie solo puede contener letras y espacios",
	"species":             "La especie debe tener entre 2 y 50 caracteres",
	"breed.required":      "La raza es requerida",
	"breed":               "La raza debe tener entre 2 y 100 caracteres",
	"age.required":        "La edad es requerida",
	"age":                 "La edad debe ser un número entre 0 y 50",
	"weight.required":     "El peso es requerido",
	"weight":              "El peso debe ser un número entre 0 y 1000",
	"gender.required":     "El género es requerido",
	"gender":              "El género debe ser 'Macho', 'Hembra' o 'Desconocido'",
	"birthDate.notfuture": "La fecha de nacimiento no puede ser futura",
	"birthDate":           "La fecha de nacimiento debe ser una fecha válida",
	"ownerId.required":    "El ID del dueño es requerido",
	"ownerId":             "El ID del dueño debe ser un número entero positivo",
	"lastVisit":           "La última visita debe ser una fecha válida",
	"nextVisit.dategte":   "La próxima visita no puede ser anterior a la última visita",
	"nextVisit":           "La próxima visita debe ser una fecha válida",
	"microchip.microchip": "El microchip solo puede contener letras mayúsculas y números",
	"microchip":           "El microchip debe tener entre 10 y 20 caracteres",
	"color":               "El color debe tener entre 2 y 50 caracteres",
	"allergies":           "Las alergias no pueden exceder 500 caracteres",
	"status":              "El estado debe ser 'Activo' o 'Inactivo'",
}

// input asume un request ya validado (fechas parseables).
func (req patientRequest) input() Input {
	in := Input{
		Name:      req.Name,
		Species:   req.Species,
		Breed:     req.Breed,
		Gender:    Gender(req.Gender),
		Microchip: req.Microchip,
		Color:     req.Color,
		Allergies: req.Allergies,
		Status:    Status(req.Status),
	}
	if req.Age != nil {
		in.Age = *req.Age
	}
	if req.Weight != nil {
		in.Weight = *req.Weight
	}
	if req.OwnerID != nil {
		in.OwnerID = *req.OwnerID
	}
	in.BirthDate, _ = dates.ParseOptional(req.BirthDate)
	in.LastVisit, _ = dates.ParseOptional(req.LastVisit)
	in.NextVisit, _ = dates.ParseOptional(req.NextVisit)
	return in
}

type patientResponse struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Species   string     `json:"species"`
	Breed     string     `json:"breed"`
	Age       float64    `json:"age"`
	Weight    float64    `json:"weight"`
	Gender    Gender     `json:"gender"`
	BirthDate *time.Time `json:"birthDate"`
	OwnerID   int64      `json:"ownerId"`
	LastVisit *time.Time `json:"lastVisit"`
	NextVisit *time.Time `json:"nextVisit"`
	Microchip string     `json:"microchip,omitempty"`
	Color     string     `json:"color,omitempty"`
	Allergies string     `json:"allergies,omitempty"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type patientStatsResponse struct {
	TotalPatients int           `json:"totalPatients"`
	BySpecies     stats.Labeled `json:"bySpecies"`
	ByStatus      stats.Labeled `json:"byStatus"`
	Timestamp     time.Time     `json:"timestamp"`
}

func toPatientResponse(p Patient) patientResponse {
	return patientResponse{
		ID:        p.ID,
		Name:      p.Name,
		Species:   p.Species,
		Breed:     p.Breed,
		Age:       p.Age,
		Weight:    p.Weight,
		Gender:    p.Gender,
		BirthDate: p.BirthDate,
		OwnerID:   p.OwnerID,
		LastVisit: p.LastVisit,
		NextVisit: p.NextVisit,
		Microchip: p.Microchip,
		Color:     p.Color,
		Allergies: p.Allergies,
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toPatientResponses(items []Patient) []patientResponse {
	out := make([]patientResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toPatientResponse(p))
	}
	return out
}

// @Summary Listar pacientes
// @Description Pacientes paginados, más recientes primero. Con `search` busca por nombre.
// @Tags patients
// @Produce json
// @Param page query int false "Página (default 1)"
// @Param limit query int false "Tamaño de página, 1-100 (default 10)"
// @Param search query string false "Nombre a buscar"
// @Success 200 {object} httpx.Envelope
// @Router /patients [get]
func listPatientsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if term := strings.TrimSpace(r.URL.Query().Get("search")); term != "" {
			items, err := svc.Search(r.Context(), term)
			if err != nil {
				httpx.WriteError(w, r, err)
				return
			}
			httpx.Page(w, "Búsqueda de pacientes completada", toPatientResponses(items), pagination.Single(len(items), TotalKey))
			return
		}

		p, _ := pagination.FromQuery(r.URL.Query())
		items, meta, err := svc.Page(r.Context(), p)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.Page(w, "Pacientes obtenidos exitosamente", toPatientResponses(items), meta)
	}
}

func searchPatientsHandler(svc *Service) http.HandlerFunc {
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
		httpx.List(w, "Búsqueda de pacientes completada", toPatientResponses(items), len(items))
	}
}

func patientStatsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Stats(r.Context())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.OK(w, "Estadísticas de pacientes obtenidas exitosamente", patientStatsResponse{
			TotalPatients: st.Total,
			BySpecies:     stats.Labeled{Label: "species", Groups: st.BySpecies},
			ByStatus:      stats.Labeled{Label: "status", Groups: st.ByStatus},
			Timestamp:     st.Timestamp,
		})
	}
}

// @Summary Pacientes de un cliente
// @Tags patients
// @Produce json
// @Param ownerId path int true "ID del cliente"
// @Success 200 {object} httpx.Envelope
// @Failure 400 {object} httpx.Envelope
// @Router /patients/owner/{ownerId} [get]
func listByOwnerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := httpx.ParseID(r, "ownerId")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		items, err := svc.ListByOwner(r.Context(), ownerID)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.List(w, "Pacientes del cliente obtenidos exitosamente", toPatientResponses(items), len(items))
	}
}

func getPatientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.ParseID(r, "id")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		p, err := svc.Get(r.Context(), id)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.OK(w, "Paciente obtenido exitosamente", toPatientResponse(p))
	}
}

// @Summary Crear paciente
// @Description El cliente (ownerId) debe existir; el microchip, si viene, es único.
// @Tags patients
// @Accept json
// @Produce json
// @Param payload body patientRequest true "Datos del paciente"
// @Success 201 {object} httpx.Envelope
// @Failure 400 {object} httpx.Envelope "Validación o propietario inexistente"
// @Failure 409 {object} httpx.Envelope "El microchip ya está registrado"
// @Router /patients [post]
func createPatientHandler(svc *Service, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req patientRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := v.Struct(req, patientMessages); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		p, err := svc.Create(r.Context(), req.input())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.Created(w, "Paciente creado exitosamente", toPatientResponse(p))
	}
}

func updatePatientHandler(svc *Service, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.ParseID(r, "id")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		var req patientRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := v.Struct(req, patientMessages); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		p, err := svc.Update(r.Context(), id, req.input())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.OK(w, "Paciente actualizado exitosamente", toPatientResponse(p))
	}
}

func deletePatientHandler(svc *Service) http.HandlerFunc {
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
		httpx.OK(w, "Paciente eliminado exitosamente", nil)
	}
}
