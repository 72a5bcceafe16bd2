package visits

import (
	"net/http"
	"strings"
	"time"

	"vet-clinic/internal/platform/dates"
	"vet-clinic/internal/platform/httpx"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/validation"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, v *validation.Validator) {
	r.Route("/visits", func(vr chi.Router) {
		vr.Get("/", listVisitsHandler(svc))
		vr.Get("/search", searchVisitsHandler(svc))
		vr.Get("/stats", visitStatsHandler(svc))
		vr.Get("/patient/{patientId}", listByPatientHandler(svc))
		vr.Get("/{id}", getVisitHandler(svc))
		vr.Post("/", createVisitHandler(svc, v))
		vr.Put("/{id}", updateVisitHandler(svc, v))
		vr.Delete("/{id}", deleteVisitHandler(svc))
	})
}

type visitRequest struct {
	PatientID    *int64   `json:"patientId" validate:"required,gte=1"`
	Date         string   `json:"date" validate:"required,isodate"`
	Type         string   `json:"type" validate:"required,oneof=Consulta Vacunación Cirugía Control Emergencia"`
	Veterinarian string   `json:"veterinarian" validate:"required,min=2,max=150"`
	Diagnosis    string   `json:"diagnosis" validate:"required,min=5,max=1000"`
	Treatment    string   `json:"treatment" validate:"required,min=5,max=1000"`
	Notes        string   `json:"notes,omitempty" validate:"omitempty,max=1000"`
	Cost         *float64 `json:"cost" validate:"required,gte=0,lte=99999999999999"`
}

var visitMessages = validation.Messages{
	"patientId.required":    "El ID del paciente es requerido",
	"patientId":             "El ID del paciente debe ser un número entero positivo",
	"date.required":         "La fecha es requerida",
	"date":                  "La fecha debe ser válida",
	"type.required":         "El tipo de visita es requerido",
	"type":                  "El tipo de visita debe ser 'Consulta', 'Vacunación', 'Cirugía', 'Control' o 'Emergencia'",
	"veterinarian.required": "El veterinario es requerido",
	"veterinarian":          "El veterinario debe tener entre 2 y 150 caracteres",
	"diagnosis.required":    "El diagnóstico es requerido",
	"diagnosis":             "El diagnóstico debe tener entre 5 y 1000 caracteres",
	"treatment.required":    "El tratamiento es requerido",
	"treatment":             "El tratamiento debe tener entre 5 y 1000 caracteres",
	"notes":                 "Las notas no pueden exceder 1000 caracteres",
	"cost.required":         "El costo es requerido",
	"cost":                  "El costo debe ser un número entre 0 y 99999999999999",
}

func (req visitRequest) input() Input {
	in := Input{
		Type:         Type(req.Type),
		Veterinarian: req.Veterinarian,
		Diagnosis:    req.Diagnosis,
		Treatment:    req.Treatment,
		Notes:        req.Notes,
	}
	if req.PatientID != nil {
		in.PatientID = *req.PatientID
	}
	if req.Cost != nil {
		in.Cost = *req.Cost
	}
	in.Date, _ = dates.Parse(req.Date)
	return in
}

type visitResponse struct {
	ID           int64     `json:"id"`
	PatientID    int64     `json:"patientId"`
	Date         time.Time `json:"date"`
	Type         Type      `json:"type"`
	Veterinarian string    `json:"veterinarian"`
	Diagnosis    string    `json:"diagnosis"`
	Treatment    string    `json:"treatment"`
	Notes        string    `json:"notes,omitempty"`
	Cost         float64   `json:"cost"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type typeStatResponse struct {
	Type         Type    `json:"type"`
	Count        int     `json:"count"`
	TotalRevenue float64 `json:"totalRevenue"`
	AvgCost      float64 `json:"avgCost"`
}

type visitStatsResponse struct {
	TotalVisits int                `json:"totalVisits"`
	ByType      []typeStatResponse `json:"byType"`
	Timestamp   time.Time          `json:"timestamp"`
}

func toVisitResponse(v Visit) visitResponse {
	return visitResponse{
		ID:           v.ID,
		PatientID:    v.PatientID,
		Date:         v.Date,
		Type:         v.Type,
		Veterinarian: v.Veterinarian,
		Diagnosis:    v.Diagnosis,
		Treatment:    v.Treatment,
		Notes:        v.Notes,
		Cost:         v.Cost,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
}

func toVisitResponses(items []Visit) []visitResponse {
	out := make([]visitResponse, 0, len(items))
	for _, v := range items {
		out = append(out, toVisitResponse(v))
	}
	return out
}

// listVisitsHandler devuelve todas las visitas, o una página si vienen
// page/limit.
// @Summary Listar visitas
// @Tags visits
// @Produce json
// @Param page query int false "Página"
// @Param limit query int false "Tamaño de página, 1-100"
// @Param search query string false "Texto a buscar en diagnóstico, tratamiento o veterinario"
// @Success 200 {object} httpx.Envelope
// @Router /visits [get]
func listVisitsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if term := strings.TrimSpace(r.URL.Query().Get("search")); term != "" {
			items, err := svc.Search(r.Context(), term)
			if err != nil {
				httpx.WriteError(w, r, err)
				return
			}
			httpx.Page(w, "Búsqueda de visitas completada", toVisitResponses(items), pagination.Single(len(items), TotalKey))
			return
		}

		if p, paged := pagination.FromQuery(r.URL.Query()); paged {
			items, meta, err := svc.Page(r.Context(), p)
			if err != nil {
				httpx.WriteError(w, r, err)
				return
			}
			httpx.Page(w, "Visitas obtenidas exitosamente", toVisitResponses(items), meta)
			return
		}

		items, err := svc.List(r.Context())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.List(w, "Visitas obtenidas exitosamente", toVisitResponses(items), len(items))
	}
}

func searchVisitsHandler(svc *Service) http.HandlerFunc {
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
		httpx.List(w, "Búsqueda de visitas completada", toVisitResponses(items), len(items))
	}
}

// @Summary Estadísticas de visitas
// @Description Total de visitas y, por tipo, cantidad, facturación total y costo promedio.
// @Tags visits
// @Produce json
// @Success 200 {object} httpx.Envelope
// @Router /visits/stats [get]
func visitStatsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Stats(r.Context())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		byType := make([]typeStatResponse, 0, len(st.ByType))
		for _, t := range st.ByType {
			byType = append(byType, typeStatResponse(t))
		}
		httpx.OK(w, "Estadísticas de visitas obtenidas exitosamente", visitStatsResponse{
			TotalVisits: st.Total,
			ByType:      byType,
			Timestamp:   st.Timestamp,
		})
	}
}

func listByPatientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, err := httpx.ParseID(r, "patientId")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		items, err := svc.ListByPatient(r.Context(), patientID)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.List(w, "Visitas del paciente obtenidas exitosamente", toVisitResponses(items), len(items))
	}
}

func getVisitHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.ParseID(r, "id")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		v, err := svc.Get(r.Context(), id)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.OK(w, "Visita obtenida exitosamente", toVisitResponse(v))
	}
}

// @Summary Registrar visita
// @Description Registra la visita y fija la última visita del paciente con su fecha.
// @Tags visits
// @Accept json
// @Produce json
// @Param payload body visitRequest true "Datos de la visita"
// @Success 201 {object} httpx.Envelope
// @Failure 400 {object} httpx.Envelope
// @Router /visits [post]
func createVisitHandler(svc *Service, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req visitRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := v.Struct(req, visitMessages); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		visit, err := svc.Create(r.Context(), req.input())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.Created(w, "Visita registrada exitosamente", toVisitResponse(visit))
	}
}

func updateVisitHandler(svc *Service, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.ParseID(r, "id")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		var req visitRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := v.Struct(req, visitMessages); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		visit, err := svc.Update(r.Context(), id, req.input())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.OK(w, "Visita actualizada exitosamente", toVisitResponse(visit))
	}
}

func deleteVisitHandler(svc *Service) http.HandlerFunc {
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
		httpx.OK(w, "Visita eliminada exitosamente", nil)
	}
}
