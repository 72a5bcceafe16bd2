package appointments

import (
	"net/http"
	"strings"
	"time"

	"vet-clinic/internal/domain/visits"
	"vet-clinic/internal/platform/dates"
	"vet-clinic/internal/platform/httpx"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/stats"
	"vet-clinic/internal/platform/validation"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, v *validation.Validator) {
	r.Route("/appointments", func(ar chi.Router) {
		ar.Get("/", listAppointmentsHandler(svc))
		ar.Get("/search", searchAppointmentsHandler(svc))
		ar.Get("/stats", appointmentStatsHandler(svc))
		ar.Get("/patient/{patientId}", listByPatientHandler(svc))
		ar.Get("/date/{date}", listByDateHandler(svc))
		ar.Get("/status/{status}", listByStatusHandler(svc))
		ar.Get("/{id}", getAppointmentHandler(svc))
		ar.Post("/", createAppointmentHandler(svc, v))
		ar.Put("/{id}", updateAppointmentHandler(svc, v))
		ar.Delete("/{id}", deleteAppointmentHandler(svc))
	})
}

type appointmentRequest struct {
	PatientID    *int64 `json:"patientId" validate:"required,gte=1"`
	Date         string `json:"date" validate:"required,isodate"`
	Time         string `json:"time" validate:"required,clock"`
	Type         string `json:"type" validate:"required,oneof=Consulta Vacunación Cirugía Control Emergencia"`
	Veterinarian string `json:"veterinarian" validate:"required,min=2,max=255"`
	Status       string `json:"status,omitempty" validate:"omitempty,oneof=Programada Completada Cancelada"`
	Notes        string `json:"notes,omitempty"`
}

var appointmentMessages = validation.Messages{
	"patientId.required":    "El ID del paciente es requerido",
	"patientId":             "El ID del paciente debe ser un número entero positivo",
	"date.required":         "La fecha es requerida",
	"date":                  "La fecha debe estar en formato válido (YYYY-MM-DD)",
	"time.required":         "La hora es requerida",
	"time":                  "La hora debe estar en formato válido (HH:MM)",
	"type.required":         "El tipo de cita es requerido",
	"type":                  "El tipo de cita no es válido",
	"veterinarian.required": "El veterinario es requerido",
	"veterinarian":          "El veterinario debe tener entre 2 y 255 caracteres",
	"status":                "El estado no es válido",
}

func (req appointmentRequest) input() Input {
	in := Input{
		Time:         req.Time,
		Type:         visits.Type(req.Type),
		Veterinarian: req.Veterinarian,
		Status:       Status(req.Status),
		Notes:        req.Notes,
	}
	if req.PatientID != nil {
		in.PatientID = *req.PatientID
	}
	in.Date, _ = dates.Parse(req.Date)
	return in
}

type appointmentResponse struct {
	ID           int64       `json:"id"`
	PatientID    int64       `json:"patientId"`
	Date         string      `json:"date"`
	Time         string      `json:"time"`
	Type         visits.Type `json:"type"`
	Veterinarian string      `json:"veterinarian"`
	Status       Status      `json:"status"`
	Notes        string      `json:"notes,omitempty"`
	PatientName  string      `json:"patientName,omitempty"`
	Species      string      `json:"species,omitempty"`
	OwnerName    string      `json:"ownerName,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

type appointmentStatsResponse struct {
	TotalAppointments int           `json:"totalAppointments"`
	TodayAppointments int           `json:"todayAppointments"`
	ByType            stats.Labeled `json:"byType"`
	ByStatus          stats.Labeled `json:"byStatus"`
	Timestamp         time.Time     `json:"timestamp"`
}

func toAppointmentResponse(a Appointment) appointmentResponse {
	return appointmentResponse{
		ID:           a.ID,
		PatientID:    a.PatientID,
		Date:         a.Date.Format("2006-01-02"),
		Time:         a.Time,
		Type:         a.Type,
		Veterinarian: a.Veterinarian,
		Status:       a.Status,
		Notes:        a.Notes,
		PatientName:  a.PatientName,
		Species:      a.Species,
		OwnerName:    a.OwnerName,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func toAppointmentResponses(items []Appointment) []appointmentResponse {
	out := make([]appointmentResponse, 0, len(items))
	for _, a := range items {
		out = append(out, toAppointmentResponse(a))
	}
	return out
}

func listAppointmentsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if term := strings.TrimSpace(r.URL.Query().Get("search")); term != "" {
			items, err := svc.Search(r.Context(), term)
			if err != nil {
				httpx.WriteError(w, r, err)
				return
			}
			httpx.Page(w, "Búsqueda de citas completada", toAppointmentResponses(items), pagination.Single(len(items), TotalKey))
			return
		}

		if p, paged := pagination.FromQuery(r.URL.Query()); paged {
			items, meta, err := svc.Page(r.Context(), p)
			if err != nil {
				httpx.WriteError(w, r, err)
				return
			}
			httpx.Page(w, "Citas obtenidas exitosamente", toAppointmentResponses(items), meta)
			return
		}

		items, err := svc.List(r.Context())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.List(w, "Citas obtenidas exitosamente", toAppointmentResponses(items), len(items))
	}
}

func searchAppointmentsHandler(svc *Service) http.HandlerFunc {
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
		httpx.List(w, "Búsqueda de citas completada", toAppointmentResponses(items), len(items))
	}
}

func appointmentStatsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Stats(r.Context())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.OK(w, "Estadísticas de citas obtenidas exitosamente", appointmentStatsResponse{
			TotalAppointments: st.Total,
			TodayAppointments: st.Today,
			ByType:            stats.Labeled{Label: "type", Groups: st.ByType},
			ByStatus:          stats.Labeled{Label: "status", Groups: st.ByStatus},
			Timestamp:         st.Timestamp,
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
		httpx.List(w, "Citas del paciente obtenidas exitosamente", toAppointmentResponses(items), len(items))
	}
}

// @Summary Citas de un día
// @Tags appointments
// @Produce json
// @Param date path string true "Fecha YYYY-MM-DD"
// @Success 200 {object} httpx.Envelope
// @Failure 400 {object} httpx.Envelope "Fecha inválida"
// @Router /appointments/date/{date} [get]
func listByDateHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListByDate(r.Context(), chi.URLParam(r, "date"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.List(w, "Citas del día obtenidas exitosamente", toAppointmentResponses(items), len(items))
	}
}

// @Summary Citas por estado
// @Tags appointments
// @Produce json
// @Param status path string true "Programada, Completada o Cancelada"
// @Success 200 {object} httpx.Envelope
// @Failure 400 {object} httpx.Envelope "Estado inválido"
// @Router /appointments/status/{status} [get]
func listByStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListByStatus(r.Context(), Status(chi.URLParam(r, "status")))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.List(w, "Citas obtenidas exitosamente", toAppointmentResponses(items), len(items))
	}
}

func getAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.ParseID(r, "id")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		a, err := svc.Get(r.Context(), id)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.OK(w, "Cita obtenida exitosamente", toAppointmentResponse(a))
	}
}

// @Summary Agendar cita
// @Description Si la cita se crea como Completada, la fecha pasa a ser la última visita del paciente.
// @Tags appointments
// @Accept json
// @Produce json
// @Param payload body appointmentRequest true "Datos de la cita"
// @Success 201 {object} httpx.Envelope
// @Failure 400 {object} httpx.Envelope
// @Router /appointments [post]
func createAppointmentHandler(svc *Service, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req appointmentRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := v.Struct(req, appointmentMessages); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		a, err := svc.Create(r.Context(), req.input())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.Created(w, "Cita creada exitosamente", toAppointmentResponse(a))
	}
}

func updateAppointmentHandler(svc *Service, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.ParseID(r, "id")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		var req appointmentRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := v.Struct(req, appointmentMessages); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		a, err := svc.Update(r.Context(), id, req.input())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.OK(w, "Cita actualizada exitosamente", toAppointmentResponse(a))
	}
}

func deleteAppointmentHandler(svc *Service) http.HandlerFunc {
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
		httpx.OK(w, "Cita eliminada exitosamente", nil)
	}
}
