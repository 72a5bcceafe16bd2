package vaccinations

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"vet-clinic/internal/platform/dates"
	"vet-clinic/internal/platform/httpx"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/validation"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, v *validation.Validator) {
	r.Route("/vaccinations", func(vr chi.Router) {
		vr.Get("/", listVaccinationsHandler(svc))
		vr.Get("/search", searchVaccinationsHandler(svc))
		vr.Get("/stats", vaccinationStatsHandler(svc))
		vr.Get("/upcoming", upcomingHandler(svc))
		vr.Get("/overdue", overdueHandler(svc))
		vr.Get("/patient/{patientId}", listByPatientHandler(svc))
		vr.Get("/{id}", getVaccinationHandler(svc))
		vr.Post("/", createVaccinationHandler(svc, v))
		vr.Put("/{id}", updateVaccinationHandler(svc, v))
		vr.Delete("/{id}", deleteVaccinationHandler(svc))
	})
}

type vaccinationRequest struct {
	PatientID    *int64 `json:"patientId" validate:"required,gte=1"`
	Date         string `json:"date" validate:"required,isodate,notfuture"`
	Vaccine      string `json:"vaccine" validate:"required,min=2,max=100"`
	NextDue      string `json:"nextDue" validate:"required,isodate,dategt=Date"`
	Veterinarian string `json:"veterinarian" validate:"required,min=2,max=150"`
	BatchNumber  string `json:"batchNumber" validate:"required,min=3,max=50"`
	Notes        string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

var vaccinationMessages = validation.Messages{
	"patientId.required":    "El ID del paciente es requerido",
	"patientId":             "El ID del paciente debe ser un número entero positivo",
	"date.required":         "La fecha es requerida",
	"date.notfuture":        "La fecha de aplicación no puede ser futura",
	"date":                  "La fecha debe ser válida",
	"vaccine.required":      "El nombre de la vacuna es requerido",
	"vaccine":               "El nombre de la vacuna debe tener entre 2 y 100 caracteres",
	"nextDue.required":      "La fecha de próxima vacunación es requerida",
	"nextDue.dategt":        "La fecha de próxima vacunación debe ser posterior a la fecha de aplicación",
	"nextDue":               "La fecha de próxima vacunación debe ser válida",
	"veterinarian.required": "El veterinario es requerido",
	"veterinarian":          "El veterinario debe tener entre 2 y 150 caracteres",
	"batchNumber.required":  "El número de lote es requerido",
	"batchNumber":           "El número de lote debe tener entre 3 y 50 caracteres",
	"notes":                 "Las notas no pueden exceder 500 caracteres",
}

func (req vaccinationRequest) input() Input {
	in := Input{
		Vaccine:      req.Vaccine,
		Veterinarian: req.Veterinarian,
		BatchNumber:  req.BatchNumber,
		Notes:        req.Notes,
	}
	if req.PatientID != nil {
		in.PatientID = *req.PatientID
	}
	in.Date, _ = dates.Parse(req.Date)
	in.NextDue, _ = dates.Parse(req.NextDue)
	return in
}

type vaccinationResponse struct {
	ID           int64     `json:"id"`
	PatientID    int64     `json:"patientId"`
	Date         time.Time `json:"date"`
	Vaccine      string    `json:"vaccine"`
	NextDue      time.Time `json:"nextDue"`
	Veterinarian string    `json:"veterinarian"`
	BatchNumber  string    `json:"batchNumber"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type reminderResponse struct {
	vaccinationResponse
	PatientName string `json:"patientName"`
	Species     string `json:"species"`
	OwnerName   string `json:"ownerName"`
	OwnerPhone  string `json:"ownerPhone"`
	DaysOverdue int    `json:"daysOverdue,omitempty"`
}

type vaccinationStatsResponse struct {
	TotalVaccinations int       `json:"totalVaccinations"`
	UpcomingCount     int       `json:"upcomingCount"`
	OverdueCount      int       `json:"overdueCount"`
	Timestamp         time.Time `json:"timestamp"`
}

func toVaccinationResponse(v Vaccination) vaccinationResponse {
	return vaccinationResponse{
		ID:           v.ID,
		PatientID:    v.PatientID,
		Date:         v.Date,
		Vaccine:      v.Vaccine,
		NextDue:      v.NextDue,
		Veterinarian: v.Veterinarian,
		BatchNumber:  v.BatchNumber,
		Notes:        v.Notes,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
}

func toVaccinationResponses(items []Vaccination) []vaccinationResponse {
	out := make([]vaccinationResponse, 0, len(items))
	for _, v := range items {
		out = append(out, toVaccinationResponse(v))
	}
	return out
}

func toReminderResponses(items []Reminder) []reminderResponse {
	out := make([]reminderResponse, 0, len(items))
	for _, rm := range items {
		out = append(out, reminderResponse{
			vaccinationResponse: toVaccinationResponse(rm.Vaccination),
			PatientName:         rm.PatientName,
			Species:             rm.Species,
			OwnerName:           rm.OwnerName,
			OwnerPhone:          rm.OwnerPhone,
			DaysOverdue:         rm.DaysOverdue,
		})
	}
	return out
}

func listVaccinationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if term := strings.TrimSpace(r.URL.Query().Get("search")); term != "" {
			items, err := svc.Search(r.Context(), term)
			if err != nil {
				httpx.WriteError(w, r, err)
				return
			}
			httpx.Page(w, "Búsqueda de vacunas completada", toVaccinationResponses(items), pagination.Single(len(items), TotalKey))
			return
		}

		if p, paged := pagination.FromQuery(r.URL.Query()); paged {
			items, meta, err := svc.Page(r.Context(), p)
			if err != nil {
				httpx.WriteError(w, r, err)
				return
			}
			httpx.Page(w, "Vacunas obtenidas exitosamente", toVaccinationResponses(items), meta)
			return
		}

		items, err := svc.List(r.Context())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.List(w, "Vacunas obtenidas exitosamente", toVaccinationResponses(items), len(items))
	}
}

func searchVaccinationsHandler(svc *Service) http.HandlerFunc {
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
		httpx.List(w, "Búsqueda de vacunas completada", toVaccinationResponses(items), len(items))
	}
}

func vaccinationStatsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Stats(r.Context())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.OK(w, "Estadísticas de vacunas obtenidas exitosamente", vaccinationStatsResponse{
			TotalVaccinations: st.Total,
			UpcomingCount:     st.Upcoming,
			OverdueCount:      st.Overdue,
			Timestamp:         st.Timestamp,
		})
	}
}

// @Summary Próximas vacunas
// @Description Vacunas cuyo próximo vencimiento cae entre hoy y hoy + `days`, con datos del paciente y su dueño.
// @Tags vaccinations
// @Produce json
// @Param days query int false "Ventana en días (1-365, default 30)"
// @Success 200 {object} httpx.Envelope
// @Router /vaccinations/upcoming [get]
func upcomingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("days")))
		if err != nil {
			days = DefaultUpcomingDays
		}
		items, err := svc.Upcoming(r.Context(), days)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.List(w, "Próximas vacunas obtenidas exitosamente", toReminderResponses(items), len(items))
	}
}

// @Summary Vacunas vencidas
// @Tags vaccinations
// @Produce json
// @Success 200 {object} httpx.Envelope
// @Router /vaccinations/overdue [get]
func overdueHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.Overdue(r.Context())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.List(w, "Vacunas vencidas obtenidas exitosamente", toReminderResponses(items), len(items))
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
		httpx.List(w, "Vacunas del paciente obtenidas exitosamente", toVaccinationResponses(items), len(items))
	}
}

func getVaccinationHandler(svc *Service) http.HandlerFunc {
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
		httpx.OK(w, "Vacuna obtenida exitosamente", toVaccinationResponse(v))
	}
}

// @Summary Registrar vacuna
// @Description Registra la vacuna. La última visita del paciente solo avanza si la fecha de aplicación es posterior.
// @Tags vaccinations
// @Accept json
// @Produce json
// @Param payload body vaccinationRequest true "Datos de la vacuna"
// @Success 201 {object} httpx.Envelope
// @Failure 400 {object} httpx.Envelope
// @Router /vaccinations [post]
func createVaccinationHandler(svc *Service, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req vaccinationRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := v.Struct(req, vaccinationMessages); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		vac, err := svc.Create(r.Context(), req.input())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.Created(w, "Vacuna registrada exitosamente", toVaccinationResponse(vac))
	}
}

func updateVaccinationHandler(svc *Service, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.ParseID(r, "id")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		var req vaccinationRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := v.Struct(req, vaccinationMessages); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		vac, err := svc.Update(r.Context(), id, req.input())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.OK(w, "Vacuna actualizada exitosamente", toVaccinationResponse(vac))
	}
}

func deleteVaccinationHandler(svc *Service) http.HandlerFunc {
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
		httpx.OK(w, "Vacuna eliminada exitosamente", nil)
	}
}
