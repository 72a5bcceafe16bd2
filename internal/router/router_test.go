package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vet-clinic/internal/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Data       json.RawMessage   `json:"data"`
	Pagination map[string]any    `json:"pagination"`
	Count      *int              `json:"count"`
	Errors     []json.RawMessage `json:"errors"`
	Field      string            `json:"field"`
	Error      string            `json:"error"`
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_Health(t *testing.T) {
	ts := newServer(t)

	st, env := call(t, ts.URL, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, st)
	assert.True(t, env.Success)

	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "ok", data["status"])
	assert.Equal(t, "memory", data["storage"])
}

func TestHTTP_Clients_CreateGetAndConflicts(t *testing.T) {
	ts := newServer(t)

	id := createClient(t, ts.URL, "Ana Perez", "ana@example.com")

	st, env := call(t, ts.URL, "GET", fmt.Sprintf("/clients/%d", id), nil)
	require.Equal(t, http.StatusOK, st)
	var c struct {
		ID               int64     `json:"id"`
		Name             string    `json:"name"`
		Email            string    `json:"email"`
		Phone            string    `json:"phone"`
		Address          string    `json:"address"`
		City             string    `json:"city"`
		Status           string    `json:"status"`
		RegistrationDate time.Time `json:"registrationDate"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &c))
	assert.Equal(t, id, c.ID)
	assert.Equal(t, "Ana Perez", c.Name)
	assert.Equal(t, "ana@example.com", c.Email)
	assert.Equal(t, "555-123-4567", c.Phone)
	assert.Equal(t, "Calle Falsa 123", c.Address)
	assert.Equal(t, "Lima", c.City)
	assert.Equal(t, "Activo", c.Status)
	assert.False(t, c.RegistrationDate.IsZero())
	assert.WithinDuration(t, time.Now(), c.RegistrationDate, time.Minute)

	// mismo email con otro case
	st, env = call(t, ts.URL, "POST", "/clients", clientBody("Otra Persona", "ANA@example.com"))
	assert.Equal(t, http.StatusConflict, st)
	assert.False(t, env.Success)
	assert.Equal(t, "El email ya está registrado", env.Message)

	st, env = call(t, ts.URL, "GET", "/clients/999999", nil)
	assert.Equal(t, http.StatusNotFound, st)
	assert.Equal(t, "Cliente no encontrado", env.Message)

	st, env = call(t, ts.URL, "GET", "/clients/abc", nil)
	assert.Equal(t, http.StatusBadRequest, st)
	assert.Equal(t, "El ID debe ser un número válido", env.Message)
}

func TestHTTP_Clients_ValidationErrors(t *testing.T) {
	ts := newServer(t)

	st, env := call(t, ts.URL, "POST", "/clients", map[string]any{
		"name":  "Ana123",
		"email": "no-es-email",
	})
	require.Equal(t, http.StatusBadRequest, st)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Errors)
}

func TestHTTP_Clients_Pagination(t *testing.T) {
	ts := newServer(t)

	for i := 0; i < 3; i++ {
		createClient(t, ts.URL, "Cliente "+strings.Repeat("a", i+1), fmt.Sprintf("c%d@example.com", i))
	}

	st, env := call(t, ts.URL, "GET", "/clients?page=2&limit=2", nil)
	require.Equal(t, http.StatusOK, st)
	require.NotNil(t, env.Pagination)
	assert.EqualValues(t, 2, env.Pagination["currentPage"])
	assert.EqualValues(t, 2, env.Pagination["totalPages"])
	assert.EqualValues(t, 3, env.Pagination["totalClients"])
	assert.Equal(t, false, env.Pagination["hasNextPage"])
	assert.Equal(t, true, env.Pagination["hasPrevPage"])

	var items []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Len(t, items, 1)

	// limit fuera de rango se acota
	st, env = call(t, ts.URL, "GET", "/clients?limit=500", nil)
	require.Equal(t, http.StatusOK, st)
	assert.EqualValues(t, 100, env.Pagination["limit"])
}

func TestHTTP_Pagination_HugePageIsEmpty(t *testing.T) {
	ts := newServer(t)
	owner := createClient(t, ts.URL, "Ana Perez", "ana@example.com")
	createPatient(t, ts.URL, owner, "")

	for _, path := range []string{
		"/clients?page=9223372036854775807&limit=10",
		"/patients?page=4611686018427387904&limit=4",
		"/visits?page=9223372036854775807",
	} {
		st, env := call(t, ts.URL, "GET", path, nil)
		require.Equal(t, http.StatusOK, st, path)

		var items []map[string]any
		require.NoError(t, json.Unmarshal(env.Data, &items), path)
		assert.Empty(t, items, path)
		assert.Equal(t, false, env.Pagination["hasNextPage"], path)
	}
}

func TestHTTP_Patients_OwnerAndMicrochip(t *testing.T) {
	ts := newServer(t)

	st, env := call(t, ts.URL, "POST", "/patients", patientBody(999999, "ABC1234567"))
	assert.Equal(t, http.StatusBadRequest, st)
	assert.Equal(t, "El propietario seleccionado no existe", env.Message)

	owner := createClient(t, ts.URL, "Ana Perez", "ana@example.com")
	createPatient(t, ts.URL, owner, "ABC1234567")

	st, env = call(t, ts.URL, "POST", "/patients", patientBody(owner, "ABC1234567"))
	assert.Equal(t, http.StatusConflict, st)
	assert.Equal(t, "El microchip ya está registrado", env.Message)

	// sin microchip no choca
	createPatient(t, ts.URL, owner, "")
	createPatient(t, ts.URL, owner, "")

	st, env = call(t, ts.URL, "GET", fmt.Sprintf("/patients/owner/%d", owner), nil)
	require.Equal(t, http.StatusOK, st)
	require.NotNil(t, env.Count)
	assert.Equal(t, 3, *env.Count)
}

func TestHTTP_Visits_SetLastVisit(t *testing.T) {
	ts := newServer(t)

	owner := createClient(t, ts.URL, "Ana Perez", "ana@example.com")
	patient := createPatient(t, ts.URL, owner, "")

	st, env := call(t, ts.URL, "POST", "/visits", map[string]any{
		"patientId":    patient,
		"date":         "2024-03-01",
		"type":         "Consulta",
		"veterinarian": "Dr. Gomez",
		"diagnosis":    "Otitis externa",
		"treatment":    "Gotas óticas cada 12h",
		"cost":         350.5,
	})
	require.Equal(t, http.StatusCreated, st, env.Message)

	assert.Equal(t, "2024-03-01", lastVisit(t, ts.URL, patient))

	st, env = call(t, ts.URL, "POST", "/visits", map[string]any{
		"patientId":    999999,
		"date":         "2024-03-01",
		"type":         "Consulta",
		"veterinarian": "Dr. Gomez",
		"diagnosis":    "Otitis externa",
		"treatment":    "Gotas óticas",
		"cost":         10,
	})
	assert.Equal(t, http.StatusBadRequest, st)
	assert.Equal(t, "El paciente seleccionado no existe", env.Message)

	st, _ = call(t, ts.URL, "DELETE", "/visits/999999", nil)
	assert.Equal(t, http.StatusNotFound, st)

	st, env = call(t, ts.URL, "GET", "/visits", nil)
	require.Equal(t, http.StatusOK, st)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)
	assert.Nil(t, env.Pagination)
}

func TestHTTP_Vaccinations_AdvanceLastVisitOnly(t *testing.T) {
	ts := newServer(t)

	owner := createClient(t, ts.URL, "Ana Perez", "ana@example.com")
	patient := createPatient(t, ts.URL, owner, "")

	vaccinate := func(date, next string) {
		t.Helper()
		st, env := call(t, ts.URL, "POST", "/vaccinations", map[string]any{
			"patientId":    patient,
			"date":         date,
			"vaccine":      "Antirrábica",
			"nextDue":      next,
			"veterinarian": "Dr. Gomez",
			"batchNumber":  "L-001",
		})
		require.Equal(t, http.StatusCreated, st, env.Message)
	}

	vaccinate("2024-05-10", "2025-05-10")
	assert.Equal(t, "2024-05-10", lastVisit(t, ts.URL, patient))

	// una aplicación anterior no retrocede lastVisit
	vaccinate("2024-01-10", "2025-01-10")
	assert.Equal(t, "2024-05-10", lastVisit(t, ts.URL, patient))

	st, env := call(t, ts.URL, "POST", "/vaccinations", map[string]any{
		"patientId":    patient,
		"date":         "2024-05-10",
		"vaccine":      "Antirrábica",
		"nextDue":      "2024-05-10",
		"veterinarian": "Dr. Gomez",
		"batchNumber":  "L-001",
	})
	assert.Equal(t, http.StatusBadRequest, st)
	assert.NotEmpty(t, env.Errors)
}

func TestHTTP_Appointments_CompletedSetsLastVisit(t *testing.T) {
	ts := newServer(t)

	owner := createClient(t, ts.URL, "Ana Perez", "ana@example.com")
	patient := createPatient(t, ts.URL, owner, "")

	body := map[string]any{
		"patientId":    patient,
		"date":         "2024-06-20",
		"time":         "10:30",
		"type":         "Control",
		"veterinarian": "Dr. Gomez",
	}
	st, env := call(t, ts.URL, "POST", "/appointments", body)
	require.Equal(t, http.StatusCreated, st, env.Message)

	var a map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &a))
	assert.Equal(t, "Programada", a["status"])
	assert.Equal(t, "Firulais", a["patientName"])
	assert.Equal(t, "Ana Perez", a["ownerName"])
	assert.Equal(t, "", lastVisit(t, ts.URL, patient))

	body["status"] = "Completada"
	st, env = call(t, ts.URL, "PUT", fmt.Sprintf("/appointments/%v", a["id"]), body)
	require.Equal(t, http.StatusOK, st, env.Message)
	assert.Equal(t, "2024-06-20", lastVisit(t, ts.URL, patient))

	st, env = call(t, ts.URL, "GET", "/appointments/date/2024-06-20", nil)
	require.Equal(t, http.StatusOK, st)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)
}

func TestHTTP_Users_CreateConflictAndStats(t *testing.T) {
	ts := newServer(t)

	st, env := call(t, ts.URL, "POST", "/users", map[string]any{
		"nombre":   "Carla Ruiz",
		"email":    "carla@example.com",
		"telefono": "5551234567",
		"password": "Secreta1!",
		"rolName":  "Veterinario",
	})
	require.Equal(t, http.StatusCreated, st, env.Message)
	var u map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.Equal(t, "Veterinario", u["rolName"])
	assert.EqualValues(t, 2, u["rolId"])
	assert.NotContains(t, u, "password")
	assert.NotContains(t, u, "passwordHash")

	st, env = call(t, ts.URL, "POST", "/users", map[string]any{
		"nombre":   "Otra Persona",
		"email":    "CARLA@example.com",
		"telefono": "5551234567",
	})
	assert.Equal(t, http.StatusConflict, st)
	assert.Equal(t, "El email ya está registrado", env.Message)

	st, env = call(t, ts.URL, "GET", "/users", nil)
	require.Equal(t, http.StatusOK, st)
	assert.EqualValues(t, 1, env.Pagination["totalUsers"])

	st, env = call(t, ts.URL, "GET", "/users/stats", nil)
	require.Equal(t, http.StatusOK, st)
	var stats struct {
		TotalUsers int              `json:"totalUsers"`
		ByRole     []map[string]any `json:"byRole"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 1, stats.TotalUsers)
	require.Len(t, stats.ByRole, 1)
	assert.Equal(t, "Veterinario", stats.ByRole[0]["rolName"])
	assert.EqualValues(t, 1, stats.ByRole[0]["count"])
}

func TestHTTP_StatsEndpoints(t *testing.T) {
	ts := newServer(t)
	owner := createClient(t, ts.URL, "Ana Perez", "ana@example.com")
	createPatient(t, ts.URL, owner, "")

	st, env := call(t, ts.URL, "GET", "/clients/stats", nil)
	require.Equal(t, http.StatusOK, st)
	var cs struct {
		TotalClients int              `json:"totalClients"`
		ByStatus     []map[string]any `json:"byStatus"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &cs))
	assert.Equal(t, 1, cs.TotalClients)
	require.Len(t, cs.ByStatus, 1)
	assert.Equal(t, "Activo", cs.ByStatus[0]["status"])

	st, env = call(t, ts.URL, "GET", "/patients/stats", nil)
	require.Equal(t, http.StatusOK, st)
	var ps struct {
		TotalPatients int              `json:"totalPatients"`
		BySpecies     []map[string]any `json:"bySpecies"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &ps))
	assert.Equal(t, 1, ps.TotalPatients)
	require.Len(t, ps.BySpecies, 1)
	assert.Equal(t, "Perro", ps.BySpecies[0]["species"])

	for _, path := range []string{"/visits/stats", "/vaccinations/stats", "/appointments/stats"} {
		st, env = call(t, ts.URL, "GET", path, nil)
		require.Equal(t, http.StatusOK, st, path)
		assert.True(t, env.Success, path)
		assert.NotEmpty(t, env.Data, path)
	}
}

func TestHTTP_Vaccinations_UpcomingAndOverdue(t *testing.T) {
	ts := newServer(t)
	owner := createClient(t, ts.URL, "Ana Perez", "ana@example.com")
	patient := createPatient(t, ts.URL, owner, "")

	today := time.Now().UTC()
	format := func(days int) string { return today.AddDate(0, 0, days).Format("2006-01-02") }
	for _, next := range []int{10, -5} {
		st, env := call(t, ts.URL, "POST", "/vaccinations", map[string]any{
			"patientId":    patient,
			"date":         format(-400),
			"vaccine":      "Antirrábica",
			"nextDue":      format(next),
			"veterinarian": "Dr. Gomez",
			"batchNumber":  "L-001",
		})
		require.Equal(t, http.StatusCreated, st, env.Message)
	}

	st, env := call(t, ts.URL, "GET", "/vaccinations/upcoming", nil)
	require.Equal(t, http.StatusOK, st)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)
	var up []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &up))
	require.Len(t, up, 1)
	assert.Equal(t, "Firulais", up[0]["patientName"])
	assert.Equal(t, "Ana Perez", up[0]["ownerName"])
	assert.Equal(t, "555-123-4567", up[0]["ownerPhone"])

	st, env = call(t, ts.URL, "GET", "/vaccinations/overdue", nil)
	require.Equal(t, http.StatusOK, st)
	var over []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &over))
	require.Len(t, over, 1)
	assert.EqualValues(t, 5, over[0]["daysOverdue"])

	st, env = call(t, ts.URL, "GET", "/vaccinations/stats", nil)
	require.Equal(t, http.StatusOK, st)
	var vs map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &vs))
	assert.EqualValues(t, 2, vs["totalVaccinations"])
	assert.EqualValues(t, 1, vs["upcomingCount"])
	assert.EqualValues(t, 1, vs["overdueCount"])
}

func TestHTTP_Body_MalformedAndContentType(t *testing.T) {
	ts := newServer(t)

	req, err := http.NewRequest("POST", ts.URL+"/clients", strings.NewReader(`{"name": "Ana",`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	st, env := send(t, req)
	assert.Equal(t, http.StatusBadRequest, st)
	assert.Equal(t, "JSON malformado", env.Message)

	req, err = http.NewRequest("POST", ts.URL+"/clients", strings.NewReader(`name=Ana`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	st, env = send(t, req)
	assert.Equal(t, http.StatusBadRequest, st)
	assert.Equal(t, "Content-Type debe ser application/json", env.Message)
}

func TestHTTP_UnknownRoute(t *testing.T) {
	ts := newServer(t)

	st, env := call(t, ts.URL, "GET", "/nope", nil)
	assert.Equal(t, http.StatusNotFound, st)
	assert.False(t, env.Success)
	assert.Equal(t, "Ruta no encontrada", env.Message)
}

func TestHTTP_Search_RequiresTerm(t *testing.T) {
	ts := newServer(t)

	st, env := call(t, ts.URL, "GET", "/patients/search", nil)
	assert.Equal(t, http.StatusBadRequest, st)
	assert.Equal(t, "El término de búsqueda es requerido", env.Message)
}

func clientBody(name, email string) map[string]any {
	return map[string]any{
		"name":    name,
		"email":   email,
		"phone":   "555-123-4567",
		"address": "Calle Falsa 123",
		"city":    "Lima",
	}
}

func patientBody(ownerID int64, microchip string) map[string]any {
	b := map[string]any{
		"name":    "Firulais",
		"species": "Perro",
		"breed":   "Mestizo",
		"age":     3,
		"weight":  12.5,
		"gender":  "Macho",
		"ownerId": ownerID,
	}
	if microchip != "" {
		b["microchip"] = microchip
	}
	return b
}

func createClient(t *testing.T, baseURL, name, email string) int64 {
	t.Helper()
	st, env := call(t, baseURL, "POST", "/clients", clientBody(name, email))
	require.Equal(t, http.StatusCreated, st, "create client: %s %s", env.Message, env.Errors)
	return idOf(t, env)
}

func createPatient(t *testing.T, baseURL string, ownerID int64, microchip string) int64 {
	t.Helper()
	st, env := call(t, baseURL, "POST", "/patients", patientBody(ownerID, microchip))
	require.Equal(t, http.StatusCreated, st, "create patient: %s %s", env.Message, env.Errors)
	return idOf(t, env)
}

// lastVisit devuelve YYYY-MM-DD o "" si el paciente no tiene visitas.
func lastVisit(t *testing.T, baseURL string, patientID int64) string {
	t.Helper()
	st, env := call(t, baseURL, "GET", fmt.Sprintf("/patients/%d", patientID), nil)
	require.Equal(t, http.StatusOK, st)

	var p struct {
		LastVisit *time.Time `json:"lastVisit"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &p))
	if p.LastVisit == nil {
		return ""
	}
	return p.LastVisit.UTC().Format("2006-01-02")
}

func idOf(t *testing.T, env envelope) int64 {
	t.Helper()
	var v struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &v))
	require.NotZero(t, v.ID)
	return v.ID
}

func call(t *testing.T, baseURL, method, path string, body any) (int, envelope) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return send(t, req)
}

func send(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), "body=%s", string(raw))
	return res.StatusCode, env
}
