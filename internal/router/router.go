package router

import (
	"database/sql"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	mem "vet-clinic/internal/adapters/storage/memory"
	mdb "vet-clinic/internal/adapters/storage/mongodb"
	pg "vet-clinic/internal/adapters/storage/postgres"
	_ "vet-clinic/internal/docs"
	"vet-clinic/internal/domain/appointments"
	"vet-clinic/internal/domain/clients"
	"vet-clinic/internal/domain/patients"
	"vet-clinic/internal/domain/users"
	"vet-clinic/internal/domain/vaccinations"
	"vet-clinic/internal/domain/visits"
	"vet-clinic/internal/middleware"
	"vet-clinic/internal/platform/httpx"
	"vet-clinic/internal/platform/logger"
	"vet-clinic/internal/platform/metrics"
	"vet-clinic/internal/platform/validation"
	"vet-clinic/internal/ports/storage"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	// Si viene DB usa Postgres; si viene Mongo usa MongoDB; si no, in-memory.
	DB    *sql.DB
	Mongo *mongo.Database
	// MongoTx habilita transacciones (requiere replica set).
	MongoTx bool

	Logger  logger.Logger
	Metrics *metrics.Metrics
}

type repos struct {
	driver       string
	tx           storage.Transactor
	clients      clients.Repository
	patients     patients.Repository
	visits       visits.Repository
	vaccinations vaccinations.Repository
	appointments appointments.Repository
	users        users.Repository
}

func buildRepos(opts Options) repos {
	switch {
	case opts.DB != nil:
		return repos{
			driver:       "postgres",
			tx:           pg.NewTransactor(opts.DB),
			clients:      pg.NewClientsRepo(opts.DB),
			patients:     pg.NewPatientsRepo(opts.DB),
			visits:       pg.NewVisitsRepo(opts.DB),
			vaccinations: pg.NewVaccinationsRepo(opts.DB),
			appointments: pg.NewAppointmentsRepo(opts.DB),
			users:        pg.NewUsersRepo(opts.DB),
		}
	case opts.Mongo != nil:
		s := mdb.NewStore(opts.Mongo, opts.MongoTx)
		return repos{
			driver:       "mongo",
			tx:           s,
			clients:      mdb.NewClientsRepo(s),
			patients:     mdb.NewPatientsRepo(s),
			visits:       mdb.NewVisitsRepo(s),
			vaccinations: mdb.NewVaccinationsRepo(s),
			appointments: mdb.NewAppointmentsRepo(s),
			users:        mdb.NewUsersRepo(s),
		}
	default:
		db := mem.NewDB()
		return repos{
			driver:       "memory",
			tx:           db,
			clients:      mem.NewClientRepo(db),
			patients:     mem.NewPatientRepo(db),
			visits:       mem.NewVisitRepo(db),
			vaccinations: mem.NewVaccinationRepo(db),
			appointments: mem.NewAppointmentRepo(db),
			users:        mem.NewUserRepo(db),
		}
	}
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New("vet_clinic")
	}

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID(log))
	r.Use(middleware.AccessLog)
	r.Use(middleware.Recover)
	r.Use(m.Middleware)
	r.Use(middleware.ContentType)
	r.Use(middleware.SanitizeJSON)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.Fail(w, http.StatusNotFound, "Ruta no encontrada")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httpx.Fail(w, http.StatusMethodNotAllowed, "Método no permitido")
	})

	rp := buildRepos(opts)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.OK(w, "OK", map[string]any{
			"status":    "ok",
			"storage":   rp.driver,
			"timestamp": time.Now().UTC(),
		})
	})
	r.Handle("/metrics", m.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Services por módulo
	clientsSvc := clients.NewService(rp.clients)
	patientsSvc := patients.NewService(rp.patients, clientsSvc)
	visitsSvc := visits.NewService(rp.visits, patientsSvc, rp.tx)
	vaccinationsSvc := vaccinations.NewService(rp.vaccinations, patientsSvc, rp.tx)
	appointmentsSvc := appointments.NewService(rp.appointments, patientsSvc, rp.tx)
	usersSvc := users.NewService(rp.users)

	// Rutas por módulo
	v := validation.New()
	clients.RegisterRoutes(r, clientsSvc, v)
	patients.RegisterRoutes(r, patientsSvc, v)
	visits.RegisterRoutes(r, visitsSvc, v)
	vaccinations.RegisterRoutes(r, vaccinationsSvc, v)
	appointments.RegisterRoutes(r, appointmentsSvc, v)
	users.RegisterRoutes(r, usersSvc, v)

	return r
}
