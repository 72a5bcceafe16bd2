package memory

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"vet-clinic/internal/domain/appointments"
	"vet-clinic/internal/domain/clients"
	"vet-clinic/internal/domain/patients"
	"vet-clinic/internal/domain/users"
	"vet-clinic/internal/domain/vaccinations"
	"vet-clinic/internal/domain/visits"
	"vet-clinic/internal/platform/pagination"
)

// DB es el storage en memoria compartido por todos los repos. Un único
// RWMutex protege todas las tablas para que las transacciones puedan tocar
// más de una.
type DB struct {
	mu  sync.RWMutex
	seq map[string]int64

	clients      map[int64]clients.Client
	patients     map[int64]patients.Patient
	visits       map[int64]visits.Visit
	vaccinations map[int64]vaccinations.Vaccination
	appointments map[int64]appointments.Appointment
	users        map[int64]users.User
}

func NewDB() *DB {
	return &DB{
		seq:          map[string]int64{},
		clients:      map[int64]clients.Client{},
		patients:     map[int64]patients.Patient{},
		visits:       map[int64]visits.Visit{},
		vaccinations: map[int64]vaccinations.Vaccination{},
		appointments: map[int64]appointments.Appointment{},
		users:        map[int64]users.User{},
	}
}

type txKey struct{}

// WithinTx toma el lock de escritura durante fn. Si fn falla, las tablas
// vuelven al estado previo.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if db.inTx(ctx) {
		return fn(ctx)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	snap := db.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, db)); err != nil {
		db.restore(snap)
		return err
	}
	return nil
}

func (db *DB) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*DB)
	return owner == db
}

// read/write devuelven el unlock a diferir. Dentro de una tx el lock ya
// está tomado.
func (db *DB) read(ctx context.Context) func() {
	if db.inTx(ctx) {
		return func() {}
	}
	db.mu.RLock()
	return db.mu.RUnlock
}

func (db *DB) write(ctx context.Context) func() {
	if db.inTx(ctx) {
		return func() {}
	}
	db.mu.Lock()
	return db.mu.Unlock
}

func (db *DB) nextID(table string) int64 {
	db.seq[table]++
	return db.seq[table]
}

// bump avanza la secuencia si se insertó un id explícito mayor.
func (db *DB) bump(table string, id int64) {
	if id > db.seq[table] {
		db.seq[table] = id
	}
}

type snapshot struct {
	seq          map[string]int64
	clients      map[int64]clients.Client
	patients     map[int64]patients.Patient
	visits       map[int64]visits.Visit
	vaccinations map[int64]vaccinations.Vaccination
	appointments map[int64]appointments.Appointment
	users        map[int64]users.User
}

func (db *DB) snapshot() snapshot {
	return snapshot{
		seq:          maps.Clone(db.seq),
		clients:      maps.Clone(db.clients),
		patients:     maps.Clone(db.patients),
		visits:       maps.Clone(db.visits),
		vaccinations: maps.Clone(db.vaccinations),
		appointments: maps.Clone(db.appointments),
		users:        maps.Clone(db.users),
	}
}

func (db *DB) restore(s snapshot) {
	db.seq = s.seq
	db.clients = s.clients
	db.patients = s.patients
	db.visits = s.visits
	db.vaccinations = s.vaccinations
	db.appointments = s.appointments
	db.users = s.users
}

// deletePatient borra el paciente y todo su historial. Requiere lock.
func (db *DB) deletePatient(id int64) {
	for vid, v := range db.visits {
		if v.PatientID == id {
			delete(db.visits, vid)
		}
	}
	for vid, v := range db.vaccinations {
		if v.PatientID == id {
			delete(db.vaccinations, vid)
		}
	}
	for aid, a := range db.appointments {
		if a.PatientID == id {
			delete(db.appointments, aid)
		}
	}
	delete(db.patients, id)
}

// -------------------------
// helpers
// -------------------------

func values[T any](m map[int64]T, keep func(T) bool) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// newestFirst ordena por created desc y, a igual fecha, id desc.
func newestFirst[T any](items []T, created func(T) time.Time, id func(T) int64) {
	sort.Slice(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return id(items[i]) > id(items[j])
	})
}

func pageOf[T any](items []T, p pagination.Request) []T {
	start := p.Offset()
	if start < 0 || start > len(items) {
		start = len(items)
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// nameLess ordena nombres sin distinguir mayúsculas; a igual nombre
// desempata por id para que el orden sea estable.
func nameLess(a, b string, idA, idB int64) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return idA < idB
}

func containsFold(s, term string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(term))
}
