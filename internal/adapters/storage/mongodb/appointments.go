package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"vet-clinic/internal/domain/appointments"
	"vet-clinic/internal/domain/visits"
	"vet-clinic/internal/platform/dates"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/stats"
	"vet-clinic/internal/ports/storage"
)

type appointmentDoc struct {
	ID           int64     `bson:"_id"`
	PatientID    int64     `bson:"patientId"`
	Date         time.Time `bson:"date"`
	Time         string    `bson:"time"`
	Type         string    `bson:"type"`
	Veterinarian string    `bson:"veterinarian"`
	Status       string    `bson:"status"`
	Notes        string    `bson:"notes"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

type appointmentRow struct {
	Appointment appointmentDoc `bson:",inline"`
	Patient     *patientDoc    `bson:"patient,omitempty"`
	Owner       *clientDoc     `bson:"owner,omitempty"`
}

func toAppointmentDoc(a appointments.Appointment) appointmentDoc {
	return appointmentDoc{
		ID:           a.ID,
		PatientID:    a.PatientID,
		Date:         dates.Day(a.Date),
		Time:         a.Time,
		Type:         string(a.Type),
		Veterinarian: a.Veterinarian,
		Status:       string(a.Status),
		Notes:        a.Notes,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func (row appointmentRow) toDomain() appointments.Appointment {
	d := row.Appointment
	a := appointments.Appointment{
		ID:           d.ID,
		PatientID:    d.PatientID,
		Date:         d.Date.UTC(),
		Time:         d.Time,
		Type:         visits.Type(d.Type),
		Veterinarian: d.Veterinarian,
		Status:       appointments.Status(d.Status),
		Notes:        d.Notes,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
	if row.Patient != nil {
		a.PatientName = row.Patient.Name
		a.Species = row.Patient.Species
	}
	if row.Owner != nil {
		a.OwnerName = row.Owner.Name
	}
	return a
}

type AppointmentsRepo struct {
	s *Store
}

func NewAppointmentsRepo(s *Store) *AppointmentsRepo {
	return &AppointmentsRepo{s: s}
}

var appointmentsNewest = sortBy("-date", "-time", "-_id")

func (r *AppointmentsRepo) Create(ctx context.Context, a appointments.Appointment) (appointments.Appointment, error) {
	if err := r.checkPatient(ctx, a.PatientID); err != nil {
		return appointments.Appointment{}, err
	}
	id, err := r.s.nextID(ctx, colAppointments)
	if err != nil {
		return appointments.Appointment{}, err
	}
	a.ID = id
	if _, err := r.s.col(colAppointments).InsertOne(ctx, toAppointmentDoc(a)); err != nil {
		return appointments.Appointment{}, translate(err)
	}
	return r.GetByID(ctx, id)
}

func (r *AppointmentsRepo) Update(ctx context.Context, a appointments.Appointment) error {
	if err := r.checkPatient(ctx, a.PatientID); err != nil {
		return err
	}
	return replaceByID(ctx, r.s.col(colAppointments), a.ID, toAppointmentDoc(a))
}

func (r *AppointmentsRepo) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteByID(ctx, r.s.col(colAppointments), id)
}

func (r *AppointmentsRepo) GetByID(ctx context.Context, id int64) (appointments.Appointment, error) {
	out, err := r.aggregate(ctx, byID(id), 0, 1)
	if err != nil {
		return appointments.Appointment{}, err
	}
	if len(out) == 0 {
		return appointments.Appointment{}, storage.ErrNotFound
	}
	return out[0], nil
}

func (r *AppointmentsRepo) List(ctx context.Context) ([]appointments.Appointment, error) {
	return r.aggregate(ctx, bson.D{}, 0, 0)
}

func (r *AppointmentsRepo) ListByPatient(ctx context.Context, patientID int64) ([]appointments.Appointment, error) {
	return r.aggregate(ctx, bson.D{{Key: "patientId", Value: patientID}}, 0, 0)
}

func (r *AppointmentsRepo) ListByDate(ctx context.Context, day time.Time) ([]appointments.Appointment, error) {
	return r.aggregate(ctx, onDay(day), 0, 0)
}

func (r *AppointmentsRepo) ListByStatus(ctx context.Context, status appointments.Status) ([]appointments.Appointment, error) {
	return r.aggregate(ctx, bson.D{{Key: "status", Value: string(status)}}, 0, 0)
}

func (r *AppointmentsRepo) Search(ctx context.Context, term string) ([]appointments.Appointment, error) {
	return r.aggregate(ctx, anyContains(term, "veterinarian", "type", "notes"), 0, 0)
}

func (r *AppointmentsRepo) Page(ctx context.Context, p pagination.Request) ([]appointments.Appointment, int, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.aggregate(ctx, bson.D{}, p.Offset(), p.Limit)
	return items, total, err
}

func (r *AppointmentsRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, r.s.col(colAppointments), bson.D{})
}

func (r *AppointmentsRepo) CountOnDate(ctx context.Context, day time.Time) (int, error) {
	return count(ctx, r.s.col(colAppointments), onDay(day))
}

func (r *AppointmentsRepo) CountByType(ctx context.Context) ([]stats.Group, error) {
	return countBy(ctx, r.s.col(colAppointments), "type")
}

func (r *AppointmentsRepo) CountByStatus(ctx context.Context) ([]stats.Group, error) {
	return countBy(ctx, r.s.col(colAppointments), "status")
}

// aggregate filtra, ordena y une con paciente y dueño. limit 0 = sin límite.
func (r *AppointmentsRepo) aggregate(ctx context.Context, match bson.D, skip, limit int) ([]appointments.Appointment, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: appointmentsNewest}},
	}
	if skip > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: int64(skip)}})
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(limit)}})
	}
	pipeline = append(pipeline, joinPatientOwner()...)

	rows, err := aggregateAll[appointmentRow](ctx, r.s.col(colAppointments), pipeline)
	if err != nil {
		return nil, err
	}
	out := make([]appointments.Appointment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *AppointmentsRepo) checkPatient(ctx context.Context, id int64) error {
	ok, err := r.s.exists(ctx, colPatients, id)
	if err != nil {
		return err
	}
	if !ok {
		return storage.ErrReference
	}
	return nil
}

func onDay(day time.Time) bson.D {
	d := dates.Day(day)
	return bson.D{{Key: "date", Value: bson.D{
		{Key: "$gte", Value: d},
		{Key: "$lt", Value: d.AddDate(0, 0, 1)},
	}}}
}

var _ appointments.Repository = (*AppointmentsRepo)(nil)
