package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vet-clinic/internal/domain/vaccinations"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/ports/storage"
)

type vaccinationDoc struct {
	ID           int64     `bson:"_id"`
	PatientID    int64     `bson:"patientId"`
	Date         time.Time `bson:"date"`
	Vaccine      string    `bson:"vaccine"`
	NextDue      time.Time `bson:"nextDue"`
	Veterinarian string    `bson:"veterinarian"`
	BatchNumber  string    `bson:"batchNumber"`
	Notes        string    `bson:"notes"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func toVaccinationDoc(v vaccinations.Vaccination) vaccinationDoc {
	return vaccinationDoc{
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

func (d vaccinationDoc) toDomain() vaccinations.Vaccination {
	return vaccinations.Vaccination{
		ID:           d.ID,
		PatientID:    d.PatientID,
		Date:         d.Date.UTC(),
		Vaccine:      d.Vaccine,
		NextDue:      d.NextDue.UTC(),
		Veterinarian: d.Veterinarian,
		BatchNumber:  d.BatchNumber,
		Notes:        d.Notes,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

// reminderDoc es el resultado del $lookup con paciente y dueño.
type reminderDoc struct {
	Vaccination vaccinationDoc `bson:",inline"`
	Patient     *patientDoc    `bson:"patient,omitempty"`
	Owner       *clientDoc     `bson:"owner,omitempty"`
}

func (d reminderDoc) toDomain() vaccinations.Reminder {
	rem := vaccinations.Reminder{Vaccination: d.Vaccination.toDomain()}
	if d.Patient != nil {
		rem.PatientName = d.Patient.Name
		rem.Species = d.Patient.Species
	}
	if d.Owner != nil {
		rem.OwnerName = d.Owner.Name
		rem.OwnerPhone = d.Owner.Phone
	}
	return rem
}

type VaccinationsRepo struct {
	s *Store
}

func NewVaccinationsRepo(s *Store) *VaccinationsRepo {
	return &VaccinationsRepo{s: s}
}

var vaccinationsNewest = sortBy("-date", "-_id")

func (r *VaccinationsRepo) Create(ctx context.Context, v vaccinations.Vaccination) (vaccinations.Vaccination, error) {
	if err := r.checkPatient(ctx, v.PatientID); err != nil {
		return vaccinations.Vaccination{}, err
	}
	id, err := r.s.nextID(ctx, colVaccinations)
	if err != nil {
		return vaccinations.Vaccination{}, err
	}
	v.ID = id
	if _, err := r.s.col(colVaccinations).InsertOne(ctx, toVaccinationDoc(v)); err != nil {
		return vaccinations.Vaccination{}, translate(err)
	}
	return v, nil
}

func (r *VaccinationsRepo) Update(ctx context.Context, v vaccinations.Vaccination) error {
	if err := r.checkPatient(ctx, v.PatientID); err != nil {
		return err
	}
	return replaceByID(ctx, r.s.col(colVaccinations), v.ID, toVaccinationDoc(v))
}

func (r *VaccinationsRepo) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteByID(ctx, r.s.col(colVaccinations), id)
}

func (r *VaccinationsRepo) GetByID(ctx context.Context, id int64) (vaccinations.Vaccination, error) {
	var d vaccinationDoc
	if err := r.s.col(colVaccinations).FindOne(ctx, byID(id)).Decode(&d); err != nil {
		return vaccinations.Vaccination{}, translate(err)
	}
	return d.toDomain(), nil
}

func (r *VaccinationsRepo) List(ctx context.Context) ([]vaccinations.Vaccination, error) {
	return r.find(ctx, bson.D{}, options.Find().SetSort(vaccinationsNewest))
}

func (r *VaccinationsRepo) ListByPatient(ctx context.Context, patientID int64) ([]vaccinations.Vaccination, error) {
	return r.find(ctx, bson.D{{Key: "patientId", Value: patientID}}, options.Find().SetSort(vaccinationsNewest))
}

func (r *VaccinationsRepo) Search(ctx context.Context, term string) ([]vaccinations.Vaccination, error) {
	return r.find(ctx, anyContains(term, "vaccine", "veterinarian", "batchNumber"), options.Find().SetSort(vaccinationsNewest))
}

func (r *VaccinationsRepo) Page(ctx context.Context, p pagination.Request) ([]vaccinations.Vaccination, int, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.find(ctx, bson.D{}, pageOpts(p.Offset(), p.Limit, vaccinationsNewest))
	return items, total, err
}

func (r *VaccinationsRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, r.s.col(colVaccinations), bson.D{})
}

func (r *VaccinationsRepo) DueBetween(ctx context.Context, from, to time.Time) ([]vaccinations.Reminder, error) {
	return r.reminders(ctx, bson.D{{Key: "nextDue", Value: bson.D{{Key: "$gte", Value: from}, {Key: "$lt", Value: to}}}})
}

func (r *VaccinationsRepo) DueBefore(ctx context.Context, before time.Time) ([]vaccinations.Reminder, error) {
	return r.reminders(ctx, bson.D{{Key: "nextDue", Value: bson.D{{Key: "$lt", Value: before}}}})
}

func (r *VaccinationsRepo) reminders(ctx context.Context, match bson.D) ([]vaccinations.Reminder, error) {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: match}}}
	pipeline = append(pipeline, joinPatientOwner()...)
	pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sortBy("nextDue", "_id")}})

	docs, err := aggregateAll[reminderDoc](ctx, r.s.col(colVaccinations), pipeline)
	if err != nil {
		return nil, err
	}
	out := make([]vaccinations.Reminder, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *VaccinationsRepo) checkPatient(ctx context.Context, id int64) error {
	ok, err := r.s.exists(ctx, colPatients, id)
	if err != nil {
		return err
	}
	if !ok {
		return storage.ErrReference
	}
	return nil
}

func (r *VaccinationsRepo) find(ctx context.Context, filter any, opts *options.FindOptions) ([]vaccinations.Vaccination, error) {
	docs, err := findAll[vaccinationDoc](ctx, r.s.col(colVaccinations), filter, opts)
	if err != nil {
		return nil, err
	}
	out := make([]vaccinations.Vaccination, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// joinPatientOwner agrega patient y owner al documento (patientId -> ownerId).
func joinPatientOwner() mongo.Pipeline {
	unwind := func(path string) bson.D {
		return bson.D{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: path},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}}
	}
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: colPatients},
			{Key: "localField", Value: "patientId"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "patient"},
		}}},
		unwind("$patient"),
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: colClients},
			{Key: "localField", Value: "patient.ownerId"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "owner"},
		}}},
		unwind("$owner"),
	}
}

var _ vaccinations.Repository = (*VaccinationsRepo)(nil)
