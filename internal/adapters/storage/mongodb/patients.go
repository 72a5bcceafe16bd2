package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vet-clinic/internal/domain/patients"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/stats"
	"vet-clinic/internal/ports/storage"
)

type patientDoc struct {
	ID        int64      `bson:"_id"`
	Name      string     `bson:"name"`
	Species   string     `bson:"species"`
	Breed     string     `bson:"breed"`
	Age       float64    `bson:"age"`
	Weight    float64    `bson:"weight"`
	Gender    string     `bson:"gender"`
	BirthDate *time.Time `bson:"birthDate,omitempty"`
	OwnerID   int64      `bson:"ownerId"`
	LastVisit *time.Time `bson:"lastVisit,omitempty"`
	NextVisit *time.Time `bson:"nextVisit,omitempty"`
	// omitempty: sin microchip el campo no existe y el índice parcial lo ignora.
	Microchip string    `bson:"microchip,omitempty"`
	Color     string    `bson:"color"`
	Allergies string    `bson:"allergies"`
	Status    string    `bson:"status"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func toPatientDoc(p patients.Patient) patientDoc {
	return patientDoc{
		ID:        p.ID,
		Name:      p.Name,
		Species:   p.Species,
		Breed:     p.Breed,
		Age:       p.Age,
		Weight:    p.Weight,
		Gender:    string(p.Gender),
		BirthDate: p.BirthDate,
		OwnerID:   p.OwnerID,
		LastVisit: p.LastVisit,
		NextVisit: p.NextVisit,
		Microchip: p.Microchip,
		Color:     p.Color,
		Allergies: p.Allergies,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (d patientDoc) toDomain() patients.Patient {
	return patients.Patient{
		ID:        d.ID,
		Name:      d.Name,
		Species:   d.Species,
		Breed:     d.Breed,
		Age:       d.Age,
		Weight:    d.Weight,
		Gender:    patients.Gender(d.Gender),
		BirthDate: utcPtr(d.BirthDate),
		OwnerID:   d.OwnerID,
		LastVisit: utcPtr(d.LastVisit),
		NextVisit: utcPtr(d.NextVisit),
		Microchip: d.Microchip,
		Color:     d.Color,
		Allergies: d.Allergies,
		Status:    patients.Status(d.Status),
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

type PatientsRepo struct {
	s *Store
}

func NewPatientsRepo(s *Store) *PatientsRepo {
	return &PatientsRepo{s: s}
}

var patientsNewest = sortBy("-createdAt", "-_id")

func (r *PatientsRepo) Create(ctx context.Context, p patients.Patient) (patients.Patient, error) {
	if ok, err := r.s.exists(ctx, colClients, p.OwnerID); err != nil {
		return patients.Patient{}, err
	} else if !ok {
		return patients.Patient{}, storage.ErrReference
	}

	id, err := r.s.nextID(ctx, colPatients)
	if err != nil {
		return patients.Patient{}, err
	}
	p.ID = id
	if _, err := r.s.col(colPatients).InsertOne(ctx, toPatientDoc(p)); err != nil {
		return patients.Patient{}, translate(err)
	}
	return p, nil
}

func (r *PatientsRepo) Update(ctx context.Context, p patients.Patient) error {
	if ok, err := r.s.exists(ctx, colClients, p.OwnerID); err != nil {
		return err
	} else if !ok {
		return storage.ErrReference
	}
	return replaceByID(ctx, r.s.col(colPatients), p.ID, toPatientDoc(p))
}

func (r *PatientsRepo) Delete(ctx context.Context, id int64) (bool, error) {
	ok, err := r.s.exists(ctx, colPatients, id)
	if err != nil || !ok {
		return false, err
	}
	err = r.s.WithinTx(ctx, func(ctx context.Context) error {
		return r.s.deletePatients(ctx, []int64{id})
	})
	return err == nil, err
}

func (r *PatientsRepo) GetByID(ctx context.Context, id int64) (patients.Patient, error) {
	return r.findOne(ctx, byID(id))
}

func (r *PatientsRepo) GetByMicrochip(ctx context.Context, microchip string) (patients.Patient, error) {
	if microchip == "" {
		return patients.Patient{}, storage.ErrNotFound
	}
	return r.findOne(ctx, bson.D{{Key: "microchip", Value: microchip}})
}

func (r *PatientsRepo) List(ctx context.Context) ([]patients.Patient, error) {
	return r.find(ctx, bson.D{}, options.Find().SetSort(patientsNewest))
}

func (r *PatientsRepo) ListByOwner(ctx context.Context, ownerID int64) ([]patients.Patient, error) {
	return r.find(ctx, bson.D{{Key: "ownerId", Value: ownerID}}, byNameFold("name"))
}

func (r *PatientsRepo) Search(ctx context.Context, term string) ([]patients.Patient, error) {
	return r.find(ctx, anyContains(term, "name"), byNameFold("name"))
}

func (r *PatientsRepo) Page(ctx context.Context, p pagination.Request) ([]patients.Patient, int, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.find(ctx, bson.D{}, pageOpts(p.Offset(), p.Limit, patientsNewest))
	return items, total, err
}

func (r *PatientsRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, r.s.col(colPatients), bson.D{})
}

func (r *PatientsRepo) CountBySpecies(ctx context.Context) ([]stats.Group, error) {
	return countBy(ctx, r.s.col(colPatients), "species")
}

func (r *PatientsRepo) CountByStatus(ctx context.Context) ([]stats.Group, error) {
	return countBy(ctx, r.s.col(colPatients), "status")
}

func (r *PatientsRepo) SetLastVisit(ctx context.Context, id int64, at time.Time) error {
	res, err := r.s.col(colPatients).UpdateOne(ctx, byID(id), bson.D{{Key: "$set", Value: bson.D{
		{Key: "lastVisit", Value: at},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *PatientsRepo) AdvanceLastVisit(ctx context.Context, id int64, at time.Time) (bool, error) {
	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "lastVisit", Value: bson.D{{Key: "$exists", Value: false}}}},
			bson.D{{Key: "lastVisit", Value: nil}},
			bson.D{{Key: "lastVisit", Value: bson.D{{Key: "$lt", Value: at}}}},
		}},
	}
	res, err := r.s.col(colPatients).UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: bson.D{
		{Key: "lastVisit", Value: at},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}})
	if err != nil {
		return false, err
	}
	if res.MatchedCount > 0 {
		return true, nil
	}
	if ok, err := r.s.exists(ctx, colPatients, id); err != nil {
		return false, err
	} else if !ok {
		return false, storage.ErrNotFound
	}
	return false, nil
}

func (r *PatientsRepo) findOne(ctx context.Context, filter any) (patients.Patient, error) {
	var d patientDoc
	if err := r.s.col(colPatients).FindOne(ctx, filter).Decode(&d); err != nil {
		return patients.Patient{}, translate(err)
	}
	return d.toDomain(), nil
}

func (r *PatientsRepo) find(ctx context.Context, filter any, opts *options.FindOptions) ([]patients.Patient, error) {
	docs, err := findAll[patientDoc](ctx, r.s.col(colPatients), filter, opts)
	if err != nil {
		return nil, err
	}
	out := make([]patients.Patient, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

var _ patients.Repository = (*PatientsRepo)(nil)
