package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vet-clinic/internal/domain/visits"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/ports/storage"
)

type visitDoc struct {
	ID           int64     `bson:"_id"`
	PatientID    int64     `bson:"patientId"`
	Date         time.Time `bson:"date"`
	Type         string    `bson:"type"`
	Veterinarian string    `bson:"veterinarian"`
	Diagnosis    string    `bson:"diagnosis"`
	Treatment    string    `bson:"treatment"`
	Notes        string    `bson:"notes"`
	Cost         float64   `bson:"cost"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func toVisitDoc(v visits.Visit) visitDoc {
	return visitDoc{
		ID:           v.ID,
		PatientID:    v.PatientID,
		Date:         v.Date,
		Type:         string(v.Type),
		Veterinarian: v.Veterinarian,
		Diagnosis:    v.Diagnosis,
		Treatment:    v.Treatment,
		Notes:        v.Notes,
		Cost:         v.Cost,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
}

func (d visitDoc) toDomain() visits.Visit {
	return visits.Visit{
		ID:           d.ID,
		PatientID:    d.PatientID,
		Date:         d.Date.UTC(),
		Type:         visits.Type(d.Type),
		Veterinarian: d.Veterinarian,
		Diagnosis:    d.Diagnosis,
		Treatment:    d.Treatment,
		Notes:        d.Notes,
		Cost:         d.Cost,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

type VisitsRepo struct {
	s *Store
}

func NewVisitsRepo(s *Store) *VisitsRepo {
	return &VisitsRepo{s: s}
}

var visitsNewest = sortBy("-date", "-_id")

func (r *VisitsRepo) Create(ctx context.Context, v visits.Visit) (visits.Visit, error) {
	if err := r.checkPatient(ctx, v.PatientID); err != nil {
		return visits.Visit{}, err
	}
	id, err := r.s.nextID(ctx, colVisits)
	if err != nil {
		return visits.Visit{}, err
	}
	v.ID = id
	if _, err := r.s.col(colVisits).InsertOne(ctx, toVisitDoc(v)); err != nil {
		return visits.Visit{}, translate(err)
	}
	return v, nil
}

func (r *VisitsRepo) Update(ctx context.Context, v visits.Visit) error {
	if err := r.checkPatient(ctx, v.PatientID); err != nil {
		return err
	}
	return replaceByID(ctx, r.s.col(colVisits), v.ID, toVisitDoc(v))
}

func (r *VisitsRepo) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteByID(ctx, r.s.col(colVisits), id)
}

func (r *VisitsRepo) GetByID(ctx context.Context, id int64) (visits.Visit, error) {
	var d visitDoc
	if err := r.s.col(colVisits).FindOne(ctx, byID(id)).Decode(&d); err != nil {
		return visits.Visit{}, translate(err)
	}
	return d.toDomain(), nil
}

func (r *VisitsRepo) List(ctx context.Context) ([]visits.Visit, error) {
	return r.find(ctx, bson.D{}, options.Find().SetSort(visitsNewest))
}

func (r *VisitsRepo) ListByPatient(ctx context.Context, patientID int64) ([]visits.Visit, error) {
	return r.find(ctx, bson.D{{Key: "patientId", Value: patientID}}, options.Find().SetSort(visitsNewest))
}

func (r *VisitsRepo) Search(ctx context.Context, term string) ([]visits.Visit, error) {
	return r.find(ctx, anyContains(term, "diagnosis", "treatment", "veterinarian"), options.Find().SetSort(visitsNewest))
}

func (r *VisitsRepo) Page(ctx context.Context, p pagination.Request) ([]visits.Visit, int, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.find(ctx, bson.D{}, pageOpts(p.Offset(), p.Limit, visitsNewest))
	return items, total, err
}

func (r *VisitsRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, r.s.col(colVisits), bson.D{})
}

func (r *VisitsRepo) StatsByType(ctx context.Context) ([]visits.TypeStat, error) {
	type row struct {
		Type    string  `bson:"_id"`
		Count   int     `bson:"count"`
		Revenue float64 `bson:"revenue"`
	}
	rows, err := aggregateAll[row](ctx, r.s.col(colVisits), mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$type"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$cost"}}},
		}}},
	})
	if err != nil {
		return nil, err
	}
	out := make([]visits.TypeStat, 0, len(rows))
	for _, rw := range rows {
		out = append(out, visits.TypeStat{Type: visits.Type(rw.Type), Count: rw.Count, TotalRevenue: rw.Revenue})
	}
	return out, nil
}

func (r *VisitsRepo) checkPatient(ctx context.Context, id int64) error {
	ok, err := r.s.exists(ctx, colPatients, id)
	if err != nil {
		return err
	}
	if !ok {
		return storage.ErrReference
	}
	return nil
}

func (r *VisitsRepo) find(ctx context.Context, filter any, opts *options.FindOptions) ([]visits.Visit, error) {
	docs, err := findAll[visitDoc](ctx, r.s.col(colVisits), filter, opts)
	if err != nil {
		return nil, err
	}
	out := make([]visits.Visit, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

var _ visits.Repository = (*VisitsRepo)(nil)
