package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vet-clinic/internal/domain/clients"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/stats"
	"vet-clinic/internal/ports/storage"
)

type clientDoc struct {
	ID               int64     `bson:"_id"`
	Name             string    `bson:"name"`
	Email            string    `bson:"email"`
	Phone            string    `bson:"phone"`
	Address          string    `bson:"address"`
	City             string    `bson:"city"`
	Status           string    `bson:"status"`
	RegistrationDate time.Time `bson:"registrationDate"`
}

func toClientDoc(c clients.Client) clientDoc {
	return clientDoc{
		ID:               c.ID,
		Name:             c.Name,
		Email:            c.Email,
		Phone:            c.Phone,
		Address:          c.Address,
		City:             c.City,
		Status:           string(c.Status),
		RegistrationDate: c.RegistrationDate,
	}
}

func (d clientDoc) toDomain() clients.Client {
	return clients.Client{
		ID:               d.ID,
		Name:             d.Name,
		Email:            d.Email,
		Phone:            d.Phone,
		Address:          d.Address,
		City:             d.City,
		Status:           clients.Status(d.Status),
		RegistrationDate: d.RegistrationDate.UTC(),
	}
}

type ClientsRepo struct {
	s *Store
}

func NewClientsRepo(s *Store) *ClientsRepo {
	return &ClientsRepo{s: s}
}

var clientsNewest = sortBy("-registrationDate", "-_id")

func (r *ClientsRepo) Create(ctx context.Context, c clients.Client) (clients.Client, error) {
	if c.ID == 0 {
		id, err := r.s.nextID(ctx, colClients)
		if err != nil {
			return clients.Client{}, err
		}
		c.ID = id
	} else if err := r.s.bump(ctx, colClients, c.ID); err != nil {
		return clients.Client{}, err
	}

	if _, err := r.s.col(colClients).InsertOne(ctx, toClientDoc(c)); err != nil {
		return clients.Client{}, translate(err)
	}
	return c, nil
}

func (r *ClientsRepo) Update(ctx context.Context, c clients.Client) error {
	return replaceByID(ctx, r.s.col(colClients), c.ID, toClientDoc(c))
}

// Delete borra en cascada pacientes e historial.
func (r *ClientsRepo) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := r.s.WithinTx(ctx, func(ctx context.Context) error {
		owned, err := findAll[struct {
			ID int64 `bson:"_id"`
		}](ctx, r.s.col(colPatients), bson.D{{Key: "ownerId", Value: id}}, options.Find().SetProjection(bson.D{{Key: "_id", Value: 1}}))
		if err != nil {
			return err
		}
		ids := make([]int64, 0, len(owned))
		for _, p := range owned {
			ids = append(ids, p.ID)
		}
		if err := r.s.deletePatients(ctx, ids); err != nil {
			return err
		}
		deleted, err = deleteByID(ctx, r.s.col(colClients), id)
		return err
	})
	return deleted, err
}

func (r *ClientsRepo) GetByID(ctx context.Context, id int64) (clients.Client, error) {
	return r.findOne(ctx, byID(id))
}

func (r *ClientsRepo) GetByEmail(ctx context.Context, email string) (clients.Client, error) {
	return r.findOne(ctx, equalFold("email", email))
}

func (r *ClientsRepo) List(ctx context.Context) ([]clients.Client, error) {
	return r.find(ctx, bson.D{}, options.Find().SetSort(clientsNewest))
}

func (r *ClientsRepo) Search(ctx context.Context, term string) ([]clients.Client, error) {
	return r.find(ctx, anyContains(term, "name", "email", "phone"), byNameFold("name"))
}

func (r *ClientsRepo) Page(ctx context.Context, p pagination.Request) ([]clients.Client, int, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.find(ctx, bson.D{}, pageOpts(p.Offset(), p.Limit, clientsNewest))
	return items, total, err
}

func (r *ClientsRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, r.s.col(colClients), bson.D{})
}

func (r *ClientsRepo) CountByStatus(ctx context.Context) ([]stats.Group, error) {
	return countBy(ctx, r.s.col(colClients), "status")
}

func (r *ClientsRepo) findOne(ctx context.Context, filter any) (clients.Client, error) {
	var d clientDoc
	if err := r.s.col(colClients).FindOne(ctx, filter).Decode(&d); err != nil {
		return clients.Client{}, translate(err)
	}
	return d.toDomain(), nil
}

func (r *ClientsRepo) find(ctx context.Context, filter any, opts *options.FindOptions) ([]clients.Client, error) {
	docs, err := findAll[clientDoc](ctx, r.s.col(colClients), filter, opts)
	if err != nil {
		return nil, err
	}
	out := make([]clients.Client, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

var _ clients.Repository = (*ClientsRepo)(nil)
var _ storage.Transactor = (*Store)(nil)
