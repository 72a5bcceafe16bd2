package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vet-clinic/internal/domain/users"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/stats"
)

type userDoc struct {
	ID        int64     `bson:"_id"`
	Nombre    string    `bson:"nombre"`
	Email     string    `bson:"email"`
	Telefono  string    `bson:"telefono"`
	Password  string    `bson:"password"`
	RolID     int       `bson:"rolId"`
	Status    string    `bson:"status"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func toUserDoc(u users.User) userDoc {
	return userDoc{
		ID:        u.ID,
		Nombre:    u.Nombre,
		Email:     u.Email,
		Telefono:  u.Telefono,
		Password:  u.PasswordHash,
		RolID:     int(u.Role),
		Status:    string(u.Status),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (d userDoc) toDomain() users.User {
	return users.User{
		ID:           d.ID,
		Nombre:       d.Nombre,
		Email:        d.Email,
		Telefono:     d.Telefono,
		PasswordHash: d.Password,
		Role:         users.Role(d.RolID),
		Status:       users.Status(d.Status),
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

type UsersRepo struct {
	s *Store
}

func NewUsersRepo(s *Store) *UsersRepo {
	return &UsersRepo{s: s}
}

var usersNewest = sortBy("-createdAt", "-_id")

func (r *UsersRepo) Create(ctx context.Context, u users.User) (users.User, error) {
	id, err := r.s.nextID(ctx, colUsers)
	if err != nil {
		return users.User{}, err
	}
	u.ID = id
	if _, err := r.s.col(colUsers).InsertOne(ctx, toUserDoc(u)); err != nil {
		return users.User{}, translate(err)
	}
	return u, nil
}

func (r *UsersRepo) Update(ctx context.Context, u users.User) error {
	return replaceByID(ctx, r.s.col(colUsers), u.ID, toUserDoc(u))
}

func (r *UsersRepo) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteByID(ctx, r.s.col(colUsers), id)
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (users.User, error) {
	return r.findOne(ctx, byID(id))
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	return r.findOne(ctx, equalFold("email", email))
}

func (r *UsersRepo) List(ctx context.Context) ([]users.User, error) {
	return r.find(ctx, bson.D{}, options.Find().SetSort(usersNewest))
}

func (r *UsersRepo) Search(ctx context.Context, term string) ([]users.User, error) {
	return r.find(ctx, anyContains(term, "nombre"), byNameFold("nombre"))
}

func (r *UsersRepo) Page(ctx context.Context, p pagination.Request) ([]users.User, int, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.find(ctx, bson.D{}, pageOpts(p.Offset(), p.Limit, usersNewest))
	return items, total, err
}

func (r *UsersRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, r.s.col(colUsers), bson.D{})
}

func (r *UsersRepo) CountByRole(ctx context.Context) ([]stats.Group, error) {
	return countBy(ctx, r.s.col(colUsers), "rolId")
}

func (r *UsersRepo) CountByStatus(ctx context.Context) ([]stats.Group, error) {
	return countBy(ctx, r.s.col(colUsers), "status")
}

func (r *UsersRepo) findOne(ctx context.Context, filter any) (users.User, error) {
	var d userDoc
	if err := r.s.col(colUsers).FindOne(ctx, filter).Decode(&d); err != nil {
		return users.User{}, translate(err)
	}
	return d.toDomain(), nil
}

func (r *UsersRepo) find(ctx context.Context, filter any, opts *options.FindOptions) ([]users.User, error) {
	docs, err := findAll[userDoc](ctx, r.s.col(colUsers), filter, opts)
	if err != nil {
		return nil, err
	}
	out := make([]users.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

var _ users.Repository = (*UsersRepo)(nil)
