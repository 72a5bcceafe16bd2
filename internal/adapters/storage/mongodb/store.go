package mongodb

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vet-clinic/internal/platform/stats"
	"vet-clinic/internal/ports/storage"
)

const (
	colClients      = "clients"
	colPatients     = "patients"
	colVisits       = "visits"
	colVaccinations = "vaccinations"
	colAppointments = "appointments"
	colUsers        = "users"
	colCounters     = "counters"
)

// Connect abre el cliente y hace ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := c.Ping(pingCtx, nil); err != nil {
		_ = c.Disconnect(context.Background())
		return nil, err
	}
	return c, nil
}

// Store agrupa la base y la config de transacciones. Las transacciones
// requieren replica set; con UseTx=false WithinTx corre fn sin sesión.
type Store struct {
	db    *mongo.Database
	useTx bool
}

func NewStore(db *mongo.Database, useTx bool) *Store {
	return &Store{db: db, useTx: useTx}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.useTx || mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	sess, err := s.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return err
}

// EnsureIndexes crea los índices únicos. Es idempotente.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	type indexSpec struct {
		coll  string
		model mongo.IndexModel
	}
	specs := []indexSpec{
		{colClients, mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("clients_email_key").SetUnique(true),
		}},
		{colPatients, mongo.IndexModel{
			Keys: bson.D{{Key: "microchip", Value: 1}},
			// solo participan los pacientes con microchip
			Options: options.Index().SetName("patients_microchip_key").SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "microchip", Value: bson.D{{Key: "$type", Value: "string"}}}}),
		}},
		{colPatients, mongo.IndexModel{Keys: bson.D{{Key: "ownerId", Value: 1}}}},
		{colVisits, mongo.IndexModel{Keys: bson.D{{Key: "patientId", Value: 1}, {Key: "date", Value: -1}}}},
		{colVaccinations, mongo.IndexModel{Keys: bson.D{{Key: "nextDue", Value: 1}}}},
		{colAppointments, mongo.IndexModel{Keys: bson.D{{Key: "date", Value: -1}, {Key: "time", Value: -1}}}},
		{colUsers, mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("users_email_key").SetUnique(true),
		}},
	}

	for _, sp := range specs {
		if _, err := s.db.Collection(sp.coll).Indexes().CreateOne(ctx, sp.model); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// nextID reserva el próximo id entero de la colección.
func (s *Store) nextID(ctx context.Context, name string) (int64, error) {
	var out struct {
		Seq int64 `bson:"seq"`
	}
	err := s.col(colCounters).FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: name}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: int64(1)}}}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&out)
	return out.Seq, err
}

// bump deja la secuencia en al menos id.
func (s *Store) bump(ctx context.Context, name string, id int64) error {
	_, err := s.col(colCounters).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: name}},
		bson.D{{Key: "$max", Value: bson.D{{Key: "seq", Value: id}}}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *Store) exists(ctx context.Context, coll string, id int64) (bool, error) {
	n, err := s.col(coll).CountDocuments(ctx, byID(id), options.Count().SetLimit(1))
	return n > 0, err
}

// deletePatients borra pacientes y su historial.
func (s *Store) deletePatients(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	in := bson.D{{Key: "$in", Value: ids}}
	for _, coll := range []string{colVisits, colVaccinations, colAppointments} {
		if _, err := s.col(coll).DeleteMany(ctx, bson.D{{Key: "patientId", Value: in}}); err != nil {
			return err
		}
	}
	_, err := s.col(colPatients).DeleteMany(ctx, bson.D{{Key: "_id", Value: in}})
	return err
}

// -------------------------
// helpers
// -------------------------

var uniqueIndexes = map[string]string{
	"clients_email_key":      "email",
	"patients_microchip_key": "microchip",
	"users_email_key":        "email",
	"_id_":                   "id",
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return storage.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		msg := err.Error()
		for index, field := range uniqueIndexes {
			if strings.Contains(msg, "index: "+index+" ") {
				return &storage.DuplicateError{Field: field}
			}
		}
		return &storage.DuplicateError{}
	}
	return err
}

func byID(id int64) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}

// byNameFold ordena por key sin distinguir mayúsculas (collation strength 2).
func byNameFold(key string) *options.FindOptions {
	return options.Find().
		SetSort(sortBy(key, "_id")).
		SetCollation(&options.Collation{Locale: "es", Strength: 2})
}

func sortBy(keys ...string) bson.D {
	d := bson.D{}
	for _, k := range keys {
		dir := 1
		if strings.HasPrefix(k, "-") {
			dir = -1
			k = k[1:]
		}
		d = append(d, bson.E{Key: k, Value: dir})
	}
	return d
}

// anyContains arma un $or case-insensitive sobre los campos.
func anyContains(term string, fields ...string) bson.D {
	re := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
	or := bson.A{}
	for _, f := range fields {
		or = append(or, bson.D{{Key: f, Value: re}})
	}
	return bson.D{{Key: "$or", Value: or}}
}

func equalFold(field, value string) bson.D {
	return bson.D{{Key: field, Value: primitive.Regex{Pattern: "^" + regexp.QuoteMeta(value) + "$", Options: "i"}}}
}

func findAll[D any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]D, error) {
	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]D, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func aggregateAll[D any](ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline) ([]D, error) {
	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	out := make([]D, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type groupRow struct {
	Key   string `bson:"_id"`
	Count int    `bson:"count"`
}

// countBy agrupa por field; la clave siempre sale como texto.
func countBy(ctx context.Context, coll *mongo.Collection, field string) ([]stats.Group, error) {
	rows, err := aggregateAll[groupRow](ctx, coll, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$toString", Value: "$" + field}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return nil, err
	}
	out := make([]stats.Group, 0, len(rows))
	for _, r := range rows {
		out = append(out, stats.Group{Key: r.Key, Count: r.Count})
	}
	return stats.Sort(out), nil
}

func count(ctx context.Context, coll *mongo.Collection, filter any) (int, error) {
	n, err := coll.CountDocuments(ctx, filter)
	return int(n), err
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id int64) (bool, error) {
	res, err := coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func replaceByID(ctx context.Context, coll *mongo.Collection, id int64, doc any) error {
	res, err := coll.ReplaceOne(ctx, byID(id), doc)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func pageOpts(skip, limit int, sort bson.D) *options.FindOptions {
	return options.Find().SetSort(sort).SetSkip(int64(skip)).SetLimit(int64(limit))
}
