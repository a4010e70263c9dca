// Package mongostore: store.Store поверх MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"image-recon/internal/store"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger zerolog.Logger

	mu sync.Mutex
	// коллекция -> строковый id -> исходный _id последней прочитанной страницы
	seen map[string]map[string]any
}

// Open подключается и проверяет сервер пингом.
func Open(ctx context.Context, uri, database string, logger zerolog.Logger) (*Store, error) {
	if database == "" {
		return nil, errors.New("mongo database name is empty")
	}
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	logger.Info().Str("database", database).Msg("mongo connected")
	return &Store{client: client, db: client.Database(database), logger: logger}, nil
}

func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *Store) MaxBatch() int { return store.MaxBatch }

// Scan читает страницу по возрастанию _id. Курсор берётся с исходным
// BSON-типом последнего документа прошлой страницы.
func (s *Store) Scan(ctx context.Context, collection, startAfter string, limit int) ([]store.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	var after any
	if startAfter != "" {
		after = s.rawID(collection, startAfter)
	}
	cursor, err := s.db.Collection(collection).Find(ctx, scanFilter(after), opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var out []store.Document
	page := map[string]any{}
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", collection, err)
		}
		raw := doc["_id"]
		d := toDocument(doc)
		page[d.ID] = raw
		out = append(out, d)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor %s: %w", collection, err)
	}
	if len(out) > 0 {
		s.remember(collection, page)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (store.Document, error) {
	var doc bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": s.rawID(collection, id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.Document{}, fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
	}
	if err != nil {
		return store.Document{}, fmt.Errorf("find %s/%s: %w", collection, id, err)
	}
	return toDocument(doc), nil
}

// Commit отправляет упорядоченный bulk из $set. Каждое обновление атомарно
// в своём документе; при сбое возвращается длина применённого префикса.
func (s *Store) Commit(ctx context.Context, collection string, updates []store.Update) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}
	res, err := s.db.Collection(collection).BulkWrite(ctx, s.writeModels(collection, updates), options.BulkWrite().SetOrdered(true))
	if err != nil {
		var bwe mongo.BulkWriteException
		if errors.As(err, &bwe) && len(bwe.WriteErrors) > 0 {
			return bwe.WriteErrors[0].Index, fmt.Errorf("bulk write %s: %w", collection, err)
		}
		return 0, fmt.Errorf("bulk write %s: %w", collection, err)
	}
	if int(res.MatchedCount) < len(updates) {
		s.logger.Warn().
			Str("collection", collection).
			Int64("matched", res.MatchedCount).
			Int("sent", len(updates)).
			Msg("bulk write matched fewer documents than sent")
	}
	return int(res.MatchedCount), nil
}

// Put: upsert документов целиком. Новые id из импорта проходят через idValue.
func (s *Store) Put(ctx context.Context, collection string, docs []store.Document) error {
	if len(docs) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(docs))
	for _, d := range docs {
		body := bson.M{}
		for k, v := range d.Data {
			body[k] = v
		}
		body["_id"] = idValue(d.ID)
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": idValue(d.ID)}).
			SetReplacement(body).
			SetUpsert(true))
	}
	for start := 0; start < len(models); start += store.MaxBatch {
		end := min(start+store.MaxBatch, len(models))
		if _, err := s.db.Collection(collection).BulkWrite(ctx, models[start:end]); err != nil {
			return fmt.Errorf("upsert %s [%d:%d]: %w", collection, start, end, err)
		}
	}
	return nil
}

func (s *Store) writeModels(collection string, updates []store.Update) []mongo.WriteModel {
	models := make([]mongo.WriteModel, 0, len(updates))
	for _, u := range updates {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": s.rawID(collection, u.ID)}).
			SetUpdate(bson.M{"$set": u.Set}))
	}
	return models
}

// remember заменяет запомненные _id коллекции страницей page.
// Driver сбрасывает пачки до следующего Scan, так что одной страницы хватает.
func (s *Store) remember(collection string, page map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen == nil {
		s.seen = make(map[string]map[string]any)
	}
	s.seen[collection] = page
}

// rawID возвращает _id в том BSON-типе, в котором он был прочитан.
// Для незнакомых id остаётся эвристика idValue.
func (s *Store) rawID(collection, id string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.seen[collection][id]; ok {
		return v
	}
	return idValue(id)
}

// Порядок сортировки BSON-типов для _id (массивы в _id запрещены).
var idTypeOrder = []string{
	"minKey", "null", "number", "string", "object", "binData",
	"objectId", "bool", "date", "timestamp", "regex", "maxKey",
}

// scanFilter: $gt сравнивает только значения одного типа, поэтому
// документы с _id более старших типов добираются через $type.
func scanFilter(after any) bson.M {
	if after == nil {
		return bson.M{}
	}
	gt := bson.M{"_id": bson.M{"$gt": after}}
	later := typesAfter(after)
	if len(later) == 0 {
		return gt
	}
	return bson.M{"$or": bson.A{gt, bson.M{"_id": bson.M{"$type": later}}}}
}

func typesAfter(v any) bson.A {
	alias := bsonType(v)
	for i, t := range idTypeOrder {
		if t != alias {
			continue
		}
		out := make(bson.A, 0, len(idTypeOrder)-i-1)
		for _, later := range idTypeOrder[i+1:] {
			out = append(out, later)
		}
		return out
	}
	return nil
}

func bsonType(v any) string {
	switch v.(type) {
	case nil, primitive.Null:
		return "null"
	case int, int32, int64, float64, primitive.Decimal128:
		return "number"
	case string, primitive.Symbol:
		return "string"
	case bson.M, bson.D, map[string]any:
		return "object"
	case primitive.Binary:
		return "binData"
	case primitive.ObjectID:
		return "objectId"
	case bool:
		return "bool"
	case primitive.DateTime, time.Time:
		return "date"
	case primitive.Timestamp:
		return "timestamp"
	case primitive.Regex:
		return "regex"
	default:
		return ""
	}
}

// idValue: 24-символьный hex трактуем как ObjectID, остальное как строковый _id.
func idValue(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

func toDocument(doc bson.M) store.Document {
	id := ""
	switch v := doc["_id"].(type) {
	case string:
		id = v
	case primitive.ObjectID:
		id = v.Hex()
	case nil:
	default:
		id = fmt.Sprint(v)
	}
	delete(doc, "_id")
	data, _ := plain(doc).(map[string]any)
	if data == nil {
		data = map[string]any{}
	}
	return store.Document{ID: id, Data: data}
}

// plain переводит bson-типы в обычные map/slice, чтобы выше по стеку
// не знать о драйвере.
func plain(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plain(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plain(e)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = plain(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	default:
		return v
	}
}
