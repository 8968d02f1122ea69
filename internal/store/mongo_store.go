package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps each collection in MongoDB, one document per record with
// the record id mirrored into _id. This is the hosted-database deployment;
// the on-wire record shape is identical to the JSON file store's.
type MongoStore struct {
	db  *mongo.Database
	now func() time.Time
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db, now: time.Now}
}

func (s *MongoStore) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func (s *MongoStore) Create(collection string, fields Record) (Record, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	now := s.timestamp()
	record := Record{}
	for k, v := range fields {
		record[k] = v
	}
	record[FieldID] = NewID()
	record[FieldCreatedAt] = now
	record[FieldUpdatedAt] = now

	doc := bson.M{"_id": record[FieldID]}
	for k, v := range record {
		doc[k] = v
	}
	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *MongoStore) FindAll(collection string, sortBy SortField) ([]Record, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := s.db.Collection(collection).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, fromMongoDoc(doc))
	}
	// Date-like fields are stored as strings, so ordering happens here
	// rather than in the query.
	if sortBy.Field != "" {
		sortRecords(records, sortBy)
	}
	return records, nil
}

func (s *MongoStore) FindBy(collection, field string, value string) (Record, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if field == FieldID {
		field = "_id"
	}
	var doc bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{field: value}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return fromMongoDoc(doc), nil
}

func (s *MongoStore) Update(collection, id string, patch Record) (Record, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	existing, err := s.FindBy(collection, FieldID, id)
	if err != nil || existing == nil {
		return nil, err
	}

	updated := Record{}
	for k, v := range existing {
		updated[k] = v
	}
	for k, v := range patch {
		updated[k] = v
	}
	updated[FieldID] = existing[FieldID]
	updated[FieldCreatedAt] = existing[FieldCreatedAt]
	updated[FieldUpdatedAt] = s.timestamp()

	doc := bson.M{"_id": id}
	for k, v := range updated {
		doc[k] = v
	}
	result, err := s.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, nil
	}
	return updated, nil
}

func (s *MongoStore) Delete(collection, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}

const mongoConfigID = "config"

func (s *MongoStore) GetConfig() (Record, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var doc bson.M
	err := s.db.Collection(configCollection).FindOne(ctx, bson.M{"_id": mongoConfigID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	record := fromMongoDoc(doc)
	delete(record, FieldID)
	return record, nil
}

func (s *MongoStore) UpdateConfig(patch Record) (Record, error) {
	config, err := s.GetConfig()
	if err != nil {
		return nil, err
	}
	for k, v := range patch {
		config[k] = v
	}
	config["lastUpdated"] = s.timestamp()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	doc := bson.M{"_id": mongoConfigID}
	for k, v := range config {
		doc[k] = v
	}
	_, err = s.db.Collection(configCollection).ReplaceOne(ctx,
		bson.M{"_id": mongoConfigID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return nil, err
	}
	return config, nil
}

func (s *MongoStore) Export() (Dump, error) {
	posts, err := s.FindAll(CollectionPosts, SortField{})
	if err != nil {
		return Dump{}, err
	}
	pages, err := s.FindAll(CollectionPages, SortField{})
	if err != nil {
		return Dump{}, err
	}
	config, err := s.GetConfig()
	if err != nil {
		return Dump{}, err
	}
	return Dump{Posts: posts, Pages: pages, Config: config}, nil
}

func (s *MongoStore) Import(dump Dump) error {
	if dump.Posts != nil {
		if err := s.replaceCollection(CollectionPosts, dump.Posts); err != nil {
			return err
		}
	}
	if dump.Pages != nil {
		if err := s.replaceCollection(CollectionPages, dump.Pages); err != nil {
			return err
		}
	}
	if dump.Config != nil {
		if _, err := s.UpdateConfig(dump.Config); err != nil {
			return err
		}
	}
	return nil
}

func (s *MongoStore) replaceCollection(collection string, records []Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	coll := s.db.Collection(collection)
	if _, err := coll.DeleteMany(ctx, bson.M{}); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(records))
	for _, record := range records {
		id := fieldString(record, FieldID)
		if id == "" {
			return fmt.Errorf("imported %s record is missing an id", collection)
		}
		doc := bson.M{"_id": id}
		for k, v := range record {
			doc[k] = v
		}
		docs = append(docs, doc)
	}
	_, err := coll.InsertMany(ctx, docs)
	return err
}

func (s *MongoStore) Stats() (Counts, error) {
	posts, err := s.FindAll(CollectionPosts, SortField{Field: "date", Direction: -1})
	if err != nil {
		return Counts{}, err
	}
	pages, err := s.FindAll(CollectionPages, SortField{})
	if err != nil {
		return Counts{}, err
	}
	counts := Counts{TotalPosts: len(posts), TotalPages: len(pages)}
	if len(posts) > 0 {
		counts.LastPostDate = fieldString(posts[0], "date")
	}
	return counts, nil
}

func fromMongoDoc(doc bson.M) Record {
	record := Record{}
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		record[k] = normalizeBSON(v)
	}
	return record
}

func normalizeBSON(v any) any {
	switch value := v.(type) {
	case bson.M:
		nested := Record{}
		for k, item := range value {
			nested[k] = normalizeBSON(item)
		}
		return nested
	case bson.A:
		items := make([]any, 0, len(value))
		for _, item := range value {
			items = append(items, normalizeBSON(item))
		}
		return items
	default:
		return v
	}
}
