package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SQLStore keeps each collection as a Postgres table with the record id as
// the primary key and the full record in a jsonb column. Queries go through
// database/sql so the driver stays swappable, but the DDL is Postgres.
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

// CreateTables provisions the collection tables when they do not exist yet.
func (s *SQLStore) CreateTables() error {
	for _, table := range []string{CollectionPosts, CollectionPages, configCollection} {
		query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			doc JSONB NOT NULL
		)`, table)
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	return nil
}

func (s *SQLStore) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func (s *SQLStore) Create(collection string, fields Record) (Record, error) {
	now := s.timestamp()
	record := Record{}
	for k, v := range fields {
		record[k] = v
	}
	record[FieldID] = NewID()
	record[FieldCreatedAt] = now
	record[FieldUpdatedAt] = now

	doc, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("INSERT INTO %s (id, doc) VALUES ($1, $2)", collection)
	if _, err := s.db.Exec(query, record[FieldID], doc); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *SQLStore) FindAll(collection string, sortBy SortField) ([]Record, error) {
	query := fmt.Sprintf("SELECT doc FROM %s", collection)
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var record Record
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if records == nil {
		records = []Record{}
	}
	if sortBy.Field != "" {
		sortRecords(records, sortBy)
	}
	return records, nil
}

func (s *SQLStore) FindBy(collection, field string, value string) (Record, error) {
	var query string
	if field == FieldID {
		query = fmt.Sprintf("SELECT doc FROM %s WHERE id = $1", collection)
	} else {
		query = fmt.Sprintf("SELECT doc FROM %s WHERE doc->>'%s' = $1 LIMIT 1", collection, field)
	}

	var raw []byte
	err := s.db.QueryRow(query, value).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *SQLStore) Update(collection, id string, patch Record) (Record, error) {
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

	doc, err := json.Marshal(updated)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("UPDATE %s SET doc = $1 WHERE id = $2", collection)
	result, err := s.db.Exec(query, doc, id)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, nil
	}
	return updated, nil
}

func (s *SQLStore) Delete(collection, id string) (bool, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", collection)
	result, err := s.db.Exec(query, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

const sqlConfigID = "config"

func (s *SQLStore) GetConfig() (Record, error) {
	var raw []byte
	query := fmt.Sprintf("SELECT doc FROM %s WHERE id = $1", configCollection)
	err := s.db.QueryRow(query, sqlConfigID).Scan(&raw)
	if err == sql.ErrNoRows {
		return Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	var config Record
	if err := json.Unmarshal(raw, &config); err != nil {
		return nil, err
	}
	return config, nil
}

func (s *SQLStore) UpdateConfig(patch Record) (Record, error) {
	config, err := s.GetConfig()
	if err != nil {
		return nil, err
	}
	for k, v := range patch {
		config[k] = v
	}
	config["lastUpdated"] = s.timestamp()

	doc, err := json.Marshal(config)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET doc = $2`, configCollection)
	if _, err := s.db.Exec(query, sqlConfigID, doc); err != nil {
		return nil, err
	}
	return config, nil
}

func (s *SQLStore) Export() (Dump, error) {
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

func (s *SQLStore) Import(dump Dump) error {
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

func (s *SQLStore) replaceCollection(collection string, records []Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s", collection)); err != nil {
		return err
	}
	insert := fmt.Sprintf("INSERT INTO %s (id, doc) VALUES ($1, $2)", collection)
	for _, record := range records {
		id := fieldString(record, FieldID)
		if id == "" {
			return fmt.Errorf("imported %s record is missing an id", collection)
		}
		doc, err := json.Marshal(record)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(insert, id, doc); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) Stats() (Counts, error) {
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
