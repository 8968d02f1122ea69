package store

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const configCollection = "config"

// JSONStore persists each collection as a flat JSON file under a data
// directory, with a single-slot `.backup` copy taken before every overwrite.
// A per-collection mutex serializes read-modify-write sequences so two
// concurrent updates cannot lose a write; the file itself is replaced via
// temp file + rename so a crash mid-write never leaves a torn file.
type JSONStore struct {
	dir   string
	locks map[string]*sync.Mutex
	now   func() time.Time
}

func NewJSONStore(dir string) (*JSONStore, error) {
	s := &JSONStore{
		dir: dir,
		locks: map[string]*sync.Mutex{
			CollectionPosts:  {},
			CollectionPages:  {},
			configCollection: {},
		},
		now: time.Now,
	}
	if err := s.ensureDataFiles(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *JSONStore) ensureDataFiles() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", s.dir, err)
	}
	for _, collection := range []string{CollectionPosts, CollectionPages} {
		path := s.filePath(collection)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := s.saveCollection(collection, []Record{}); err != nil {
				return err
			}
		}
	}
	configPath := s.filePath(configCollection)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		initial := Record{
			"siteName":    "blogboot",
			"version":     "1.0.0",
			"lastUpdated": s.timestamp(),
		}
		if err := s.saveFile(configPath, initial); err != nil {
			return err
		}
	}
	return nil
}

func (s *JSONStore) filePath(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

func (s *JSONStore) lock(collection string) *sync.Mutex {
	mu, ok := s.locks[collection]
	if !ok {
		return &sync.Mutex{}
	}
	return mu
}

func (s *JSONStore) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func (s *JSONStore) loadCollection(collection string) ([]Record, error) {
	raw, err := os.ReadFile(s.filePath(collection))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", collection, err)
	}
	var wrapper map[string][]Record
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", collection, err)
	}
	return wrapper[collection], nil
}

func (s *JSONStore) saveCollection(collection string, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	return s.saveFile(s.filePath(collection), map[string][]Record{collection: records})
}

// saveFile copies the live file to its backup slot, then writes the new
// contents to a temp file and renames it over the original.
func (s *JSONStore) saveFile(path string, data any) error {
	if _, err := os.Stat(path); err == nil {
		if err := copyFile(path, path+".backup"); err != nil {
			return fmt.Errorf("failed to back up %s: %w", path, err)
		}
	}

	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func (s *JSONStore) Create(collection string, fields Record) (Record, error) {
	mu := s.lock(collection)
	mu.Lock()
	defer mu.Unlock()

	records, err := s.loadCollection(collection)
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	record := Record{}
	for k, v := range fields {
		record[k] = v
	}
	record[FieldID] = NewID()
	record[FieldCreatedAt] = now
	record[FieldUpdatedAt] = now

	records = append(records, record)
	if err := s.saveCollection(collection, records); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *JSONStore) FindAll(collection string, sortBy SortField) ([]Record, error) {
	mu := s.lock(collection)
	mu.Lock()
	records, err := s.loadCollection(collection)
	mu.Unlock()
	if err != nil {
		return nil, err
	}

	sorted := make([]Record, len(records))
	copy(sorted, records)
	if sortBy.Field != "" {
		sortRecords(sorted, sortBy)
	}
	return sorted, nil
}

func (s *JSONStore) FindBy(collection, field string, value string) (Record, error) {
	mu := s.lock(collection)
	mu.Lock()
	defer mu.Unlock()

	records, err := s.loadCollection(collection)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		if fieldString(record, field) == value {
			return record, nil
		}
	}
	return nil, nil
}

func (s *JSONStore) Update(collection, id string, patch Record) (Record, error) {
	mu := s.lock(collection)
	mu.Lock()
	defer mu.Unlock()

	records, err := s.loadCollection(collection)
	if err != nil {
		return nil, err
	}

	index := -1
	for i, record := range records {
		if fieldString(record, FieldID) == id {
			index = i
			break
		}
	}
	if index == -1 {
		return nil, nil
	}

	existing := records[index]
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

	records[index] = updated
	if err := s.saveCollection(collection, records); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *JSONStore) Delete(collection, id string) (bool, error) {
	mu := s.lock(collection)
	mu.Lock()
	defer mu.Unlock()

	records, err := s.loadCollection(collection)
	if err != nil {
		return false, err
	}

	remaining := records[:0:0]
	for _, record := range records {
		if fieldString(record, FieldID) != id {
			remaining = append(remaining, record)
		}
	}
	if len(remaining) == len(records) {
		return false, nil
	}
	if err := s.saveCollection(collection, remaining); err != nil {
		return false, err
	}
	return true, nil
}

func (s *JSONStore) GetConfig() (Record, error) {
	mu := s.lock(configCollection)
	mu.Lock()
	defer mu.Unlock()
	return s.loadConfig()
}

func (s *JSONStore) loadConfig() (Record, error) {
	raw, err := os.ReadFile(s.filePath(configCollection))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	var config Record
	if err := json.Unmarshal(raw, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return config, nil
}

func (s *JSONStore) UpdateConfig(patch Record) (Record, error) {
	mu := s.lock(configCollection)
	mu.Lock()
	defer mu.Unlock()

	config, err := s.loadConfig()
	if err != nil {
		config = Record{}
	}
	for k, v := range patch {
		config[k] = v
	}
	config["lastUpdated"] = s.timestamp()

	if err := s.saveFile(s.filePath(configCollection), config); err != nil {
		return nil, err
	}
	return config, nil
}

func (s *JSONStore) Export() (Dump, error) {
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

func (s *JSONStore) Import(dump Dump) error {
	if dump.Posts != nil {
		mu := s.lock(CollectionPosts)
		mu.Lock()
		err := s.saveCollection(CollectionPosts, dump.Posts)
		mu.Unlock()
		if err != nil {
			return err
		}
	}
	if dump.Pages != nil {
		mu := s.lock(CollectionPages)
		mu.Lock()
		err := s.saveCollection(CollectionPages, dump.Pages)
		mu.Unlock()
		if err != nil {
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

func (s *JSONStore) Stats() (Counts, error) {
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

func fieldString(record Record, field string) string {
	value, ok := record[field].(string)
	if !ok {
		return ""
	}
	return value
}

// sortRecords orders by a date-like field; unparseable or missing values
// sort as the epoch, matching the tabular service the data came from.
func sortRecords(records []Record, by SortField) {
	sort.SliceStable(records, func(i, j int) bool {
		a := parseDate(fieldString(records[i], by.Field))
		b := parseDate(fieldString(records[j], by.Field))
		if by.Direction < 0 {
			return a.After(b)
		}
		return a.Before(b)
	})
}

func parseDate(value string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
