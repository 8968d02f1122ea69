package store

// Record is a single schemaless document as it lives in a collection. Field
// values are whatever encoding/json produces for the stored payload.
type Record = map[string]any

const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

const (
	CollectionPosts = "posts"
	CollectionPages = "pages"
)

type SortField struct {
	Field     string `json:"field"`
	Direction int    `json:"direction"`
}

// Counts summarizes a store for the admin stats endpoint.
type Counts struct {
	TotalPosts   int    `json:"totalPosts"`
	TotalPages   int    `json:"totalPages"`
	LastPostDate string `json:"lastPostDate,omitempty"`
}

// Dump is a full export of every collection plus the config document.
type Dump struct {
	Posts  []Record `json:"posts"`
	Pages  []Record `json:"pages"`
	Config Record   `json:"config"`
}

// DocumentStore is the persistence contract the admin API is written
// against. A miss is never an error: lookups return a nil Record and Delete
// reports false when no record matched.
type DocumentStore interface {
	Create(collection string, fields Record) (Record, error)
	FindAll(collection string, sort SortField) ([]Record, error)
	FindBy(collection, field string, value string) (Record, error)
	Update(collection, id string, patch Record) (Record, error)
	Delete(collection, id string) (bool, error)

	GetConfig() (Record, error)
	UpdateConfig(patch Record) (Record, error)

	Export() (Dump, error)
	Import(dump Dump) error
	Stats() (Counts, error)
}
