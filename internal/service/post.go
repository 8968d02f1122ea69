package service

import (
	"fmt"

	"github.com/gosimple/slug"

	"github.com/klass-lk/blogboot/internal/server"
	"github.com/klass-lk/blogboot/internal/store"
)

// PostService implements the admin and public post operations on top of a
// DocumentStore.
type PostService struct {
	store store.DocumentStore
}

func NewPostService(documents store.DocumentStore) *PostService {
	return &PostService{store: documents}
}

// stripEmpty drops nil and empty-string fields so they never reach storage.
func stripEmpty(fields store.Record) store.Record {
	cleaned := store.Record{}
	for key, value := range fields {
		if value == nil {
			continue
		}
		if text, ok := value.(string); ok && text == "" {
			continue
		}
		cleaned[key] = value
	}
	return cleaned
}

// uniqueSlug slugifies title and appends a numeric suffix until no other
// post claims the result. excludeID lets an update keep its own slug.
func (s *PostService) uniqueSlug(title, excludeID string) (string, error) {
	base := slug.Make(title)
	candidate := base
	for n := 2; ; n++ {
		existing, err := s.store.FindBy(store.CollectionPosts, "slug", candidate)
		if err != nil {
			return "", err
		}
		if existing == nil || existing[store.FieldID] == excludeID {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

func (s *PostService) Create(fields store.Record) (store.Record, error) {
	cleaned := stripEmpty(fields)
	if title, ok := cleaned["title"].(string); ok {
		postSlug, err := s.uniqueSlug(title, "")
		if err != nil {
			return nil, err
		}
		cleaned["slug"] = postSlug
	}
	return s.store.Create(store.CollectionPosts, cleaned)
}

// List returns every post, newest first.
func (s *PostService) List() ([]store.Record, error) {
	return s.store.FindAll(store.CollectionPosts, store.SortField{Field: "date", Direction: -1})
}

func (s *PostService) Get(id string) (store.Record, error) {
	record, err := s.store.FindBy(store.CollectionPosts, store.FieldID, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, server.NotFound("Post")
	}
	return record, nil
}

// GetBySlug serves the public post page.
func (s *PostService) GetBySlug(postSlug string) (store.Record, error) {
	record, err := s.store.FindBy(store.CollectionPosts, "slug", postSlug)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, server.NotFound("Post")
	}
	return record, nil
}

// Update merges patch into the post. A changed title recomputes the slug.
func (s *PostService) Update(id string, patch store.Record) (store.Record, error) {
	cleaned := stripEmpty(patch)
	if title, ok := cleaned["title"].(string); ok {
		postSlug, err := s.uniqueSlug(title, id)
		if err != nil {
			return nil, err
		}
		cleaned["slug"] = postSlug
	}
	record, err := s.store.Update(store.CollectionPosts, id, cleaned)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, server.NotFound("Post")
	}
	return record, nil
}

func (s *PostService) Delete(id string) error {
	deleted, err := s.store.Delete(store.CollectionPosts, id)
	if err != nil {
		return err
	}
	if !deleted {
		return server.NotFound("Post")
	}
	return nil
}
