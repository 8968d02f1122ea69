package service

import (
	"github.com/klass-lk/blogboot/internal/server"
	"github.com/klass-lk/blogboot/internal/store"
)

// SiteService covers pages, site configuration and the admin maintenance
// operations.
type SiteService struct {
	store store.DocumentStore
}

func NewSiteService(documents store.DocumentStore) *SiteService {
	return &SiteService{store: documents}
}

// UpsertPage creates or replaces the page identified by its slug.
func (s *SiteService) UpsertPage(fields store.Record) (store.Record, error) {
	cleaned := stripEmpty(fields)
	pageSlug, _ := cleaned["slug"].(string)

	existing, err := s.store.FindBy(store.CollectionPages, "slug", pageSlug)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return s.store.Create(store.CollectionPages, cleaned)
	}
	id, _ := existing[store.FieldID].(string)
	return s.store.Update(store.CollectionPages, id, cleaned)
}

func (s *SiteService) ListPages() ([]store.Record, error) {
	return s.store.FindAll(store.CollectionPages, store.SortField{})
}

func (s *SiteService) GetPage(pageSlug string) (store.Record, error) {
	record, err := s.store.FindBy(store.CollectionPages, "slug", pageSlug)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, server.NotFound("Page")
	}
	return record, nil
}

func (s *SiteService) GetConfig() (store.Record, error) {
	return s.store.GetConfig()
}

func (s *SiteService) UpdateConfig(patch store.Record) (store.Record, error) {
	return s.store.UpdateConfig(stripEmpty(patch))
}

func (s *SiteService) Export() (store.Dump, error) {
	return s.store.Export()
}

func (s *SiteService) Import(dump store.Dump) error {
	return s.store.Import(dump)
}

func (s *SiteService) Stats() (store.Counts, error) {
	return s.store.Stats()
}
