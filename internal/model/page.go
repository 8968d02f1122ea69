package model

import (
	"fmt"

	"github.com/klass-lk/blogboot/internal/store"
)

var pageRules = map[string]string{
	"title":   "max=200",
	"slug":    "max=200",
	"content": "max=100000",
}

var pageRequired = []string{"slug", "content"}

// ValidatePage checks a page body submitted to the upsert endpoint.
func ValidatePage(record store.Record) []FieldError {
	var details []FieldError
	for _, field := range pageRequired {
		if value, ok := record[field].(string); !ok || value == "" {
			details = append(details, FieldError{Field: field, Message: fmt.Sprintf("%s is required", field)})
		}
	}
	for field, rule := range pageRules {
		value, ok := record[field]
		if !ok || value == nil {
			continue
		}
		text, ok := value.(string)
		if !ok {
			details = append(details, FieldError{Field: field, Message: fmt.Sprintf("%s must be a string", field)})
			continue
		}
		if err := validate.Var(text, rule); err != nil {
			details = append(details, FieldError{Field: field, Message: fmt.Sprintf("%s is invalid", field)})
		}
	}
	return details
}
