package model

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/klass-lk/blogboot/internal/store"
)

var validate = validator.New()

// FieldError is one field's validation failure, rendered into the details
// array of a 400 response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// postRules maps post fields to their validation tags. Unknown fields pass
// through untouched so the store keeps its schemaless character.
var postRules = map[string]string{
	"title":           "max=200",
	"subtitle":        "max=300",
	"author":          "max=200",
	"date":            "",
	"content":         "max=100000",
	"excerpt":         "max=1000",
	"tags":            "max=500",
	"imageUrl":        "omitempty,uri,max=2048",
	"metaTitle":       "max=60",
	"metaDescription": "max=160",
}

var postRequired = []string{"title", "author", "date", "content", "excerpt"}

// ValidatePost checks a full post body, as submitted on create.
func ValidatePost(record store.Record) []FieldError {
	var details []FieldError
	for _, field := range postRequired {
		if value, ok := record[field].(string); !ok || value == "" {
			details = append(details, FieldError{Field: field, Message: fmt.Sprintf("%s is required", field)})
		}
	}
	details = append(details, ValidatePostPatch(record)...)
	return details
}

// ValidatePostPatch checks only the fields present, as submitted on update.
func ValidatePostPatch(record store.Record) []FieldError {
	var details []FieldError
	for field, rule := range postRules {
		value, ok := record[field]
		if !ok || value == nil {
			continue
		}
		text, ok := value.(string)
		if !ok {
			details = append(details, FieldError{Field: field, Message: fmt.Sprintf("%s must be a string", field)})
			continue
		}
		if field == "date" {
			if text != "" && !isDate(text) {
				details = append(details, FieldError{Field: field, Message: "date must be an ISO date"})
			}
			continue
		}
		if rule == "" {
			continue
		}
		if err := validate.Var(text, rule); err != nil {
			details = append(details, FieldError{Field: field, Message: fmt.Sprintf("%s is invalid", field)})
		}
	}
	return details
}

func isDate(value string) bool {
	if _, err := time.Parse(time.RFC3339, value); err == nil {
		return true
	}
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}
