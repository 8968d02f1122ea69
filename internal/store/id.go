package store

import gonanoid "github.com/matoous/go-nanoid/v2"

const (
	idPrefix   = "rec"
	idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	idLength   = 14
)

// NewID returns a record identifier in the tabular-service format the data
// was migrated from: a fixed "rec" prefix plus 14 random alphanumerics.
// Practically unique at this scale, not collision-proof.
func NewID() string {
	return idPrefix + gonanoid.MustGenerate(idAlphabet, idLength)
}
