// Package vocabulary implements vocabulary management: upserting entries,
// listing and searching, mastery marking, and per-user statistics.
package vocabulary

import (
	"time"

	"github.com/pkg/errors"

	"github.com/vocasense/vocasense/store"
)

// Errors that can be checked with errors.Is.
var (
	// ErrInvalidEntry is returned when an upsert or mastery request fails
	// validation before any store write.
	ErrInvalidEntry = errors.New("invalid vocabulary entry")
	// ErrNotFound is returned when the entry does not exist or belongs to
	// another user.
	ErrNotFound = errors.New("vocabulary entry not found")
)

// UpsertRequest carries one word into the store. Word is required; the rest
// is merged into an existing entry when present.
type UpsertRequest struct {
	Word            string
	POS             string
	DefinitionCN    string
	DefinitionEN    string
	Example         string
	Pronunciation   string
	DifficultyLevel string
	SourceURL       string
	SourceArticleID *int32
}

// UpsertResult reports whether the word was created or merged into an
// existing entry.
type UpsertResult struct {
	Vocabulary *store.Vocabulary
	Created    bool
}

// BatchResult summarizes a batch upsert. Invalid entries are skipped, not
// fatal.
type BatchResult struct {
	Added   int
	Updated int
	Skipped int
	Entries []*store.Vocabulary
}

// ListRequest filters and pages a vocabulary listing.
type ListRequest struct {
	Search          string
	DifficultyLevel string
	SortBy          string
	SortOrder       string
	Limit           int
	Offset          int
}

// HistoryEntry is one learning action shown on the detail view.
type HistoryEntry struct {
	ActionType      string
	MasteryLevel    int32
	SentenceMastery *int32
	ContextType     *string
	IsCorrect       *bool
	CreatedAt       time.Time
}

// Detail is a vocabulary entry with its recent learning history.
type Detail struct {
	Vocabulary *store.Vocabulary
	History    []*HistoryEntry
}

// Config contains tunables for the vocabulary service.
type Config struct {
	// HistoryLimit caps the learning history on the detail view.
	HistoryLimit int
	// DefaultListLimit pages listings when the caller does not specify.
	DefaultListLimit int
	// MaxListLimit bounds caller-specified page sizes.
	MaxListLimit int
}

// DefaultConfig returns the default vocabulary configuration.
func DefaultConfig() Config {
	return Config{
		HistoryLimit:     10,
		DefaultListLimit: 50,
		MaxListLimit:     200,
	}
}
