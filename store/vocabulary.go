package store

import (
	"context"
	"regexp"
	"strings"
)

// ordinalPrefixPattern matches leading ordinal markers such as "1. " that
// scraped word lists carry.
var ordinalPrefixPattern = regexp.MustCompile(`^\d+\.\s*`)

// NormalizeWord canonicalizes raw word text: ordinal prefix stripped,
// trimmed, lower-cased. (user_id, normalized word) is unique in the store.
func NormalizeWord(raw string) string {
	cleaned := ordinalPrefixPattern.ReplaceAllString(strings.TrimSpace(raw), "")
	return strings.ToLower(strings.TrimSpace(cleaned))
}

// Vocabulary is the object representing a vocabulary entry.
type Vocabulary struct {
	ID              int32
	UID             string
	UserID          string
	Word            string
	POS             string
	DefinitionCN    string
	DefinitionEN    string
	Example         string
	Pronunciation   string
	DifficultyLevel string
	Frequency       int32
	SourceURL       string
	SourceArticleID *int32
	CreatedTs       int64
	UpdatedTs       int64
}

// HasExample reports whether the entry carries a non-empty example
// sentence, the eligibility requirement for sentence review.
func (v *Vocabulary) HasExample() bool {
	return strings.TrimSpace(v.Example) != ""
}

// FindVocabulary is the find condition for vocabulary entries.
type FindVocabulary struct {
	ID     *int32
	UID    *string
	UserID *string
	Word   *string

	// Search matches word and definitions by substring.
	Search *string
	// DifficultyLevel filters by CEFR tag.
	DifficultyLevel *string
	// HasExample keeps only entries with a non-empty example sentence.
	HasExample *bool

	// SortBy is one of "created_ts", "updated_ts", "word", "frequency".
	SortBy string
	// SortOrder is "asc" or "desc" (default).
	SortOrder string

	// Pagination
	Limit  *int
	Offset *int
}

// UpdateVocabulary is the update request for a vocabulary entry.
type UpdateVocabulary struct {
	ID              int32
	POS             *string
	DefinitionCN    *string
	DefinitionEN    *string
	Example         *string
	Pronunciation   *string
	DifficultyLevel *string
	Frequency       *int32
	SourceURL       *string
	SourceArticleID *int32
	UpdatedTs       *int64
}

// DeleteVocabulary is the delete request for a vocabulary entry. Deleting an
// entry also deletes its learning records.
type DeleteVocabulary struct {
	ID     int32
	UserID string
}

// VocabularyStats summarizes a user's vocabulary store.
type VocabularyStats struct {
	TotalCount             int
	RecentCount            int // added within the last 7 days
	DifficultyDistribution map[string]int
}

// CreateVocabulary creates a new vocabulary entry.
func (s *Store) CreateVocabulary(ctx context.Context, create *Vocabulary) (*Vocabulary, error) {
	vocabulary, err := s.driver.CreateVocabulary(ctx, create)
	if err != nil {
		return nil, err
	}
	s.vocabularyCache.Set(ctx, vocabularyCacheKey(vocabulary.ID), vocabulary)
	return vocabulary, nil
}

// ListVocabularies lists vocabulary entries with filter.
func (s *Store) ListVocabularies(ctx context.Context, find *FindVocabulary) ([]*Vocabulary, error) {
	return s.driver.ListVocabularies(ctx, find)
}

// GetVocabulary gets a single vocabulary entry, or nil when none matches.
func (s *Store) GetVocabulary(ctx context.Context, find *FindVocabulary) (*Vocabulary, error) {
	if find.ID != nil && find.UID == nil && find.UserID == nil && find.Word == nil {
		if value, ok := s.vocabularyCache.Get(ctx, vocabularyCacheKey(*find.ID)); ok {
			if vocabulary, ok := value.(*Vocabulary); ok {
				return vocabulary, nil
			}
		}
	}

	list, err := s.driver.ListVocabularies(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	vocabulary := list[0]
	s.vocabularyCache.Set(ctx, vocabularyCacheKey(vocabulary.ID), vocabulary)
	return vocabulary, nil
}

// UpdateVocabulary updates a vocabulary entry.
func (s *Store) UpdateVocabulary(ctx context.Context, update *UpdateVocabulary) error {
	if err := s.driver.UpdateVocabulary(ctx, update); err != nil {
		return err
	}
	s.vocabularyCache.Delete(ctx, vocabularyCacheKey(update.ID))
	return nil
}

// DeleteVocabulary deletes a vocabulary entry and its learning records.
func (s *Store) DeleteVocabulary(ctx context.Context, delete *DeleteVocabulary) error {
	if err := s.driver.DeleteVocabulary(ctx, delete); err != nil {
		return err
	}
	s.vocabularyCache.Delete(ctx, vocabularyCacheKey(delete.ID))
	return nil
}

// GetVocabularyStats summarizes the user's vocabulary store.
func (s *Store) GetVocabularyStats(ctx context.Context, userID string) (*VocabularyStats, error) {
	return s.driver.GetVocabularyStats(ctx, userID)
}
