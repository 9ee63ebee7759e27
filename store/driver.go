package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// InstanceSetting model related methods.
	UpsertInstanceSetting(ctx context.Context, upsert *InstanceSetting) (*InstanceSetting, error)
	GetInstanceSetting(ctx context.Context, name string) (*InstanceSetting, error)

	// Vocabulary model related methods.
	CreateVocabulary(ctx context.Context, create *Vocabulary) (*Vocabulary, error)
	ListVocabularies(ctx context.Context, find *FindVocabulary) ([]*Vocabulary, error)
	UpdateVocabulary(ctx context.Context, update *UpdateVocabulary) error
	DeleteVocabulary(ctx context.Context, delete *DeleteVocabulary) error
	GetVocabularyStats(ctx context.Context, userID string) (*VocabularyStats, error)

	// LearningRecord model related methods. Records are append-only, so
	// there is intentionally no update or delete.
	CreateLearningRecord(ctx context.Context, create *LearningRecord) (*LearningRecord, error)
	ListLearningRecords(ctx context.Context, find *FindLearningRecord) ([]*LearningRecord, error)

	// ListReviewCandidates returns eligible (example-bearing) vocabulary
	// entries of the user with grouped sentence-review aggregates.
	ListReviewCandidates(ctx context.Context, userID string) ([]*ReviewCandidate, error)

	// GetSentenceReviewStats summarizes sentence-review activity over the
	// trailing periodDays.
	GetSentenceReviewStats(ctx context.Context, userID string, periodDays int) (*SentenceReviewStats, error)

	// ListRecentSentenceReviews returns sentence-review records joined with
	// their word text, newest first.
	ListRecentSentenceReviews(ctx context.Context, userID string, limit int) ([]*RecentSentenceReview, error)
}
