package store

import (
	"context"
)

// Action types for learning records.
const (
	ActionTypeView           = "view"
	ActionTypeReview         = "review"
	ActionTypeTest           = "test"
	ActionTypeMaster         = "master"
	ActionTypeSentenceReview = "sentence_review"
)

// LearningRecord is one immutable learning action. Records are append-only;
// corrections are modeled as new records, never updates, so the driver
// exposes no update operation for them.
type LearningRecord struct {
	ID           int32
	UserID       string
	VocabularyID int32
	ActionType   string
	// MasteryLevel is the general mastery rating in 0-5.
	MasteryLevel int32
	// SentenceMastery is the context-review mastery rating in 0-5. Only
	// sentence_review records carry one.
	SentenceMastery *int32
	// ContextType identifies which question strategy produced a graded
	// sentence_review record.
	ContextType *string
	// IsCorrect is present only for graded actions.
	IsCorrect *bool
	// ResponseTime is the response latency in milliseconds.
	ResponseTime *int32
	CreatedTs    int64
}

// FindLearningRecord is the find condition for learning records. Results are
// always ordered newest first.
type FindLearningRecord struct {
	UserID         *string
	VocabularyID   *int32
	ActionType     *string
	CreatedTsAfter *int64
	Limit          *int
}

// ReviewCandidate pairs an eligible vocabulary entry with its aggregated
// sentence-review history.
type ReviewCandidate struct {
	Vocabulary *Vocabulary
	// AvgSentenceMastery is 0 when the word has no history.
	AvgSentenceMastery float64
	ReviewCount        int
	// LastReviewTs is nil when the word was never reviewed.
	LastReviewTs *int64
	// Accuracy is the ratio of correct graded attempts, 0.5 when there are
	// no graded attempts.
	Accuracy float64
}

// SentenceReviewStats summarizes sentence-review activity in a window.
type SentenceReviewStats struct {
	TotalReviews        int
	ContextDistribution map[string]int
	AvgSentenceMastery  float64
}

// RecentSentenceReview is a sentence-review record joined with its word
// text, for display.
type RecentSentenceReview struct {
	Word            string
	ContextType     string
	IsCorrect       *bool
	SentenceMastery *int32
	CreatedTs       int64
}

// CreateLearningRecord appends one learning record.
func (s *Store) CreateLearningRecord(ctx context.Context, create *LearningRecord) (*LearningRecord, error) {
	return s.driver.CreateLearningRecord(ctx, create)
}

// ListLearningRecords lists learning records with filter, newest first.
func (s *Store) ListLearningRecords(ctx context.Context, find *FindLearningRecord) ([]*LearningRecord, error) {
	return s.driver.ListLearningRecords(ctx, find)
}

// ListReviewCandidates returns the user's eligible vocabulary entries with
// aggregated sentence-review history.
func (s *Store) ListReviewCandidates(ctx context.Context, userID string) ([]*ReviewCandidate, error) {
	return s.driver.ListReviewCandidates(ctx, userID)
}

// GetSentenceReviewStats summarizes the user's sentence-review activity over
// the trailing periodDays.
func (s *Store) GetSentenceReviewStats(ctx context.Context, userID string, periodDays int) (*SentenceReviewStats, error) {
	return s.driver.GetSentenceReviewStats(ctx, userID, periodDays)
}

// ListRecentSentenceReviews returns the most recent sentence-review records
// joined with their word text, newest first.
func (s *Store) ListRecentSentenceReviews(ctx context.Context, userID string, limit int) ([]*RecentSentenceReview, error) {
	return s.driver.ListRecentSentenceReviews(ctx, userID, limit)
}
