package review

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/vocasense/vocasense/store"
)

// Store is the narrow read/append surface the review scheduler needs from
// the candidate store.
type Store interface {
	ListReviewCandidates(ctx context.Context, userID string) ([]*store.ReviewCandidate, error)
	GetVocabulary(ctx context.Context, find *store.FindVocabulary) (*store.Vocabulary, error)
	CreateLearningRecord(ctx context.Context, create *store.LearningRecord) (*store.LearningRecord, error)
	GetSentenceReviewStats(ctx context.Context, userID string, periodDays int) (*store.SentenceReviewStats, error)
	ListRecentSentenceReviews(ctx context.Context, userID string, limit int) ([]*store.RecentSentenceReview, error)
}

// Service is the caller-facing surface of the review scheduler.
type Service interface {
	// GetReviewBatch samples up to count words for one session and
	// generates one question per word.
	GetReviewBatch(ctx context.Context, userID string, mode ReviewMode, count, timeLimit int) (*ReviewBatch, error)

	// SubmitReview appends one immutable outcome record.
	SubmitReview(ctx context.Context, userID string, submit *SubmitRequest) (*store.LearningRecord, error)

	// GetStats summarizes the user's sentence-review history.
	GetStats(ctx context.Context, userID string) (*Stats, error)
}

type service struct {
	store  Store
	config Config

	// rng is the injected randomness source for sampling and shuffling;
	// rngMu serializes access since requests run concurrently.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewService creates a review service. rng must not be nil; tests supply a
// fixed-seed source for deterministic sampling.
func NewService(st Store, rng *rand.Rand) Service {
	return NewServiceWithConfig(st, rng, DefaultConfig())
}

// NewServiceWithConfig creates a review service with custom configuration.
func NewServiceWithConfig(st Store, rng *rand.Rand, config Config) Service {
	return &service{
		store:  st,
		config: config,
		rng:    rng,
	}
}

func (s *service) randFloat64() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64()
}

func (s *service) randIntn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

func (s *service) shuffle(n int, swap func(i, j int)) {
	if n < 2 {
		return
	}
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	s.rng.Shuffle(n, swap)
}

func (s *service) GetReviewBatch(ctx context.Context, userID string, mode ReviewMode, count, timeLimit int) (*ReviewBatch, error) {
	if count <= 0 {
		count = s.config.DefaultCount
	}
	if timeLimit <= 0 {
		timeLimit = s.config.DefaultTimeLimit
	}

	selected, err := s.selectWords(ctx, userID, count)
	if err != nil {
		return nil, err
	}

	batchWords := make([]*store.Vocabulary, 0, len(selected))
	for _, candidate := range selected {
		batchWords = append(batchWords, candidate.Vocabulary)
	}

	words := make([]*ReviewWord, 0, len(selected))
	for _, candidate := range selected {
		wordMode := mode
		if wordMode == ModeMixed {
			wordMode = strategyModes[s.randIntn(len(strategyModes))]
		}
		question, usedMode := s.generate(wordMode, candidate.Vocabulary, batchWords)
		if usedMode != wordMode {
			slog.Debug("review strategy fell back",
				"word", candidate.Vocabulary.Word,
				"requested", wordMode,
				"used", usedMode,
			)
		}
		words = append(words, &ReviewWord{
			Vocabulary: candidate.Vocabulary,
			Mode:       usedMode,
			ModeName:   usedMode.Name(),
			Question:   question,
		})
	}

	return &ReviewBatch{
		Words:      words,
		TotalCount: len(words),
		TimeLimit:  timeLimit,
		Mode:       mode,
	}, nil
}

func (s *service) SubmitReview(ctx context.Context, userID string, submit *SubmitRequest) (*store.LearningRecord, error) {
	if submit.VocabularyID <= 0 {
		return nil, errors.Wrap(ErrInvalidSubmission, "vocabulary id is required")
	}
	contextType := submit.ContextType
	switch contextType {
	case ModeFillBlank, ModeChooseWord, ModeTranslate, ModeContextMeaning:
	default:
		return nil, errors.Wrapf(ErrInvalidSubmission, "unknown context type: %q", contextType)
	}

	// Derive sentence mastery from correctness when not supplied.
	var sentenceMastery int32
	if submit.SentenceMastery != nil {
		sentenceMastery = *submit.SentenceMastery
		if sentenceMastery < 0 || sentenceMastery > 5 {
			return nil, errors.Wrapf(ErrInvalidSubmission, "sentence mastery out of range: %d", sentenceMastery)
		}
	} else if submit.IsCorrect {
		sentenceMastery = 3
	} else {
		sentenceMastery = 1
	}

	// Verify the word exists and belongs to the user before writing.
	vocabulary, err := s.store.GetVocabulary(ctx, &store.FindVocabulary{
		ID:     &submit.VocabularyID,
		UserID: &userID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get vocabulary")
	}
	if vocabulary == nil {
		return nil, errors.Wrapf(ErrInvalidSubmission, "vocabulary %d not found", submit.VocabularyID)
	}

	isCorrect := submit.IsCorrect
	contextTypeValue := string(contextType)
	record, err := s.store.CreateLearningRecord(ctx, &store.LearningRecord{
		UserID:          userID,
		VocabularyID:    submit.VocabularyID,
		ActionType:      store.ActionTypeSentenceReview,
		SentenceMastery: &sentenceMastery,
		ContextType:     &contextTypeValue,
		IsCorrect:       &isCorrect,
		ResponseTime:    submit.ResponseTime,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create learning record")
	}
	return record, nil
}

func (s *service) GetStats(ctx context.Context, userID string) (*Stats, error) {
	reviewStats, err := s.store.GetSentenceReviewStats(ctx, userID, s.config.StatsPeriodDays)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sentence review stats")
	}

	recent, err := s.store.ListRecentSentenceReviews(ctx, userID, s.config.RecentReviewsLimit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list recent sentence reviews")
	}

	recentReviews := make([]*RecentReview, 0, len(recent))
	for _, review := range recent {
		recentReviews = append(recentReviews, &RecentReview{
			Word:            review.Word,
			ContextType:     review.ContextType,
			IsCorrect:       review.IsCorrect,
			SentenceMastery: review.SentenceMastery,
			CreatedAt:       time.Unix(review.CreatedTs, 0).UTC(),
		})
	}

	return &Stats{
		SentenceReviews:     reviewStats.TotalReviews,
		ContextDistribution: reviewStats.ContextDistribution,
		AvgSentenceMastery:  reviewStats.AvgSentenceMastery,
		RecentReviews:       recentReviews,
	}, nil
}
