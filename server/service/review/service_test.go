package review

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocasense/vocasense/store"
)

// fakeStore is an in-memory Store with append-only learning records.
type fakeStore struct {
	candidates []*store.ReviewCandidate
	records    []*store.LearningRecord
	stats      *store.SentenceReviewStats
	recent     []*store.RecentSentenceReview

	listErr error
}

var _ Store = (*fakeStore)(nil)

func (f *fakeStore) ListReviewCandidates(ctx context.Context, userID string) ([]*store.ReviewCandidate, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.candidates, nil
}

func (f *fakeStore) GetVocabulary(ctx context.Context, find *store.FindVocabulary) (*store.Vocabulary, error) {
	for _, candidate := range f.candidates {
		vocabulary := candidate.Vocabulary
		if find.ID != nil && vocabulary.ID != *find.ID {
			continue
		}
		if find.UserID != nil && vocabulary.UserID != *find.UserID {
			continue
		}
		return vocabulary, nil
	}
	return nil, nil
}

func (f *fakeStore) CreateLearningRecord(ctx context.Context, create *store.LearningRecord) (*store.LearningRecord, error) {
	record := *create
	record.ID = int32(len(f.records) + 1)
	record.CreatedTs = time.Now().Unix()
	f.records = append(f.records, &record)
	return &record, nil
}

func (f *fakeStore) GetSentenceReviewStats(ctx context.Context, userID string, periodDays int) (*store.SentenceReviewStats, error) {
	if f.stats == nil {
		return &store.SentenceReviewStats{ContextDistribution: map[string]int{}}, nil
	}
	return f.stats, nil
}

func (f *fakeStore) ListRecentSentenceReviews(ctx context.Context, userID string, limit int) ([]*store.RecentSentenceReview, error) {
	if len(f.recent) > limit {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func candidateFor(id int32, word, definition, example string) *store.ReviewCandidate {
	return &store.ReviewCandidate{
		Vocabulary: &store.Vocabulary{
			ID:           id,
			UserID:       "alice",
			Word:         word,
			POS:          "adj.",
			DefinitionCN: definition,
			Example:      example,
		},
		AvgSentenceMastery: 2.0,
		ReviewCount:        int(id),
		Accuracy:           0.5,
	}
}

func seededStore(n int) *fakeStore {
	words := []struct{ word, definition, example string }{
		{"sophisticated", "复杂的", "This is a sophisticated system."},
		{"resilient", "有弹性的", "The economy proved resilient."},
		{"scrutiny", "细察", "The deal is under scrutiny."},
		{"mitigate", "减轻", "They tried to mitigate the damage."},
		{"ubiquitous", "无处不在的", "Smartphones are ubiquitous."},
		{"ambiguous", "模棱两可的", "The wording is ambiguous."},
	}
	f := &fakeStore{}
	for i := 0; i < n && i < len(words); i++ {
		w := words[i]
		f.candidates = append(f.candidates, candidateFor(int32(i+1), w.word, w.definition, w.example))
	}
	return f
}

func TestGetReviewBatch_InsufficientCandidates(t *testing.T) {
	ctx := context.Background()
	for _, mode := range []ReviewMode{ModeFillBlank, ModeChooseWord, ModeTranslate, ModeContextMeaning, ModeMixed} {
		t.Run(string(mode), func(t *testing.T) {
			svc := NewService(seededStore(3), rand.New(rand.NewSource(1)))
			batch, err := svc.GetReviewBatch(ctx, "alice", mode, 5, 0)
			assert.Nil(t, batch)
			assert.True(t, errors.Is(err, ErrInsufficientCandidates))
		})
	}
}

func TestGetReviewBatch_RespectsCount(t *testing.T) {
	ctx := context.Background()
	svc := NewService(seededStore(6), rand.New(rand.NewSource(1)))

	batch, err := svc.GetReviewBatch(ctx, "alice", ModeFillBlank, 4, 0)
	require.NoError(t, err)
	assert.Len(t, batch.Words, 4)
	assert.Equal(t, 4, batch.TotalCount)
	assert.Equal(t, DefaultConfig().DefaultTimeLimit, batch.TimeLimit)
}

func TestGetReviewBatch_CountExceedsCandidates(t *testing.T) {
	ctx := context.Background()
	svc := NewService(seededStore(4), rand.New(rand.NewSource(1)))

	batch, err := svc.GetReviewBatch(ctx, "alice", ModeTranslate, 10, 0)
	require.NoError(t, err)
	assert.Len(t, batch.Words, 4)
}

func TestGetReviewBatch_DefaultsCountAndTimeLimit(t *testing.T) {
	ctx := context.Background()
	svc := NewService(seededStore(6), rand.New(rand.NewSource(1)))

	batch, err := svc.GetReviewBatch(ctx, "alice", ModeFillBlank, 0, 0)
	require.NoError(t, err)
	assert.Len(t, batch.Words, 6)
	assert.Equal(t, 600, batch.TimeLimit)
}

func TestGetReviewBatch_MixedAssignsConcreteModes(t *testing.T) {
	ctx := context.Background()
	svc := NewService(seededStore(5), rand.New(rand.NewSource(7)))

	batch, err := svc.GetReviewBatch(ctx, "alice", ModeMixed, 4, 300)
	require.NoError(t, err)
	require.Len(t, batch.Words, 4)
	assert.Equal(t, ModeMixed, batch.Mode)
	assert.Equal(t, 300, batch.TimeLimit)

	for _, word := range batch.Words {
		assert.NotEqual(t, ModeMixed, word.Mode)
		assert.Contains(t, strategyModes, word.Mode)
		assert.NotEmpty(t, word.ModeName)
		require.NotNil(t, word.Question)
	}
}

func TestGetReviewBatch_NoDuplicateWords(t *testing.T) {
	ctx := context.Background()
	svc := NewService(seededStore(6), rand.New(rand.NewSource(3)))

	batch, err := svc.GetReviewBatch(ctx, "alice", ModeChooseWord, 5, 0)
	require.NoError(t, err)
	seen := map[int32]bool{}
	for _, word := range batch.Words {
		assert.Falsef(t, seen[word.Vocabulary.ID], "word %d appears twice", word.Vocabulary.ID)
		seen[word.Vocabulary.ID] = true
	}
}

func TestGetReviewBatch_StoreError(t *testing.T) {
	ctx := context.Background()
	f := seededStore(6)
	f.listErr = errors.New("connection refused")
	svc := NewService(f, rand.New(rand.NewSource(1)))

	_, err := svc.GetReviewBatch(ctx, "alice", ModeFillBlank, 4, 0)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrInsufficientCandidates))
}

func TestSubmitReview_DerivesMasteryFromCorrectness(t *testing.T) {
	ctx := context.Background()
	f := seededStore(6)
	svc := NewService(f, rand.New(rand.NewSource(1)))

	record, err := svc.SubmitReview(ctx, "alice", &SubmitRequest{
		VocabularyID: 1,
		ContextType:  ModeFillBlank,
		IsCorrect:    true,
	})
	require.NoError(t, err)
	require.NotNil(t, record.SentenceMastery)
	assert.Equal(t, int32(3), *record.SentenceMastery)
	assert.Equal(t, store.ActionTypeSentenceReview, record.ActionType)

	record, err = svc.SubmitReview(ctx, "alice", &SubmitRequest{
		VocabularyID: 1,
		ContextType:  ModeFillBlank,
		IsCorrect:    false,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), *record.SentenceMastery)
}

func TestSubmitReview_ExplicitMastery(t *testing.T) {
	ctx := context.Background()
	svc := NewService(seededStore(6), rand.New(rand.NewSource(1)))

	mastery := int32(5)
	record, err := svc.SubmitReview(ctx, "alice", &SubmitRequest{
		VocabularyID:    2,
		ContextType:     ModeTranslate,
		IsCorrect:       true,
		SentenceMastery: &mastery,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(5), *record.SentenceMastery)
}

func TestSubmitReview_Validation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(seededStore(6), rand.New(rand.NewSource(1)))
	outOfRange := int32(6)

	tests := []struct {
		name   string
		submit *SubmitRequest
	}{
		{
			name:   "missing vocabulary id",
			submit: &SubmitRequest{ContextType: ModeFillBlank, IsCorrect: true},
		},
		{
			name:   "unknown context type",
			submit: &SubmitRequest{VocabularyID: 1, ContextType: "listening", IsCorrect: true},
		},
		{
			name:   "mixed is not a concrete context",
			submit: &SubmitRequest{VocabularyID: 1, ContextType: ModeMixed, IsCorrect: true},
		},
		{
			name:   "mastery out of range",
			submit: &SubmitRequest{VocabularyID: 1, ContextType: ModeFillBlank, IsCorrect: true, SentenceMastery: &outOfRange},
		},
		{
			name:   "unknown vocabulary",
			submit: &SubmitRequest{VocabularyID: 999, ContextType: ModeFillBlank, IsCorrect: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitReview(ctx, "alice", tt.submit)
			assert.True(t, errors.Is(err, ErrInvalidSubmission))
		})
	}
}

func TestSubmitReview_AppendOnly(t *testing.T) {
	ctx := context.Background()
	f := seededStore(6)
	svc := NewService(f, rand.New(rand.NewSource(1)))

	for i := 0; i < 3; i++ {
		_, err := svc.SubmitReview(ctx, "alice", &SubmitRequest{
			VocabularyID: 1,
			ContextType:  ModeChooseWord,
			IsCorrect:    i%2 == 0,
		})
		require.NoError(t, err)
	}
	assert.Len(t, f.records, 3)
}

func TestGetStats(t *testing.T) {
	ctx := context.Background()
	f := seededStore(6)
	correct := true
	mastery := int32(3)
	f.stats = &store.SentenceReviewStats{
		TotalReviews:        12,
		ContextDistribution: map[string]int{"fill_blank": 8, "translate": 4},
		AvgSentenceMastery:  2.5,
	}
	f.recent = []*store.RecentSentenceReview{
		{Word: "sophisticated", ContextType: "fill_blank", IsCorrect: &correct, SentenceMastery: &mastery, CreatedTs: 1700000000},
	}
	svc := NewService(f, rand.New(rand.NewSource(1)))

	stats, err := svc.GetStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 12, stats.SentenceReviews)
	assert.Equal(t, 2.5, stats.AvgSentenceMastery)
	assert.Equal(t, 8, stats.ContextDistribution["fill_blank"])
	require.Len(t, stats.RecentReviews, 1)
	assert.Equal(t, "sophisticated", stats.RecentReviews[0].Word)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), stats.RecentReviews[0].CreatedAt)

	// Reads do not mutate history.
	again, err := svc.GetStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, stats.SentenceReviews, again.SentenceReviews)
	assert.Empty(t, f.records)
}

func TestGetStats_EmptyHistory(t *testing.T) {
	ctx := context.Background()
	svc := NewService(seededStore(6), rand.New(rand.NewSource(1)))

	stats, err := svc.GetStats(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, stats.SentenceReviews)
	assert.Empty(t, stats.RecentReviews)
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeMixed, mode)

	mode, err = ParseMode("fill_blank")
	require.NoError(t, err)
	assert.Equal(t, ModeFillBlank, mode)

	_, err = ParseMode("listening")
	assert.Error(t, err)
}
