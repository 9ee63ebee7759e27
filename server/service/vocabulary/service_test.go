package vocabulary

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocasense/vocasense/store"
)

// fakeStore is an in-memory Store keyed by vocabulary ID.
type fakeStore struct {
	nextID       int32
	vocabularies map[int32]*store.Vocabulary
	records      []*store.LearningRecord
}

var _ Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:       1,
		vocabularies: map[int32]*store.Vocabulary{},
	}
}

func (f *fakeStore) CreateVocabulary(ctx context.Context, create *store.Vocabulary) (*store.Vocabulary, error) {
	vocabulary := *create
	vocabulary.ID = f.nextID
	vocabulary.CreatedTs = time.Now().Unix()
	vocabulary.UpdatedTs = vocabulary.CreatedTs
	f.nextID++
	f.vocabularies[vocabulary.ID] = &vocabulary
	return &vocabulary, nil
}

func (f *fakeStore) GetVocabulary(ctx context.Context, find *store.FindVocabulary) (*store.Vocabulary, error) {
	for _, vocabulary := range f.vocabularies {
		if find.ID != nil && vocabulary.ID != *find.ID {
			continue
		}
		if find.UserID != nil && vocabulary.UserID != *find.UserID {
			continue
		}
		if find.Word != nil && vocabulary.Word != *find.Word {
			continue
		}
		return vocabulary, nil
	}
	return nil, nil
}

func (f *fakeStore) ListVocabularies(ctx context.Context, find *store.FindVocabulary) ([]*store.Vocabulary, error) {
	list := []*store.Vocabulary{}
	for _, vocabulary := range f.vocabularies {
		if find.UserID != nil && vocabulary.UserID != *find.UserID {
			continue
		}
		if find.DifficultyLevel != nil && vocabulary.DifficultyLevel != *find.DifficultyLevel {
			continue
		}
		list = append(list, vocabulary)
	}
	return list, nil
}

func (f *fakeStore) UpdateVocabulary(ctx context.Context, update *store.UpdateVocabulary) error {
	vocabulary, ok := f.vocabularies[update.ID]
	if !ok {
		return errors.New("not found")
	}
	if update.POS != nil {
		vocabulary.POS = *update.POS
	}
	if update.DefinitionCN != nil {
		vocabulary.DefinitionCN = *update.DefinitionCN
	}
	if update.Example != nil {
		vocabulary.Example = *update.Example
	}
	if update.Frequency != nil {
		vocabulary.Frequency = *update.Frequency
	}
	if update.UpdatedTs != nil {
		vocabulary.UpdatedTs = *update.UpdatedTs
	}
	return nil
}

func (f *fakeStore) DeleteVocabulary(ctx context.Context, del *store.DeleteVocabulary) error {
	if _, ok := f.vocabularies[del.ID]; !ok {
		return errors.New("not found")
	}
	remaining := f.records[:0]
	for _, record := range f.records {
		if record.VocabularyID != del.ID {
			remaining = append(remaining, record)
		}
	}
	f.records = remaining
	delete(f.vocabularies, del.ID)
	return nil
}

func (f *fakeStore) GetVocabularyStats(ctx context.Context, userID string) (*store.VocabularyStats, error) {
	stats := store.VocabularyStats{DifficultyDistribution: map[string]int{}}
	for _, vocabulary := range f.vocabularies {
		if vocabulary.UserID != userID {
			continue
		}
		stats.TotalCount++
		if vocabulary.DifficultyLevel != "" {
			stats.DifficultyDistribution[vocabulary.DifficultyLevel]++
		}
	}
	return &stats, nil
}

func (f *fakeStore) CreateLearningRecord(ctx context.Context, create *store.LearningRecord) (*store.LearningRecord, error) {
	record := *create
	record.ID = int32(len(f.records) + 1)
	record.CreatedTs = time.Now().Unix()
	f.records = append(f.records, &record)
	return &record, nil
}

func (f *fakeStore) ListLearningRecords(ctx context.Context, find *store.FindLearningRecord) ([]*store.LearningRecord, error) {
	list := []*store.LearningRecord{}
	for i := len(f.records) - 1; i >= 0; i-- {
		record := f.records[i]
		if find.UserID != nil && record.UserID != *find.UserID {
			continue
		}
		if find.VocabularyID != nil && record.VocabularyID != *find.VocabularyID {
			continue
		}
		list = append(list, record)
		if find.Limit != nil && len(list) >= *find.Limit {
			break
		}
	}
	return list, nil
}

func TestUpsert_CreatesWithNormalizedWord(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := NewService(f)

	result, err := svc.Upsert(ctx, "alice", &UpsertRequest{
		Word:         "3. Sophisticated  ",
		POS:          "adj.",
		DefinitionCN: "复杂的",
	})
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, "sophisticated", result.Vocabulary.Word)
	assert.Equal(t, int32(1), result.Vocabulary.Frequency)
	assert.NotEmpty(t, result.Vocabulary.UID)

	// Adding a word records a view action.
	require.Len(t, f.records, 1)
	assert.Equal(t, store.ActionTypeView, f.records[0].ActionType)
}

func TestUpsert_MergesExistingAndBumpsFrequency(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := NewService(f)

	first, err := svc.Upsert(ctx, "alice", &UpsertRequest{Word: "resilient", POS: "adj."})
	require.NoError(t, err)

	second, err := svc.Upsert(ctx, "alice", &UpsertRequest{
		Word:         "Resilient",
		DefinitionCN: "有弹性的",
	})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Vocabulary.ID, second.Vocabulary.ID)
	assert.Equal(t, int32(2), second.Vocabulary.Frequency)
	assert.Equal(t, "有弹性的", second.Vocabulary.DefinitionCN)
	// Empty request fields do not clobber existing values.
	assert.Equal(t, "adj.", second.Vocabulary.POS)
}

func TestUpsert_RejectsEmptyWord(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeStore())

	_, err := svc.Upsert(ctx, "alice", &UpsertRequest{Word: "  12.  "})
	assert.ErrorIs(t, err, ErrInvalidEntry)
}

func TestUpsert_ScopedByUser(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := NewService(f)

	a, err := svc.Upsert(ctx, "alice", &UpsertRequest{Word: "scrutiny"})
	require.NoError(t, err)
	b, err := svc.Upsert(ctx, "bob", &UpsertRequest{Word: "scrutiny"})
	require.NoError(t, err)

	assert.True(t, a.Created)
	assert.True(t, b.Created)
	assert.NotEqual(t, a.Vocabulary.ID, b.Vocabulary.ID)
}

func TestUpsertBatch(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := NewService(f)

	_, err := svc.Upsert(ctx, "alice", &UpsertRequest{Word: "mitigate"})
	require.NoError(t, err)

	result, err := svc.UpsertBatch(ctx, "alice", []*UpsertRequest{
		{Word: "ubiquitous"},
		{Word: "mitigate", DefinitionCN: "减轻"},
		{Word: ""},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, result.Entries, 2)
}

func TestGet_WithHistory(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := NewService(f)

	created, err := svc.Upsert(ctx, "alice", &UpsertRequest{Word: "ambiguous"})
	require.NoError(t, err)

	_, err = svc.MarkMastery(ctx, "alice", created.Vocabulary.ID, 4)
	require.NoError(t, err)

	detail, err := svc.Get(ctx, "alice", created.Vocabulary.ID)
	require.NoError(t, err)
	assert.Equal(t, "ambiguous", detail.Vocabulary.Word)
	// Newest first: the master action precedes the initial view.
	require.Len(t, detail.History, 2)
	assert.Equal(t, store.ActionTypeMaster, detail.History[0].ActionType)
	assert.Equal(t, int32(4), detail.History[0].MasteryLevel)
	assert.Equal(t, store.ActionTypeView, detail.History[1].ActionType)
}

func TestGet_NotFound(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeStore())

	_, err := svc.Get(ctx, "alice", 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGet_OtherUsersEntry(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := NewService(f)

	created, err := svc.Upsert(ctx, "alice", &UpsertRequest{Word: "scrutiny"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, "bob", created.Vocabulary.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := NewService(f)

	created, err := svc.Upsert(ctx, "alice", &UpsertRequest{Word: "mitigate"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "alice", created.Vocabulary.ID))
	assert.Empty(t, f.vocabularies)
	assert.Empty(t, f.records)

	assert.ErrorIs(t, svc.Delete(ctx, "alice", created.Vocabulary.ID), ErrNotFound)
}

func TestMarkMastery_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := NewService(f)

	created, err := svc.Upsert(ctx, "alice", &UpsertRequest{Word: "resilient"})
	require.NoError(t, err)

	_, err = svc.MarkMastery(ctx, "alice", created.Vocabulary.ID, 6)
	assert.ErrorIs(t, err, ErrInvalidEntry)

	_, err = svc.MarkMastery(ctx, "alice", 999, 3)
	assert.ErrorIs(t, err, ErrNotFound)

	record, err := svc.MarkMastery(ctx, "alice", created.Vocabulary.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, store.ActionTypeMaster, record.ActionType)
	assert.Equal(t, int32(0), record.MasteryLevel)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := NewService(f)

	_, err := svc.Upsert(ctx, "alice", &UpsertRequest{Word: "sophisticated", DifficultyLevel: "C1"})
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, "alice", &UpsertRequest{Word: "resilient", DifficultyLevel: "B2"})
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, "bob", &UpsertRequest{Word: "scrutiny"})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalCount)
	assert.Equal(t, 1, stats.DifficultyDistribution["C1"])
}

func TestList_DefaultsLimit(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := NewService(f)

	_, err := svc.Upsert(ctx, "alice", &UpsertRequest{Word: "sophisticated"})
	require.NoError(t, err)

	list, err := svc.List(ctx, "alice", &ListRequest{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
