package vocabulary

import (
	"context"
	"log/slog"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/vocasense/vocasense/store"
)

// Store is the surface the vocabulary service needs from the store facade.
type Store interface {
	CreateVocabulary(ctx context.Context, create *store.Vocabulary) (*store.Vocabulary, error)
	GetVocabulary(ctx context.Context, find *store.FindVocabulary) (*store.Vocabulary, error)
	ListVocabularies(ctx context.Context, find *store.FindVocabulary) ([]*store.Vocabulary, error)
	UpdateVocabulary(ctx context.Context, update *store.UpdateVocabulary) error
	DeleteVocabulary(ctx context.Context, delete *store.DeleteVocabulary) error
	GetVocabularyStats(ctx context.Context, userID string) (*store.VocabularyStats, error)
	CreateLearningRecord(ctx context.Context, create *store.LearningRecord) (*store.LearningRecord, error)
	ListLearningRecords(ctx context.Context, find *store.FindLearningRecord) ([]*store.LearningRecord, error)
}

// Service is the caller-facing surface of vocabulary management.
type Service interface {
	// Upsert creates the word for the user, or merges the request into the
	// existing entry and bumps its frequency.
	Upsert(ctx context.Context, userID string, req *UpsertRequest) (*UpsertResult, error)

	// UpsertBatch upserts many words; invalid entries are skipped.
	UpsertBatch(ctx context.Context, userID string, reqs []*UpsertRequest) (*BatchResult, error)

	// List pages the user's vocabulary with optional search and filters.
	List(ctx context.Context, userID string, req *ListRequest) ([]*store.Vocabulary, error)

	// Get returns one entry with its recent learning history.
	Get(ctx context.Context, userID string, id int32) (*Detail, error)

	// Delete removes the entry and its learning records.
	Delete(ctx context.Context, userID string, id int32) error

	// MarkMastery appends a master action with the given level.
	MarkMastery(ctx context.Context, userID string, id int32, level int32) (*store.LearningRecord, error)

	// Stats summarizes the user's vocabulary store.
	Stats(ctx context.Context, userID string) (*store.VocabularyStats, error)
}

type service struct {
	store  Store
	config Config
}

// NewService creates a vocabulary service.
func NewService(st Store) Service {
	return NewServiceWithConfig(st, DefaultConfig())
}

// NewServiceWithConfig creates a vocabulary service with custom
// configuration.
func NewServiceWithConfig(st Store, config Config) Service {
	return &service{store: st, config: config}
}

func (s *service) Upsert(ctx context.Context, userID string, req *UpsertRequest) (*UpsertResult, error) {
	word := store.NormalizeWord(req.Word)
	if word == "" {
		return nil, errors.Wrap(ErrInvalidEntry, "word is required")
	}

	existing, err := s.store.GetVocabulary(ctx, &store.FindVocabulary{
		UserID: &userID,
		Word:   &word,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get vocabulary")
	}
	if existing != nil {
		if err := s.merge(ctx, existing, req); err != nil {
			return nil, err
		}
		merged, err := s.store.GetVocabulary(ctx, &store.FindVocabulary{ID: &existing.ID})
		if err != nil {
			return nil, errors.Wrap(err, "failed to get vocabulary")
		}
		return &UpsertResult{Vocabulary: merged}, nil
	}

	created, err := s.store.CreateVocabulary(ctx, &store.Vocabulary{
		UID:             shortuuid.New(),
		UserID:          userID,
		Word:            word,
		POS:             req.POS,
		DefinitionCN:    req.DefinitionCN,
		DefinitionEN:    req.DefinitionEN,
		Example:         req.Example,
		Pronunciation:   req.Pronunciation,
		DifficultyLevel: req.DifficultyLevel,
		Frequency:       1,
		SourceURL:       req.SourceURL,
		SourceArticleID: req.SourceArticleID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create vocabulary")
	}

	// First sighting counts as a view.
	if _, err := s.store.CreateLearningRecord(ctx, &store.LearningRecord{
		UserID:       userID,
		VocabularyID: created.ID,
		ActionType:   store.ActionTypeView,
	}); err != nil {
		slog.Warn("failed to record view action", "user_id", userID, "vocabulary_id", created.ID, "error", err)
	}
	return &UpsertResult{Vocabulary: created, Created: true}, nil
}

// merge applies the non-empty fields of req onto the existing entry and
// bumps its frequency.
func (s *service) merge(ctx context.Context, existing *store.Vocabulary, req *UpsertRequest) error {
	update := store.UpdateVocabulary{ID: existing.ID}
	if req.POS != "" {
		update.POS = &req.POS
	}
	if req.DefinitionCN != "" {
		update.DefinitionCN = &req.DefinitionCN
	}
	if req.DefinitionEN != "" {
		update.DefinitionEN = &req.DefinitionEN
	}
	if req.Example != "" {
		update.Example = &req.Example
	}
	if req.Pronunciation != "" {
		update.Pronunciation = &req.Pronunciation
	}
	if req.DifficultyLevel != "" {
		update.DifficultyLevel = &req.DifficultyLevel
	}
	if req.SourceURL != "" {
		update.SourceURL = &req.SourceURL
	}
	if req.SourceArticleID != nil {
		update.SourceArticleID = req.SourceArticleID
	}
	frequency := existing.Frequency + 1
	update.Frequency = &frequency
	updatedTs := time.Now().Unix()
	update.UpdatedTs = &updatedTs

	if err := s.store.UpdateVocabulary(ctx, &update); err != nil {
		return errors.Wrap(err, "failed to update vocabulary")
	}
	return nil
}

func (s *service) UpsertBatch(ctx context.Context, userID string, reqs []*UpsertRequest) (*BatchResult, error) {
	result := BatchResult{}
	for _, req := range reqs {
		upserted, err := s.Upsert(ctx, userID, req)
		if err != nil {
			if errors.Is(err, ErrInvalidEntry) {
				result.Skipped++
				continue
			}
			return nil, err
		}
		if upserted.Created {
			result.Added++
		} else {
			result.Updated++
		}
		result.Entries = append(result.Entries, upserted.Vocabulary)
	}
	return &result, nil
}

func (s *service) List(ctx context.Context, userID string, req *ListRequest) ([]*store.Vocabulary, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = s.config.DefaultListLimit
	}
	if limit > s.config.MaxListLimit {
		limit = s.config.MaxListLimit
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	find := store.FindVocabulary{
		UserID:    &userID,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
		Limit:     &limit,
		Offset:    &offset,
	}
	if req.Search != "" {
		find.Search = &req.Search
	}
	if req.DifficultyLevel != "" {
		find.DifficultyLevel = &req.DifficultyLevel
	}

	list, err := s.store.ListVocabularies(ctx, &find)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list vocabularies")
	}
	return list, nil
}

func (s *service) Get(ctx context.Context, userID string, id int32) (*Detail, error) {
	vocabulary, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	limit := s.config.HistoryLimit
	records, err := s.store.ListLearningRecords(ctx, &store.FindLearningRecord{
		UserID:       &userID,
		VocabularyID: &id,
		Limit:        &limit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list learning records")
	}

	history := make([]*HistoryEntry, 0, len(records))
	for _, record := range records {
		history = append(history, &HistoryEntry{
			ActionType:      record.ActionType,
			MasteryLevel:    record.MasteryLevel,
			SentenceMastery: record.SentenceMastery,
			ContextType:     record.ContextType,
			IsCorrect:       record.IsCorrect,
			CreatedAt:       time.Unix(record.CreatedTs, 0).UTC(),
		})
	}
	return &Detail{Vocabulary: vocabulary, History: history}, nil
}

func (s *service) Delete(ctx context.Context, userID string, id int32) error {
	if _, err := s.getOwned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteVocabulary(ctx, &store.DeleteVocabulary{ID: id, UserID: userID}); err != nil {
		return errors.Wrap(err, "failed to delete vocabulary")
	}
	return nil
}

func (s *service) MarkMastery(ctx context.Context, userID string, id int32, level int32) (*store.LearningRecord, error) {
	if level < 0 || level > 5 {
		return nil, errors.Wrapf(ErrInvalidEntry, "mastery level out of range: %d", level)
	}
	if _, err := s.getOwned(ctx, userID, id); err != nil {
		return nil, err
	}

	record, err := s.store.CreateLearningRecord(ctx, &store.LearningRecord{
		UserID:       userID,
		VocabularyID: id,
		ActionType:   store.ActionTypeMaster,
		MasteryLevel: level,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create learning record")
	}
	return record, nil
}

func (s *service) Stats(ctx context.Context, userID string) (*store.VocabularyStats, error) {
	stats, err := s.store.GetVocabularyStats(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get vocabulary stats")
	}
	return stats, nil
}

// getOwned fetches the entry and enforces ownership.
func (s *service) getOwned(ctx context.Context, userID string, id int32) (*store.Vocabulary, error) {
	vocabulary, err := s.store.GetVocabulary(ctx, &store.FindVocabulary{
		ID:     &id,
		UserID: &userID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get vocabulary")
	}
	if vocabulary == nil {
		return nil, errors.Wrapf(ErrNotFound, "vocabulary %d", id)
	}
	return vocabulary, nil
}
