package v1

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vocasense/vocasense/server/service/vocabulary"
	"github.com/vocasense/vocasense/store"
)

type vocabularyEntryRequest struct {
	Word            string `json:"word"`
	POS             string `json:"pos,omitempty"`
	DefinitionCN    string `json:"definition_cn,omitempty"`
	DefinitionEN    string `json:"definition_en,omitempty"`
	Example         string `json:"example,omitempty"`
	Pronunciation   string `json:"pronunciation,omitempty"`
	DifficultyLevel string `json:"difficulty_level,omitempty"`
	SourceURL       string `json:"source_url,omitempty"`
	SourceArticleID *int32 `json:"source_article_id,omitempty"`
}

type createVocabularyRequest struct {
	UserID string `json:"user_id"`
	vocabularyEntryRequest
}

type batchCreateVocabularyRequest struct {
	UserID string                    `json:"user_id"`
	Words  []*vocabularyEntryRequest `json:"words"`
}

type vocabularyResponse struct {
	ID              int32  `json:"id"`
	UID             string `json:"uid"`
	Word            string `json:"word"`
	POS             string `json:"pos,omitempty"`
	DefinitionCN    string `json:"definition_cn,omitempty"`
	DefinitionEN    string `json:"definition_en,omitempty"`
	Example         string `json:"example,omitempty"`
	Pronunciation   string `json:"pronunciation,omitempty"`
	DifficultyLevel string `json:"difficulty_level,omitempty"`
	Frequency       int32  `json:"frequency"`
	SourceURL       string `json:"source_url,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

type historyEntryResponse struct {
	ActionType      string  `json:"action_type"`
	MasteryLevel    int32   `json:"mastery_level"`
	SentenceMastery *int32  `json:"sentence_mastery,omitempty"`
	ContextType     *string `json:"context_type,omitempty"`
	IsCorrect       *bool   `json:"is_correct,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

func toVocabularyResponse(v *store.Vocabulary) *vocabularyResponse {
	return &vocabularyResponse{
		ID:              v.ID,
		UID:             v.UID,
		Word:            v.Word,
		POS:             v.POS,
		DefinitionCN:    v.DefinitionCN,
		DefinitionEN:    v.DefinitionEN,
		Example:         v.Example,
		Pronunciation:   v.Pronunciation,
		DifficultyLevel: v.DifficultyLevel,
		Frequency:       v.Frequency,
		SourceURL:       v.SourceURL,
		CreatedAt:       time.Unix(v.CreatedTs, 0).UTC().Format(time.RFC3339),
		UpdatedAt:       time.Unix(v.UpdatedTs, 0).UTC().Format(time.RFC3339),
	}
}

func toUpsertRequest(entry *vocabularyEntryRequest) *vocabulary.UpsertRequest {
	return &vocabulary.UpsertRequest{
		Word:            entry.Word,
		POS:             entry.POS,
		DefinitionCN:    entry.DefinitionCN,
		DefinitionEN:    entry.DefinitionEN,
		Example:         entry.Example,
		Pronunciation:   entry.Pronunciation,
		DifficultyLevel: entry.DifficultyLevel,
		SourceURL:       entry.SourceURL,
		SourceArticleID: entry.SourceArticleID,
	}
}

// CreateVocabulary upserts one word for the user.
// POST /api/v1/vocabulary
func (s *APIV1Service) CreateVocabulary(c echo.Context) error {
	var body createVocabularyRequest
	if err := c.Bind(&body); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if body.UserID == "" {
		return respondError(c, http.StatusBadRequest, "user_id is required")
	}

	result, err := s.VocabularyService.Upsert(c.Request().Context(), body.UserID, toUpsertRequest(&body.vocabularyEntryRequest))
	if err != nil {
		if errors.Is(err, vocabulary.ErrInvalidEntry) {
			return respondError(c, http.StatusBadRequest, err.Error())
		}
		slog.Error("failed to upsert vocabulary", "user_id", body.UserID, "error", err)
		return respondError(c, http.StatusInternalServerError, "failed to upsert vocabulary")
	}
	return respondOK(c, map[string]any{
		"created":    result.Created,
		"vocabulary": toVocabularyResponse(result.Vocabulary),
	})
}

// BatchCreateVocabulary upserts many words; invalid entries are skipped.
// POST /api/v1/vocabulary/batch
func (s *APIV1Service) BatchCreateVocabulary(c echo.Context) error {
	var body batchCreateVocabularyRequest
	if err := c.Bind(&body); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if body.UserID == "" {
		return respondError(c, http.StatusBadRequest, "user_id is required")
	}
	if len(body.Words) == 0 {
		return respondError(c, http.StatusBadRequest, "words is required")
	}

	reqs := make([]*vocabulary.UpsertRequest, 0, len(body.Words))
	for _, entry := range body.Words {
		reqs = append(reqs, toUpsertRequest(entry))
	}
	result, err := s.VocabularyService.UpsertBatch(c.Request().Context(), body.UserID, reqs)
	if err != nil {
		slog.Error("failed to batch upsert vocabulary", "user_id", body.UserID, "error", err)
		return respondError(c, http.StatusInternalServerError, "failed to batch upsert vocabulary")
	}

	entries := make([]*vocabularyResponse, 0, len(result.Entries))
	for _, entry := range result.Entries {
		entries = append(entries, toVocabularyResponse(entry))
	}
	return respondOK(c, map[string]any{
		"added":   result.Added,
		"updated": result.Updated,
		"skipped": result.Skipped,
		"entries": entries,
	})
}

// ListVocabulary pages the user's vocabulary.
// GET /api/v1/vocabulary?user_id&search&difficulty_level&sort_by&sort_order&limit&offset
func (s *APIV1Service) ListVocabulary(c echo.Context) error {
	userID, ok := requireUserID(c)
	if !ok {
		return respondError(c, http.StatusBadRequest, "user_id is required")
	}

	list, err := s.VocabularyService.List(c.Request().Context(), userID, &vocabulary.ListRequest{
		Search:          c.QueryParam("search"),
		DifficultyLevel: c.QueryParam("difficulty_level"),
		SortBy:          c.QueryParam("sort_by"),
		SortOrder:       c.QueryParam("sort_order"),
		Limit:           intQueryParam(c, "limit", 0),
		Offset:          intQueryParam(c, "offset", 0),
	})
	if err != nil {
		slog.Error("failed to list vocabulary", "user_id", userID, "error", err)
		return respondError(c, http.StatusInternalServerError, "failed to list vocabulary")
	}

	entries := make([]*vocabularyResponse, 0, len(list))
	for _, entry := range list {
		entries = append(entries, toVocabularyResponse(entry))
	}
	return respondOK(c, entries)
}

// GetVocabulary returns one entry with its recent learning history.
// GET /api/v1/vocabulary/:id?user_id
func (s *APIV1Service) GetVocabulary(c echo.Context) error {
	userID, ok := requireUserID(c)
	if !ok {
		return respondError(c, http.StatusBadRequest, "user_id is required")
	}
	id, err := vocabularyIDParam(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid vocabulary id")
	}

	detail, err := s.VocabularyService.Get(c.Request().Context(), userID, id)
	if err != nil {
		if errors.Is(err, vocabulary.ErrNotFound) {
			return respondError(c, http.StatusNotFound, "vocabulary not found")
		}
		slog.Error("failed to get vocabulary", "user_id", userID, "vocabulary_id", id, "error", err)
		return respondError(c, http.StatusInternalServerError, "failed to get vocabulary")
	}

	history := make([]*historyEntryResponse, 0, len(detail.History))
	for _, entry := range detail.History {
		history = append(history, &historyEntryResponse{
			ActionType:      entry.ActionType,
			MasteryLevel:    entry.MasteryLevel,
			SentenceMastery: entry.SentenceMastery,
			ContextType:     entry.ContextType,
			IsCorrect:       entry.IsCorrect,
			CreatedAt:       entry.CreatedAt.Format(time.RFC3339),
		})
	}
	return respondOK(c, map[string]any{
		"vocabulary": toVocabularyResponse(detail.Vocabulary),
		"history":    history,
	})
}

// DeleteVocabulary removes the entry and its learning records.
// DELETE /api/v1/vocabulary/:id?user_id
func (s *APIV1Service) DeleteVocabulary(c echo.Context) error {
	userID, ok := requireUserID(c)
	if !ok {
		return respondError(c, http.StatusBadRequest, "user_id is required")
	}
	id, err := vocabularyIDParam(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid vocabulary id")
	}

	if err := s.VocabularyService.Delete(c.Request().Context(), userID, id); err != nil {
		if errors.Is(err, vocabulary.ErrNotFound) {
			return respondError(c, http.StatusNotFound, "vocabulary not found")
		}
		slog.Error("failed to delete vocabulary", "user_id", userID, "vocabulary_id", id, "error", err)
		return respondError(c, http.StatusInternalServerError, "failed to delete vocabulary")
	}
	return respondOK(c, map[string]any{"deleted": true})
}

// MarkVocabularyMastery appends a master action with the given level.
// POST /api/v1/vocabulary/:id/mastery
func (s *APIV1Service) MarkVocabularyMastery(c echo.Context) error {
	var body struct {
		UserID       string `json:"user_id"`
		MasteryLevel int32  `json:"mastery_level"`
	}
	if err := c.Bind(&body); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if body.UserID == "" {
		return respondError(c, http.StatusBadRequest, "user_id is required")
	}
	id, err := vocabularyIDParam(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid vocabulary id")
	}

	record, err := s.VocabularyService.MarkMastery(c.Request().Context(), body.UserID, id, body.MasteryLevel)
	if err != nil {
		switch {
		case errors.Is(err, vocabulary.ErrInvalidEntry):
			return respondError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, vocabulary.ErrNotFound):
			return respondError(c, http.StatusNotFound, "vocabulary not found")
		}
		slog.Error("failed to mark mastery", "user_id", body.UserID, "vocabulary_id", id, "error", err)
		return respondError(c, http.StatusInternalServerError, "failed to mark mastery")
	}
	return respondOK(c, map[string]any{
		"record_id":     record.ID,
		"mastery_level": record.MasteryLevel,
	})
}

// GetVocabularyStats summarizes the user's vocabulary store.
// GET /api/v1/vocabulary/stats?user_id
func (s *APIV1Service) GetVocabularyStats(c echo.Context) error {
	userID, ok := requireUserID(c)
	if !ok {
		return respondError(c, http.StatusBadRequest, "user_id is required")
	}

	stats, err := s.VocabularyService.Stats(c.Request().Context(), userID)
	if err != nil {
		slog.Error("failed to get vocabulary stats", "user_id", userID, "error", err)
		return respondError(c, http.StatusInternalServerError, "failed to get vocabulary stats")
	}
	return respondOK(c, map[string]any{
		"total_count":             stats.TotalCount,
		"recent_count":            stats.RecentCount,
		"difficulty_distribution": stats.DifficultyDistribution,
	})
}

func vocabularyIDParam(c echo.Context) (int32, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return int32(id), nil
}
