package v1

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vocasense/vocasense/server/service/review"
)

type reviewWordResponse struct {
	ID           int32                `json:"id"`
	UID          string               `json:"uid"`
	Word         string               `json:"word"`
	POS          string               `json:"pos,omitempty"`
	DefinitionCN string               `json:"definition_cn,omitempty"`
	Example      string               `json:"example"`
	Mode         string               `json:"review_type"`
	ModeName     string               `json:"review_type_name"`
	Question     *review.QuestionData `json:"question_data"`
}

type reviewBatchResponse struct {
	Words      []*reviewWordResponse `json:"words"`
	TotalCount int                   `json:"total_count"`
	TimeLimit  int                   `json:"time_limit"`
	Mode       string                `json:"review_type"`
}

type submitReviewRequest struct {
	UserID          string `json:"user_id"`
	VocabularyID    int32  `json:"vocabulary_id"`
	ContextType     string `json:"context_type"`
	IsCorrect       bool   `json:"is_correct"`
	ResponseTime    *int32 `json:"response_time,omitempty"`
	SentenceMastery *int32 `json:"sentence_mastery,omitempty"`
}

type submitReviewResponse struct {
	RecordID        int32  `json:"record_id"`
	VocabularyID    int32  `json:"vocabulary_id"`
	SentenceMastery int32  `json:"sentence_mastery"`
	CreatedAt       string `json:"created_at"`
}

type recentReviewResponse struct {
	Word            string `json:"word"`
	ContextType     string `json:"context_type"`
	IsCorrect       *bool  `json:"is_correct"`
	SentenceMastery *int32 `json:"sentence_mastery"`
	CreatedAt       string `json:"created_at"`
}

type reviewStatsResponse struct {
	SentenceReviews     int                     `json:"sentence_reviews"`
	ContextDistribution map[string]int          `json:"context_distribution"`
	AvgSentenceMastery  float64                 `json:"avg_sentence_mastery"`
	RecentReviews       []*recentReviewResponse `json:"recent_reviews"`
}

// GetReviewWords samples a review batch for the user.
// GET /api/v1/review/words?user_id&mode&count&time_limit
func (s *APIV1Service) GetReviewWords(c echo.Context) error {
	userID, ok := requireUserID(c)
	if !ok {
		return respondError(c, http.StatusBadRequest, "user_id is required")
	}
	mode, err := review.ParseMode(c.QueryParam("mode"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}
	count := intQueryParam(c, "count", 0)
	timeLimit := intQueryParam(c, "time_limit", 0)

	batch, err := s.ReviewService.GetReviewBatch(c.Request().Context(), userID, mode, count, timeLimit)
	if err != nil {
		if errors.Is(err, review.ErrInsufficientCandidates) {
			return respondError(c, http.StatusUnprocessableEntity, "not enough words with example sentences to start a review")
		}
		slog.Error("failed to build review batch", "user_id", userID, "error", err)
		return respondError(c, http.StatusInternalServerError, "failed to build review batch")
	}

	words := make([]*reviewWordResponse, 0, len(batch.Words))
	for _, word := range batch.Words {
		words = append(words, &reviewWordResponse{
			ID:           word.Vocabulary.ID,
			UID:          word.Vocabulary.UID,
			Word:         word.Vocabulary.Word,
			POS:          word.Vocabulary.POS,
			DefinitionCN: word.Vocabulary.DefinitionCN,
			Example:      word.Vocabulary.Example,
			Mode:         string(word.Mode),
			ModeName:     word.ModeName,
			Question:     word.Question,
		})
	}
	return respondOK(c, &reviewBatchResponse{
		Words:      words,
		TotalCount: batch.TotalCount,
		TimeLimit:  batch.TimeLimit,
		Mode:       string(batch.Mode),
	})
}

// SubmitReview records one answered question.
// POST /api/v1/review/submit
func (s *APIV1Service) SubmitReview(c echo.Context) error {
	var body submitReviewRequest
	if err := c.Bind(&body); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if body.UserID == "" {
		return respondError(c, http.StatusBadRequest, "user_id is required")
	}

	record, err := s.ReviewService.SubmitReview(c.Request().Context(), body.UserID, &review.SubmitRequest{
		VocabularyID:    body.VocabularyID,
		ContextType:     review.ReviewMode(body.ContextType),
		IsCorrect:       body.IsCorrect,
		ResponseTime:    body.ResponseTime,
		SentenceMastery: body.SentenceMastery,
	})
	if err != nil {
		if errors.Is(err, review.ErrInvalidSubmission) {
			return respondError(c, http.StatusBadRequest, err.Error())
		}
		slog.Error("failed to submit review", "user_id", body.UserID, "error", err)
		return respondError(c, http.StatusInternalServerError, "failed to submit review")
	}

	var mastery int32
	if record.SentenceMastery != nil {
		mastery = *record.SentenceMastery
	}
	return respondOK(c, &submitReviewResponse{
		RecordID:        record.ID,
		VocabularyID:    record.VocabularyID,
		SentenceMastery: mastery,
		CreatedAt:       time.Unix(record.CreatedTs, 0).UTC().Format(time.RFC3339),
	})
}

// GetReviewStats summarizes the user's sentence-review history.
// GET /api/v1/review/stats?user_id
func (s *APIV1Service) GetReviewStats(c echo.Context) error {
	userID, ok := requireUserID(c)
	if !ok {
		return respondError(c, http.StatusBadRequest, "user_id is required")
	}

	stats, err := s.ReviewService.GetStats(c.Request().Context(), userID)
	if err != nil {
		slog.Error("failed to get review stats", "user_id", userID, "error", err)
		return respondError(c, http.StatusInternalServerError, "failed to get review stats")
	}

	recent := make([]*recentReviewResponse, 0, len(stats.RecentReviews))
	for _, r := range stats.RecentReviews {
		recent = append(recent, &recentReviewResponse{
			Word:            r.Word,
			ContextType:     r.ContextType,
			IsCorrect:       r.IsCorrect,
			SentenceMastery: r.SentenceMastery,
			CreatedAt:       r.CreatedAt.Format(time.RFC3339),
		})
	}
	return respondOK(c, &reviewStatsResponse{
		SentenceReviews:     stats.SentenceReviews,
		ContextDistribution: stats.ContextDistribution,
		AvgSentenceMastery:  stats.AvgSentenceMastery,
		RecentReviews:       recent,
	})
}

func intQueryParam(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
