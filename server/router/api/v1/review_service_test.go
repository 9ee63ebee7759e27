package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocasense/vocasense/server/service/review"
	"github.com/vocasense/vocasense/store"
)

// stubReviewService returns canned values for handler tests.
type stubReviewService struct {
	batch  *review.ReviewBatch
	record *store.LearningRecord
	stats  *review.Stats
	err    error
}

var _ review.Service = (*stubReviewService)(nil)

func (s *stubReviewService) GetReviewBatch(ctx context.Context, userID string, mode review.ReviewMode, count, timeLimit int) (*review.ReviewBatch, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.batch, nil
}

func (s *stubReviewService) SubmitReview(ctx context.Context, userID string, submit *review.SubmitRequest) (*store.LearningRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.record, nil
}

func (s *stubReviewService) GetStats(ctx context.Context, userID string) (*review.Stats, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.stats, nil
}

func newTestContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestGetReviewWords_RequiresUserID(t *testing.T) {
	svc := &APIV1Service{ReviewService: &stubReviewService{}}
	c, rec := newTestContext(t, http.MethodGet, "/api/v1/review/words", "")

	require.NoError(t, svc.GetReviewWords(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, false, envelope["success"])
}

func TestGetReviewWords_RejectsUnknownMode(t *testing.T) {
	svc := &APIV1Service{ReviewService: &stubReviewService{}}
	c, rec := newTestContext(t, http.MethodGet, "/api/v1/review/words?user_id=alice&mode=listening", "")

	require.NoError(t, svc.GetReviewWords(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetReviewWords_InsufficientCandidates(t *testing.T) {
	svc := &APIV1Service{ReviewService: &stubReviewService{
		err: errors.Wrap(review.ErrInsufficientCandidates, "have 2, need 4"),
	}}
	c, rec := newTestContext(t, http.MethodGet, "/api/v1/review/words?user_id=alice", "")

	require.NoError(t, svc.GetReviewWords(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetReviewWords_Batch(t *testing.T) {
	svc := &APIV1Service{ReviewService: &stubReviewService{
		batch: &review.ReviewBatch{
			Words: []*review.ReviewWord{
				{
					Vocabulary: &store.Vocabulary{ID: 1, UID: "abc", Word: "sophisticated", Example: "This is a sophisticated system."},
					Mode:       review.ModeFillBlank,
					ModeName:   review.ModeFillBlank.Name(),
					Question:   &review.QuestionData{Sentence: "This is a ______ system.", Answer: "sophisticated"},
				},
			},
			TotalCount: 1,
			TimeLimit:  600,
			Mode:       review.ModeMixed,
		},
	}}
	c, rec := newTestContext(t, http.MethodGet, "/api/v1/review/words?user_id=alice", "")

	require.NoError(t, svc.GetReviewWords(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope["success"])
	data := envelope["data"].(map[string]any)
	assert.Equal(t, "mixed", data["review_type"])
	words := data["words"].([]any)
	require.Len(t, words, 1)
	word := words[0].(map[string]any)
	assert.Equal(t, "fill_blank", word["review_type"])
}

func TestSubmitReview_InvalidSubmission(t *testing.T) {
	svc := &APIV1Service{ReviewService: &stubReviewService{
		err: errors.Wrap(review.ErrInvalidSubmission, "unknown context type"),
	}}
	c, rec := newTestContext(t, http.MethodPost, "/api/v1/review/submit",
		`{"user_id":"alice","vocabulary_id":1,"context_type":"listening","is_correct":true}`)

	require.NoError(t, svc.SubmitReview(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitReview_RequiresUserID(t *testing.T) {
	svc := &APIV1Service{ReviewService: &stubReviewService{}}
	c, rec := newTestContext(t, http.MethodPost, "/api/v1/review/submit",
		`{"vocabulary_id":1,"context_type":"fill_blank","is_correct":true}`)

	require.NoError(t, svc.SubmitReview(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitReview_OK(t *testing.T) {
	mastery := int32(3)
	svc := &APIV1Service{ReviewService: &stubReviewService{
		record: &store.LearningRecord{ID: 7, VocabularyID: 1, SentenceMastery: &mastery, CreatedTs: 1700000000},
	}}
	c, rec := newTestContext(t, http.MethodPost, "/api/v1/review/submit",
		`{"user_id":"alice","vocabulary_id":1,"context_type":"fill_blank","is_correct":true}`)

	require.NoError(t, svc.SubmitReview(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]any)
	assert.Equal(t, float64(3), data["sentence_mastery"])
	assert.Equal(t, "2023-11-14T22:13:20Z", data["created_at"])
}

func TestGetReviewStats_OK(t *testing.T) {
	svc := &APIV1Service{ReviewService: &stubReviewService{
		stats: &review.Stats{
			SentenceReviews:     5,
			ContextDistribution: map[string]int{"fill_blank": 5},
			AvgSentenceMastery:  2.8,
		},
	}}
	c, rec := newTestContext(t, http.MethodGet, "/api/v1/review/stats?user_id=alice", "")

	require.NoError(t, svc.GetReviewStats(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]any)
	assert.Equal(t, float64(5), data["sentence_reviews"])
}
