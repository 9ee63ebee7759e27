// Package v1 exposes the REST API: review scheduling, vocabulary
// management, and the vocabulary feed.
package v1

import (
	"math/rand"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vocasense/vocasense/internal/profile"
	"github.com/vocasense/vocasense/server/middleware"
	"github.com/vocasense/vocasense/server/service/review"
	"github.com/vocasense/vocasense/server/service/vocabulary"
	"github.com/vocasense/vocasense/store"
)

type APIV1Service struct {
	Profile           *profile.Profile
	Store             *store.Store
	ReviewService     review.Service
	VocabularyService vocabulary.Service

	rateLimiter *middleware.RateLimiter
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store) *APIV1Service {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &APIV1Service{
		Profile:           profile,
		Store:             store,
		ReviewService:     review.NewService(store, rng),
		VocabularyService: vocabulary.NewService(store),
		rateLimiter:       middleware.NewRateLimiter(profile.ReviewRateLimit, profile.ReviewRateBurst),
	}
}

// RegisterRoutes registers the API routes on the given echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	apiV1 := echoServer.Group("/api/v1", middleware.RequestID(), middleware.PerUserRateLimit(s.rateLimiter))

	reviewGroup := apiV1.Group("/review")
	reviewGroup.GET("/words", s.GetReviewWords)
	reviewGroup.POST("/submit", s.SubmitReview)
	reviewGroup.GET("/stats", s.GetReviewStats)

	vocabularyGroup := apiV1.Group("/vocabulary")
	vocabularyGroup.GET("", s.ListVocabulary)
	vocabularyGroup.POST("", s.CreateVocabulary)
	vocabularyGroup.POST("/batch", s.BatchCreateVocabulary)
	vocabularyGroup.GET("/stats", s.GetVocabularyStats)
	vocabularyGroup.GET("/feed.rss", s.GetVocabularyFeed)
	vocabularyGroup.GET("/:id", s.GetVocabulary)
	vocabularyGroup.DELETE("/:id", s.DeleteVocabulary)
	vocabularyGroup.POST("/:id/mastery", s.MarkVocabularyMastery)
}

// respondOK writes the success envelope.
func respondOK(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"data":    data,
	})
}

// respondError writes the failure envelope.
func respondError(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]any{
		"success": false,
		"error":   message,
	})
}

// requireUserID reads the user_id query parameter, which every read
// endpoint scopes by.
func requireUserID(c echo.Context) (string, bool) {
	userID := c.QueryParam("user_id")
	return userID, userID != ""
}
