package v1

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"

	"github.com/vocasense/vocasense/store"
)

const feedItemLimit = 20

// GetVocabularyFeed renders the user's most recently added words as RSS.
// GET /api/v1/vocabulary/feed.rss?user_id
func (s *APIV1Service) GetVocabularyFeed(c echo.Context) error {
	userID, ok := requireUserID(c)
	if !ok {
		return respondError(c, http.StatusBadRequest, "user_id is required")
	}

	limit := feedItemLimit
	list, err := s.Store.ListVocabularies(c.Request().Context(), &store.FindVocabulary{
		UserID:    &userID,
		SortBy:    "created_ts",
		SortOrder: "desc",
		Limit:     &limit,
	})
	if err != nil {
		slog.Error("failed to build vocabulary feed", "user_id", userID, "error", err)
		return respondError(c, http.StatusInternalServerError, "failed to build vocabulary feed")
	}

	baseURL := s.Profile.InstanceURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://%s:%d", s.Profile.Addr, s.Profile.Port)
	}

	feed := feeds.Feed{
		Title:       "Recently added vocabulary",
		Link:        &feeds.Link{Href: fmt.Sprintf("%s/api/v1/vocabulary/feed.rss?user_id=%s", baseURL, userID)},
		Description: "The most recently added vocabulary entries",
		Created:     time.Now(),
	}
	for _, entry := range list {
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          entry.UID,
			Title:       entry.Word,
			Link:        &feeds.Link{Href: fmt.Sprintf("%s/api/v1/vocabulary/%d?user_id=%s", baseURL, entry.ID, userID)},
			Description: feedItemDescription(entry),
			Created:     time.Unix(entry.CreatedTs, 0).UTC(),
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		slog.Error("failed to render vocabulary feed", "user_id", userID, "error", err)
		return respondError(c, http.StatusInternalServerError, "failed to render vocabulary feed")
	}
	return c.Blob(http.StatusOK, "application/rss+xml", []byte(rss))
}

func feedItemDescription(entry *store.Vocabulary) string {
	parts := []string{}
	if entry.POS != "" {
		parts = append(parts, entry.POS)
	}
	if entry.DefinitionCN != "" {
		parts = append(parts, entry.DefinitionCN)
	}
	if entry.Example != "" {
		parts = append(parts, entry.Example)
	}
	return strings.Join(parts, " | ")
}
