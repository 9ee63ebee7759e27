package store

import (
	"fmt"
	"time"

	"github.com/vocasense/vocasense/internal/profile"
	"github.com/vocasense/vocasense/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// Cache settings
	cacheConfig cache.Config

	// Caches
	vocabularyCache *cache.Cache // cache for vocabulary entries by id
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	// Default cache settings
	cacheConfig := cache.Config{
		DefaultTTL:      10 * time.Minute,
		CleanupInterval: 5 * time.Minute,
		MaxItems:        1000,
		OnEviction:      nil,
	}

	store := &Store{
		driver:          driver,
		profile:         profile,
		cacheConfig:     cacheConfig,
		vocabularyCache: cache.New(cacheConfig),
	}

	return store
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	s.vocabularyCache.Close()

	return s.driver.Close()
}

func vocabularyCacheKey(id int32) string {
	return fmt.Sprintf("vocabulary:%d", id)
}
