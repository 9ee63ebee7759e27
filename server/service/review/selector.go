package review

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/vocasense/vocasense/store"
)

// selectWords returns up to count candidates for one session, biased toward
// high priority without being deterministic across sessions: candidates are
// ranked by priority score with random tie-breaking, the top
// OversampleFactor*count form a pool, and the batch is a uniform sample of
// the pool.
func (s *service) selectWords(ctx context.Context, userID string, count int) ([]*store.ReviewCandidate, error) {
	candidates, err := s.store.ListReviewCandidates(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list review candidates")
	}
	if len(candidates) < s.config.MinCandidates {
		return nil, errors.Wrapf(ErrInsufficientCandidates, "have %d, need %d", len(candidates), s.config.MinCandidates)
	}

	now := time.Now()
	type scoredCandidate struct {
		candidate *store.ReviewCandidate
		score     float64
		tieBreak  float64
	}
	scored := make([]scoredCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		scored = append(scored, scoredCandidate{
			candidate: candidate,
			score:     priorityScore(candidate, now),
			tieBreak:  s.randFloat64(),
		})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].tieBreak < scored[j].tieBreak
	})

	poolSize := s.config.OversampleFactor * count
	if poolSize > len(scored) {
		poolSize = len(scored)
	}
	pool := make([]*store.ReviewCandidate, 0, poolSize)
	for _, sc := range scored[:poolSize] {
		pool = append(pool, sc.candidate)
	}

	// Uniform sample of the top-priority pool: a shuffle-and-truncate draws
	// exactly count without replacement.
	if len(pool) > count {
		s.shuffle(len(pool), func(i, j int) {
			pool[i], pool[j] = pool[j], pool[i]
		})
		pool = pool[:count]
	}
	return pool, nil
}
