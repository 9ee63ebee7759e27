package review

import (
	"time"

	"github.com/vocasense/vocasense/store"
)

// Priority score weights. The mastery term dominates ranking among reviewed
// words; the recency bonus dominates for words never reviewed.
const (
	masteryCeiling     = 5.0
	masteryWeight      = 10.0
	reviewCountCeiling = 10
	reviewCountWeight  = 5.0
	accuracyWeight     = 20.0

	bonusNeverReviewed = 50.0
	bonusWeekIdle      = 30.0
	bonusThreeDaysIdle = 20.0
	bonusDayIdle       = 10.0
)

// priorityScore computes the review priority of a candidate; higher means
// review sooner. The terms are additive:
//   - low average sentence mastery raises priority linearly,
//   - under-reviewed words are favored until they reach 10 reviews,
//   - a step bonus rewards words idle for 1/3/7 days or never reviewed,
//   - low historical accuracy raises priority.
func priorityScore(candidate *store.ReviewCandidate, now time.Time) float64 {
	score := (masteryCeiling - candidate.AvgSentenceMastery) * masteryWeight

	reviewCount := candidate.ReviewCount
	if reviewCount > reviewCountCeiling {
		reviewCount = reviewCountCeiling
	}
	score += float64(reviewCountCeiling-reviewCount) * reviewCountWeight

	score += recencyBonus(candidate.LastReviewTs, now)
	score += (1 - candidate.Accuracy) * accuracyWeight
	return score
}

// recencyBonus is a step function over the time since the last sentence
// review.
func recencyBonus(lastReviewTs *int64, now time.Time) float64 {
	if lastReviewTs == nil {
		return bonusNeverReviewed
	}
	idle := now.Sub(time.Unix(*lastReviewTs, 0))
	switch {
	case idle >= 7*24*time.Hour:
		return bonusWeekIdle
	case idle >= 3*24*time.Hour:
		return bonusThreeDaysIdle
	case idle >= 24*time.Hour:
		return bonusDayIdle
	default:
		return 0
	}
}
