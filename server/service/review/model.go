// Package review implements the adaptive sentence-review scheduler: it
// ranks a user's vocabulary by review priority, samples a batch, generates
// one question per word, and records the outcomes.
package review

import (
	"time"

	"github.com/pkg/errors"

	"github.com/vocasense/vocasense/store"
)

// ReviewMode identifies a question strategy.
type ReviewMode string

const (
	ModeFillBlank      ReviewMode = "fill_blank"
	ModeChooseWord     ReviewMode = "choose_word"
	ModeTranslate      ReviewMode = "translate"
	ModeContextMeaning ReviewMode = "context_meaning"
	// ModeMixed draws one of the four strategies per word.
	ModeMixed ReviewMode = "mixed"
)

// strategyModes are the concrete strategies mixed mode draws from.
var strategyModes = []ReviewMode{ModeFillBlank, ModeChooseWord, ModeTranslate, ModeContextMeaning}

var modeNames = map[ReviewMode]string{
	ModeFillBlank:      "填空题",
	ModeChooseWord:     "选择词汇",
	ModeTranslate:      "翻译句子",
	ModeContextMeaning: "语境理解",
}

// Name returns the display name of a concrete strategy.
func (m ReviewMode) Name() string {
	return modeNames[m]
}

// ParseMode validates a mode string against the closed mode set.
func ParseMode(raw string) (ReviewMode, error) {
	switch mode := ReviewMode(raw); mode {
	case ModeFillBlank, ModeChooseWord, ModeTranslate, ModeContextMeaning, ModeMixed:
		return mode, nil
	case "":
		return ModeMixed, nil
	default:
		return "", errors.Errorf("unknown review mode: %q", raw)
	}
}

// Review-specific errors that can be checked with errors.Is.
var (
	// ErrInsufficientCandidates is returned when the user owns fewer than
	// MinCandidates example-bearing words.
	ErrInsufficientCandidates = errors.New("not enough words with example sentences")
	// ErrInvalidSubmission is returned when a review submission fails
	// validation before any store write.
	ErrInvalidSubmission = errors.New("invalid review submission")
)

// QuestionData is the strategy-specific question payload. Fields not used by
// a strategy are left empty. Payloads are ephemeral; only the eventual
// correctness and latency are recorded.
type QuestionData struct {
	Sentence         string   `json:"sentence"`
	Answer           string   `json:"answer"`
	OriginalSentence string   `json:"original_sentence,omitempty"`
	Hint             string   `json:"hint,omitempty"`
	Word             string   `json:"word,omitempty"`
	Options          []string `json:"options,omitempty"`
	Question         string   `json:"question,omitempty"`
}

// ReviewWord is one entry of a review batch: the word, the strategy chosen
// for it, and the generated question.
type ReviewWord struct {
	Vocabulary *store.Vocabulary
	Mode       ReviewMode
	ModeName   string
	Question   *QuestionData
}

// ReviewBatch is the sampled word set for one session. It is constructed per
// request and never persisted.
type ReviewBatch struct {
	Words      []*ReviewWord
	TotalCount int
	TimeLimit  int
	Mode       ReviewMode
}

// SubmitRequest carries one answered question back into history.
type SubmitRequest struct {
	VocabularyID int32
	ContextType  ReviewMode
	IsCorrect    bool
	// ResponseTime is the response latency in milliseconds, if measured.
	ResponseTime *int32
	// SentenceMastery overrides the derived mastery when set; must be 0-5.
	SentenceMastery *int32
}

// RecentReview is a recent outcome joined with its word text.
type RecentReview struct {
	Word            string
	ContextType     string
	IsCorrect       *bool
	SentenceMastery *int32
	CreatedAt       time.Time
}

// Stats summarizes a user's sentence-review history.
type Stats struct {
	SentenceReviews     int
	ContextDistribution map[string]int
	AvgSentenceMastery  float64
	RecentReviews       []*RecentReview
}

// Config contains tunables for the review scheduler.
type Config struct {
	// DefaultCount is the batch size when the caller does not specify one.
	DefaultCount int
	// DefaultTimeLimit is the session time limit in seconds.
	DefaultTimeLimit int
	// MinCandidates is the eligibility floor: a 4-option multiple-choice
	// question needs the target plus 3 distractors.
	MinCandidates int
	// OversampleFactor sizes the top-priority pool the final batch is drawn
	// from.
	OversampleFactor int
	// StatsPeriodDays is the stats aggregation window.
	StatsPeriodDays int
	// RecentReviewsLimit caps the recent-review list in stats.
	RecentReviewsLimit int
}

// DefaultConfig returns the default review configuration.
func DefaultConfig() Config {
	return Config{
		DefaultCount:       10,
		DefaultTimeLimit:   600,
		MinCandidates:      4,
		OversampleFactor:   2,
		StatsPeriodDays:    30,
		RecentReviewsLimit: 10,
	}
}
