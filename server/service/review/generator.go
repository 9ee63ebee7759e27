package review

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vocasense/vocasense/store"
)

// BlankPlaceholder replaces masked words in fill-blank sentences.
const BlankPlaceholder = "______"

// generate dispatches to the strategy's generator. When the strategy's
// precondition is unmet for the word it falls back to fill-blank, which only
// needs the example sentence that eligibility already guarantees; the mode
// actually used is returned alongside the payload.
func (s *service) generate(mode ReviewMode, word *store.Vocabulary, batch []*store.Vocabulary) (*QuestionData, ReviewMode) {
	switch mode {
	case ModeChooseWord:
		return s.generateChooseWord(word, batch), ModeChooseWord
	case ModeTranslate:
		return generateTranslate(word), ModeTranslate
	case ModeContextMeaning:
		if strings.TrimSpace(word.DefinitionCN) == "" {
			return generateFillBlank(word), ModeFillBlank
		}
		return s.generateContextMeaning(word, batch), ModeContextMeaning
	default:
		return generateFillBlank(word), ModeFillBlank
	}
}

// generateFillBlank masks the target word in its example sentence.
func generateFillBlank(word *store.Vocabulary) *QuestionData {
	data := QuestionData{
		Sentence:         maskWord(word.Example, word.Word),
		Answer:           word.Word,
		OriginalSentence: word.Example,
	}
	if word.POS != "" {
		data.Hint = fmt.Sprintf("(%s)", word.POS)
	}
	return &data
}

// maskWord replaces whole-word occurrences of word in sentence with the
// blank placeholder, case-insensitively. When the word does not occur at a
// token boundary the sentence is returned unchanged; callers must tolerate
// an unmasked sentence.
func maskWord(sentence, word string) string {
	pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(strings.ToLower(word)) + `\b`)
	if err != nil {
		return sentence
	}
	return pattern.ReplaceAllString(sentence, BlankPlaceholder)
}

// generateChooseWord builds a multiple-choice question: the target word plus
// up to 3 distinct words drawn without replacement from the batch. A small
// batch yields fewer options; distractors are never fabricated.
func (s *service) generateChooseWord(word *store.Vocabulary, batch []*store.Vocabulary) *QuestionData {
	options := []string{word.Word}
	others := make([]*store.Vocabulary, 0, len(batch))
	for _, other := range batch {
		if other.ID != word.ID {
			others = append(others, other)
		}
	}
	s.shuffle(len(others), func(i, j int) {
		others[i], others[j] = others[j], others[i]
	})
	for _, other := range others {
		if len(options) >= 4 {
			break
		}
		if !containsString(options, other.Word) {
			options = append(options, other.Word)
		}
	}
	s.shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	return &QuestionData{
		Sentence: maskWord(word.Example, word.Word),
		Options:  options,
		Answer:   word.Word,
		Question: "请选择句子中 '____' 处应该填入的单词：",
	}
}

// generateTranslate asks for the sentence's translation; the expected answer
// is the word's Chinese definition.
func generateTranslate(word *store.Vocabulary) *QuestionData {
	return &QuestionData{
		Sentence: word.Example,
		Answer:   word.DefinitionCN,
		Word:     word.Word,
		Question: "请翻译以下包含目标单词的句子：",
	}
}

// generateContextMeaning builds a definition-choice question: the target's
// Chinese definition plus up to 3 distinct definitions from the batch,
// deduplicated by definition text.
func (s *service) generateContextMeaning(word *store.Vocabulary, batch []*store.Vocabulary) *QuestionData {
	options := []string{word.DefinitionCN}
	others := make([]*store.Vocabulary, 0, len(batch))
	for _, other := range batch {
		if other.ID != word.ID && strings.TrimSpace(other.DefinitionCN) != "" {
			others = append(others, other)
		}
	}
	s.shuffle(len(others), func(i, j int) {
		others[i], others[j] = others[j], others[i]
	})
	for _, other := range others {
		if len(options) >= 4 {
			break
		}
		if !containsString(options, other.DefinitionCN) {
			options = append(options, other.DefinitionCN)
		}
	}
	s.shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	return &QuestionData{
		Sentence: word.Example,
		Word:     word.Word,
		Options:  options,
		Answer:   word.DefinitionCN,
		Question: fmt.Sprintf("在以下句子中，单词 '%s' 的含义是：", word.Word),
	}
}

func containsString(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}
