package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/vocasense/vocasense/store"
)

func (d *DB) CreateLearningRecord(ctx context.Context, create *store.LearningRecord) (*store.LearningRecord, error) {
	fields := []string{
		"user_id", "vocabulary_id", "action_type", "mastery_level",
		"sentence_mastery", "context_type", "is_correct", "response_time",
	}
	placeholderValues := []any{
		create.UserID, create.VocabularyID, create.ActionType, create.MasteryLevel,
		create.SentenceMastery, create.ContextType, create.IsCorrect, create.ResponseTime,
	}

	stmt := `INSERT INTO learning_record (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(placeholderValues)) + `)
		RETURNING id, created_ts`

	if err := d.db.QueryRowContext(ctx, stmt, placeholderValues...).Scan(
		&create.ID,
		&create.CreatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create learning record")
	}

	return create, nil
}

func (d *DB) ListLearningRecords(ctx context.Context, find *store.FindLearningRecord) ([]*store.LearningRecord, error) {
	where, args := []string{"TRUE"}, []any{}

	if v := find.UserID; v != nil {
		where, args = append(where, "learning_record.user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.VocabularyID; v != nil {
		where, args = append(where, "learning_record.vocabulary_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ActionType; v != nil {
		where, args = append(where, "learning_record.action_type = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.CreatedTsAfter; v != nil {
		where, args = append(where, "learning_record.created_ts >= "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT
			id, user_id, vocabulary_id, action_type, mastery_level,
			sentence_mastery, context_type, is_correct, response_time, created_ts
		FROM learning_record
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY learning_record.created_ts DESC, learning_record.id DESC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query learning records")
	}
	defer rows.Close()

	list := make([]*store.LearningRecord, 0)
	for rows.Next() {
		var record store.LearningRecord
		var sentenceMastery, responseTime sql.NullInt32
		var contextType sql.NullString
		var isCorrect sql.NullBool
		if err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.VocabularyID,
			&record.ActionType,
			&record.MasteryLevel,
			&sentenceMastery,
			&contextType,
			&isCorrect,
			&responseTime,
			&record.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan learning record")
		}
		if sentenceMastery.Valid {
			record.SentenceMastery = &sentenceMastery.Int32
		}
		if contextType.Valid {
			record.ContextType = &contextType.String
		}
		if isCorrect.Valid {
			record.IsCorrect = &isCorrect.Bool
		}
		if responseTime.Valid {
			record.ResponseTime = &responseTime.Int32
		}
		list = append(list, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate learning records")
	}

	return list, nil
}

// ListReviewCandidates joins eligible vocabulary entries with grouped
// sentence-review aggregates. Accuracy defaults to 0.5 for words with no
// graded attempts.
func (d *DB) ListReviewCandidates(ctx context.Context, userID string) ([]*store.ReviewCandidate, error) {
	query := `
		SELECT
			vocabulary.id, vocabulary.uid, vocabulary.user_id, vocabulary.word,
			vocabulary.pos, vocabulary.definition_cn, vocabulary.definition_en,
			vocabulary.example, vocabulary.pronunciation, vocabulary.difficulty_level,
			vocabulary.frequency, vocabulary.source_url, vocabulary.source_article_id,
			vocabulary.created_ts, vocabulary.updated_ts,
			COALESCE(history.avg_mastery, 0),
			COALESCE(history.review_count, 0),
			history.last_review_ts,
			COALESCE(history.accuracy, 0.5)
		FROM vocabulary
		LEFT JOIN (
			SELECT
				vocabulary_id,
				AVG(COALESCE(sentence_mastery, 0)) AS avg_mastery,
				COUNT(id) AS review_count,
				MAX(created_ts) AS last_review_ts,
				AVG(CASE WHEN is_correct THEN 1.0 ELSE 0.0 END) AS accuracy
			FROM learning_record
			WHERE user_id = $1 AND action_type = 'sentence_review'
			GROUP BY vocabulary_id
		) AS history ON vocabulary.id = history.vocabulary_id
		WHERE vocabulary.user_id = $2 AND vocabulary.example != ''`

	rows, err := d.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query review candidates")
	}
	defer rows.Close()

	list := make([]*store.ReviewCandidate, 0)
	for rows.Next() {
		var candidate store.ReviewCandidate
		var vocabulary store.Vocabulary
		var sourceArticleID sql.NullInt32
		var lastReviewTs sql.NullInt64
		if err := rows.Scan(
			&vocabulary.ID,
			&vocabulary.UID,
			&vocabulary.UserID,
			&vocabulary.Word,
			&vocabulary.POS,
			&vocabulary.DefinitionCN,
			&vocabulary.DefinitionEN,
			&vocabulary.Example,
			&vocabulary.Pronunciation,
			&vocabulary.DifficultyLevel,
			&vocabulary.Frequency,
			&vocabulary.SourceURL,
			&sourceArticleID,
			&vocabulary.CreatedTs,
			&vocabulary.UpdatedTs,
			&candidate.AvgSentenceMastery,
			&candidate.ReviewCount,
			&lastReviewTs,
			&candidate.Accuracy,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan review candidate")
		}
		if sourceArticleID.Valid {
			vocabulary.SourceArticleID = &sourceArticleID.Int32
		}
		if lastReviewTs.Valid {
			candidate.LastReviewTs = &lastReviewTs.Int64
		}
		candidate.Vocabulary = &vocabulary
		list = append(list, &candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate review candidates")
	}

	return list, nil
}

func (d *DB) GetSentenceReviewStats(ctx context.Context, userID string, periodDays int) (*store.SentenceReviewStats, error) {
	stats := store.SentenceReviewStats{ContextDistribution: map[string]int{}}
	windowClause := "user_id = $1 AND action_type = 'sentence_review' AND created_ts >= EXTRACT(EPOCH FROM NOW()) - $2 * 86400"

	if err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(AVG(sentence_mastery), 0) FROM learning_record WHERE "+windowClause,
		userID, periodDays,
	).Scan(&stats.TotalReviews, &stats.AvgSentenceMastery); err != nil {
		return nil, errors.Wrap(err, "failed to query sentence review stats")
	}

	rows, err := d.db.QueryContext(ctx,
		"SELECT context_type, COUNT(*) FROM learning_record WHERE "+windowClause+" AND context_type IS NOT NULL GROUP BY context_type",
		userID, periodDays,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query context distribution")
	}
	defer rows.Close()
	for rows.Next() {
		var contextType string
		var count int
		if err := rows.Scan(&contextType, &count); err != nil {
			return nil, errors.Wrap(err, "failed to scan context distribution")
		}
		stats.ContextDistribution[contextType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate context distribution")
	}

	return &stats, nil
}

func (d *DB) ListRecentSentenceReviews(ctx context.Context, userID string, limit int) ([]*store.RecentSentenceReview, error) {
	query := `
		SELECT
			vocabulary.word, COALESCE(learning_record.context_type, ''),
			learning_record.is_correct, learning_record.sentence_mastery,
			learning_record.created_ts
		FROM learning_record
		JOIN vocabulary ON vocabulary.id = learning_record.vocabulary_id
		WHERE learning_record.user_id = $1 AND learning_record.action_type = 'sentence_review'
		ORDER BY learning_record.created_ts DESC, learning_record.id DESC
		LIMIT $2`

	rows, err := d.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query recent sentence reviews")
	}
	defer rows.Close()

	list := make([]*store.RecentSentenceReview, 0)
	for rows.Next() {
		var review store.RecentSentenceReview
		var isCorrect sql.NullBool
		var sentenceMastery sql.NullInt32
		if err := rows.Scan(
			&review.Word,
			&review.ContextType,
			&isCorrect,
			&sentenceMastery,
			&review.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan recent sentence review")
		}
		if isCorrect.Valid {
			review.IsCorrect = &isCorrect.Bool
		}
		if sentenceMastery.Valid {
			review.SentenceMastery = &sentenceMastery.Int32
		}
		list = append(list, &review)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate recent sentence reviews")
	}

	return list, nil
}
