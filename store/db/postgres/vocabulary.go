package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/vocasense/vocasense/store"
)

func (d *DB) CreateVocabulary(ctx context.Context, create *store.Vocabulary) (*store.Vocabulary, error) {
	fields := []string{
		"uid", "user_id", "word", "pos", "definition_cn", "definition_en",
		"example", "pronunciation", "difficulty_level", "frequency",
		"source_url", "source_article_id",
	}
	placeholderValues := []any{
		create.UID, create.UserID, create.Word, create.POS, create.DefinitionCN, create.DefinitionEN,
		create.Example, create.Pronunciation, create.DifficultyLevel, create.Frequency,
		create.SourceURL, create.SourceArticleID,
	}

	stmt := `INSERT INTO vocabulary (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(placeholderValues)) + `)
		RETURNING id, created_ts, updated_ts`

	if err := d.db.QueryRowContext(ctx, stmt, placeholderValues...).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create vocabulary")
	}

	return create, nil
}

func (d *DB) ListVocabularies(ctx context.Context, find *store.FindVocabulary) ([]*store.Vocabulary, error) {
	where, args := []string{"TRUE"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "vocabulary.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "vocabulary.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UserID; v != nil {
		where, args = append(where, "vocabulary.user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Word; v != nil {
		where, args = append(where, "vocabulary.word = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Search; v != nil {
		pattern := "%" + *v + "%"
		clause := fmt.Sprintf(
			"(vocabulary.word LIKE %s OR vocabulary.definition_cn LIKE %s OR vocabulary.definition_en LIKE %s)",
			placeholder(len(args)+1), placeholder(len(args)+2), placeholder(len(args)+3),
		)
		where = append(where, clause)
		args = append(args, pattern, pattern, pattern)
	}
	if v := find.DifficultyLevel; v != nil {
		where, args = append(where, "vocabulary.difficulty_level = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.HasExample; v != nil {
		if *v {
			where = append(where, "vocabulary.example != ''")
		} else {
			where = append(where, "vocabulary.example = ''")
		}
	}

	orderBy := "ORDER BY " + vocabularySortColumn(find.SortBy)
	if strings.ToLower(find.SortOrder) == "asc" {
		orderBy += " ASC"
	} else {
		orderBy += " DESC"
	}

	query := `
		SELECT
			id, uid, user_id, word, pos, definition_cn, definition_en,
			example, pronunciation, difficulty_level, frequency,
			source_url, source_article_id, created_ts, updated_ts
		FROM vocabulary
		WHERE ` + strings.Join(where, " AND ") + ` ` + orderBy

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query vocabularies")
	}
	defer rows.Close()

	list := make([]*store.Vocabulary, 0)
	for rows.Next() {
		vocabulary, err := scanVocabulary(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, vocabulary)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate vocabularies")
	}

	return list, nil
}

func scanVocabulary(rows *sql.Rows) (*store.Vocabulary, error) {
	var vocabulary store.Vocabulary
	var sourceArticleID sql.NullInt32
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
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan vocabulary")
	}
	if sourceArticleID.Valid {
		vocabulary.SourceArticleID = &sourceArticleID.Int32
	}
	return &vocabulary, nil
}

// vocabularySortColumn whitelists sortable columns.
func vocabularySortColumn(sortBy string) string {
	switch sortBy {
	case "word":
		return "vocabulary.word"
	case "frequency":
		return "vocabulary.frequency"
	case "updated_ts":
		return "vocabulary.updated_ts"
	default:
		return "vocabulary.created_ts"
	}
}

func (d *DB) UpdateVocabulary(ctx context.Context, update *store.UpdateVocabulary) error {
	set, args := []string{}, []any{}
	appendSet := func(column string, value any) {
		set = append(set, fmt.Sprintf("%s = %s", column, placeholder(len(args)+1)))
		args = append(args, value)
	}
	if v := update.POS; v != nil {
		appendSet("pos", *v)
	}
	if v := update.DefinitionCN; v != nil {
		appendSet("definition_cn", *v)
	}
	if v := update.DefinitionEN; v != nil {
		appendSet("definition_en", *v)
	}
	if v := update.Example; v != nil {
		appendSet("example", *v)
	}
	if v := update.Pronunciation; v != nil {
		appendSet("pronunciation", *v)
	}
	if v := update.DifficultyLevel; v != nil {
		appendSet("difficulty_level", *v)
	}
	if v := update.Frequency; v != nil {
		appendSet("frequency", *v)
	}
	if v := update.SourceURL; v != nil {
		appendSet("source_url", *v)
	}
	if v := update.SourceArticleID; v != nil {
		appendSet("source_article_id", *v)
	}
	if v := update.UpdatedTs; v != nil {
		appendSet("updated_ts", *v)
	} else {
		set = append(set, "updated_ts = EXTRACT(EPOCH FROM NOW())")
	}
	if len(set) == 0 {
		return nil
	}

	stmt := `UPDATE vocabulary SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)+1)
	args = append(args, update.ID)
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to update vocabulary")
	}
	return nil
}

func (d *DB) DeleteVocabulary(ctx context.Context, delete *store.DeleteVocabulary) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM learning_record WHERE vocabulary_id = $1 AND user_id = $2",
		delete.ID, delete.UserID,
	); err != nil {
		return errors.Wrap(err, "failed to delete learning records")
	}
	result, err := tx.ExecContext(ctx,
		"DELETE FROM vocabulary WHERE id = $1 AND user_id = $2",
		delete.ID, delete.UserID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to delete vocabulary")
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}

	return tx.Commit()
}

func (d *DB) GetVocabularyStats(ctx context.Context, userID string) (*store.VocabularyStats, error) {
	stats := store.VocabularyStats{DifficultyDistribution: map[string]int{}}

	if err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vocabulary WHERE user_id = $1",
		userID,
	).Scan(&stats.TotalCount); err != nil {
		return nil, errors.Wrap(err, "failed to count vocabulary")
	}

	if err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vocabulary WHERE user_id = $1 AND created_ts >= EXTRACT(EPOCH FROM NOW()) - 7 * 86400",
		userID,
	).Scan(&stats.RecentCount); err != nil {
		return nil, errors.Wrap(err, "failed to count recent vocabulary")
	}

	rows, err := d.db.QueryContext(ctx,
		"SELECT difficulty_level, COUNT(*) FROM vocabulary WHERE user_id = $1 GROUP BY difficulty_level",
		userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query difficulty distribution")
	}
	defer rows.Close()
	for rows.Next() {
		var level string
		var count int
		if err := rows.Scan(&level, &count); err != nil {
			return nil, errors.Wrap(err, "failed to scan difficulty distribution")
		}
		stats.DifficultyDistribution[level] = count
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate difficulty distribution")
	}

	return &stats, nil
}
