package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

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
		return nil, fmt.Errorf("failed to create vocabulary: %w", err)
	}

	return create, nil
}

func (d *DB) ListVocabularies(ctx context.Context, find *store.FindVocabulary) ([]*store.Vocabulary, error) {
	where, args := []string{"1 = 1"}, []any{}

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
		where = append(where, "(vocabulary.word LIKE ? OR vocabulary.definition_cn LIKE ? OR vocabulary.definition_en LIKE ?)")
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
		return nil, fmt.Errorf("failed to query vocabularies: %w", err)
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
		return nil, fmt.Errorf("failed to iterate vocabularies: %w", err)
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
		return nil, fmt.Errorf("failed to scan vocabulary: %w", err)
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
	if v := update.POS; v != nil {
		set, args = append(set, "pos = ?"), append(args, *v)
	}
	if v := update.DefinitionCN; v != nil {
		set, args = append(set, "definition_cn = ?"), append(args, *v)
	}
	if v := update.DefinitionEN; v != nil {
		set, args = append(set, "definition_en = ?"), append(args, *v)
	}
	if v := update.Example; v != nil {
		set, args = append(set, "example = ?"), append(args, *v)
	}
	if v := update.Pronunciation; v != nil {
		set, args = append(set, "pronunciation = ?"), append(args, *v)
	}
	if v := update.DifficultyLevel; v != nil {
		set, args = append(set, "difficulty_level = ?"), append(args, *v)
	}
	if v := update.Frequency; v != nil {
		set, args = append(set, "frequency = ?"), append(args, *v)
	}
	if v := update.SourceURL; v != nil {
		set, args = append(set, "source_url = ?"), append(args, *v)
	}
	if v := update.SourceArticleID; v != nil {
		set, args = append(set, "source_article_id = ?"), append(args, *v)
	}
	if v := update.UpdatedTs; v != nil {
		set, args = append(set, "updated_ts = ?"), append(args, *v)
	} else {
		set = append(set, "updated_ts = (strftime('%s', 'now'))")
	}
	if len(set) == 0 {
		return nil
	}

	stmt := `UPDATE vocabulary SET ` + strings.Join(set, ", ") + ` WHERE id = ?`
	args = append(args, update.ID)
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to update vocabulary: %w", err)
	}
	return nil
}

func (d *DB) DeleteVocabulary(ctx context.Context, delete *store.DeleteVocabulary) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM learning_record WHERE vocabulary_id = ? AND user_id = ?",
		delete.ID, delete.UserID,
	); err != nil {
		return fmt.Errorf("failed to delete learning records: %w", err)
	}
	result, err := tx.ExecContext(ctx,
		"DELETE FROM vocabulary WHERE id = ? AND user_id = ?",
		delete.ID, delete.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete vocabulary: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}

	return tx.Commit()
}

func (d *DB) GetVocabularyStats(ctx context.Context, userID string) (*store.VocabularyStats, error) {
	stats := store.VocabularyStats{DifficultyDistribution: map[string]int{}}

	if err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vocabulary WHERE user_id = ?",
		userID,
	).Scan(&stats.TotalCount); err != nil {
		return nil, fmt.Errorf("failed to count vocabulary: %w", err)
	}

	if err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vocabulary WHERE user_id = ? AND created_ts >= (strftime('%s', 'now') - 7 * 86400)",
		userID,
	).Scan(&stats.RecentCount); err != nil {
		return nil, fmt.Errorf("failed to count recent vocabulary: %w", err)
	}

	rows, err := d.db.QueryContext(ctx,
		"SELECT difficulty_level, COUNT(*) FROM vocabulary WHERE user_id = ? GROUP BY difficulty_level",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query difficulty distribution: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var level string
		var count int
		if err := rows.Scan(&level, &count); err != nil {
			return nil, fmt.Errorf("failed to scan difficulty distribution: %w", err)
		}
		stats.DifficultyDistribution[level] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate difficulty distribution: %w", err)
	}

	return &stats, nil
}
