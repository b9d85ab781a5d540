package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bivochat/stories/internal/model"
)

// PostgresStoryViewRepo はPostgreSQLを使用した閲覧記録リポジトリ。
// UNIQUE(story_id, user_id)制約により閲覧の冪等性を保証する。
type PostgresStoryViewRepo struct {
	db *sql.DB
}

// NewPostgresStoryViewRepo はPostgresStoryViewRepoを生成する。
func NewPostgresStoryViewRepo(db *sql.DB) *PostgresStoryViewRepo {
	return &PostgresStoryViewRepo{db: db}
}

// Record は閲覧を冪等に記録する。
// INSERT ON CONFLICT DO NOTHINGにより、挿入と重複判定を単一の原子的操作で行う。
// 新規に記録された場合はtrue、既に閲覧済みの場合はfalseを返す。
func (r *PostgresStoryViewRepo) Record(ctx context.Context, view *model.StoryView) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO story_views (id, story_id, user_id, viewed_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (story_id, user_id) DO NOTHING`,
		view.ID, view.StoryID, view.UserID, view.ViewedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to record story view: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// CountByStory は指定ストーリーの閲覧者数を返す。
func (r *PostgresStoryViewRepo) CountByStory(ctx context.Context, storyID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM story_views WHERE story_id = $1`,
		storyID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count story views: %w", err)
	}
	return count, nil
}

// ListViewerIDs は指定ストーリーの閲覧者IDを返す。
func (r *PostgresStoryViewRepo) ListViewerIDs(ctx context.Context, storyID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM story_views WHERE story_id = $1`,
		storyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list story viewers: %w", err)
	}
	defer rows.Close()

	var viewerIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan viewer ID: %w", err)
		}
		viewerIDs = append(viewerIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate viewers: %w", err)
	}

	return viewerIDs, nil
}

// DeleteByUserID は指定ユーザーの全閲覧記録を削除する。
func (r *PostgresStoryViewRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM story_views WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user story views: %w", err)
	}
	return nil
}

// compile-time interface check
var _ StoryViewRepository = (*PostgresStoryViewRepo)(nil)
