package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bivochat/stories/internal/model"
)

// PostgresStoryCommentRepo はPostgreSQLを使用したコメントリポジトリ。
type PostgresStoryCommentRepo struct {
	db *sql.DB
}

// NewPostgresStoryCommentRepo はPostgresStoryCommentRepoを生成する。
func NewPostgresStoryCommentRepo(db *sql.DB) *PostgresStoryCommentRepo {
	return &PostgresStoryCommentRepo{db: db}
}

// Create はコメントを作成する。既存コメントを変更することはない。
func (r *PostgresStoryCommentRepo) Create(ctx context.Context, comment *model.StoryComment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO story_comments (id, story_id, user_id, content, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		comment.ID, comment.StoryID, comment.UserID, comment.Content, comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert story comment: %w", err)
	}
	return nil
}

// ListByStory は指定ストーリーのコメント一覧をcreated_at昇順（古い順）で返す。
func (r *PostgresStoryCommentRepo) ListByStory(ctx context.Context, storyID string) ([]StoryCommentWithUser, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.story_id, c.user_id, c.content, c.created_at,
		        COALESCE(u.name, ''), COALESCE(u.avatar_url, '')
		 FROM story_comments c
		 LEFT JOIN users u ON u.id = c.user_id
		 WHERE c.story_id = $1
		 ORDER BY c.created_at ASC`,
		storyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list story comments: %w", err)
	}
	defer rows.Close()

	var results []StoryCommentWithUser
	for rows.Next() {
		var row StoryCommentWithUser
		if err := rows.Scan(
			&row.ID, &row.StoryID, &row.UserID,
			&row.Content, &row.CreatedAt,
			&row.UserName, &row.UserAvatarURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan story comment: %w", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate story comments: %w", err)
	}

	return results, nil
}

// DeleteByUserID は指定ユーザーの全コメントを削除する。
func (r *PostgresStoryCommentRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM story_comments WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user story comments: %w", err)
	}
	return nil
}

// compile-time interface check
var _ StoryCommentRepository = (*PostgresStoryCommentRepo)(nil)
