package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bivochat/stories/internal/model"
)

// PostgresStoryLikeRepo はPostgreSQLを使用したリアクションリポジトリ。
// UNIQUE(story_id, user_id)制約により組ごとの最大1行を保証する。
type PostgresStoryLikeRepo struct {
	db *sql.DB
}

// NewPostgresStoryLikeRepo はPostgresStoryLikeRepoを生成する。
func NewPostgresStoryLikeRepo(db *sql.DB) *PostgresStoryLikeRepo {
	return &PostgresStoryLikeRepo{db: db}
}

// Upsert はリアクションを冪等にUPSERTする。
// 一意制約を利用したINSERT ON CONFLICTで実装し、read-then-writeによる
// 重複行の発生を防ぐ。既存行がある場合はreaction_typeのみ上書きする。
func (r *PostgresStoryLikeRepo) Upsert(ctx context.Context, like *model.StoryLike) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO story_likes (id, story_id, user_id, reaction_type, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (story_id, user_id) DO UPDATE SET
		     reaction_type = EXCLUDED.reaction_type`,
		like.ID, like.StoryID, like.UserID, like.ReactionType, like.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert story like: %w", err)
	}
	return nil
}

// Delete は指定の組のリアクションを削除する。存在しない場合もエラーにしない。
func (r *PostgresStoryLikeRepo) Delete(ctx context.Context, storyID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM story_likes WHERE story_id = $1 AND user_id = $2`,
		storyID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete story like: %w", err)
	}
	return nil
}

// Exists は指定ユーザーがストーリーにリアクション済みかを返す。
func (r *PostgresStoryLikeRepo) Exists(ctx context.Context, storyID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM story_likes WHERE story_id = $1 AND user_id = $2)`,
		storyID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check story like: %w", err)
	}
	return exists, nil
}

// ListByStory は指定ストーリーのリアクション一覧をユーザー情報付きで返す。
func (r *PostgresStoryLikeRepo) ListByStory(ctx context.Context, storyID string) ([]StoryLikeWithUser, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT l.id, l.story_id, l.user_id, l.reaction_type, l.created_at,
		        COALESCE(u.name, ''), COALESCE(u.avatar_url, '')
		 FROM story_likes l
		 LEFT JOIN users u ON u.id = l.user_id
		 WHERE l.story_id = $1
		 ORDER BY l.created_at DESC`,
		storyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list story likes: %w", err)
	}
	defer rows.Close()

	var results []StoryLikeWithUser
	for rows.Next() {
		var row StoryLikeWithUser
		if err := rows.Scan(
			&row.ID, &row.StoryID, &row.UserID,
			&row.ReactionType, &row.CreatedAt,
			&row.UserName, &row.UserAvatarURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan story like: %w", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate story likes: %w", err)
	}

	return results, nil
}

// DeleteByUserID は指定ユーザーの全リアクションを削除する。
func (r *PostgresStoryLikeRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM story_likes WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user story likes: %w", err)
	}
	return nil
}

// compile-time interface check
var _ StoryLikeRepository = (*PostgresStoryLikeRepo)(nil)
