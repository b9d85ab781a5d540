package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bivochat/stories/internal/model"
)

// PostgresStoryRepo はPostgreSQLを使用したストーリーリポジトリ。
type PostgresStoryRepo struct {
	db *sql.DB
}

// NewPostgresStoryRepo はPostgresStoryRepoを生成する。
func NewPostgresStoryRepo(db *sql.DB) *PostgresStoryRepo {
	return &PostgresStoryRepo{db: db}
}

// storyColumns はstoriesテーブルの選択列。view_countはstory_viewsから導出する。
const storyColumns = `s.id, s.user_id, s.location, s.content, s.image_url, s.video_url,
	s.background_color, s.text_color, s.created_at, s.expires_at,
	(SELECT COUNT(*) FROM story_views v WHERE v.story_id = s.id) AS view_count`

// FindByID は指定IDのストーリーを取得する。見つからない場合はnilを返す。
// 失効済みでもそのまま返す。失効判定は呼び出し側が行う。
func (r *PostgresStoryRepo) FindByID(ctx context.Context, id string) (*model.Story, error) {
	story := &model.Story{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+storyColumns+` FROM stories s WHERE s.id = $1`,
		id,
	).Scan(
		&story.ID, &story.UserID, &story.Location,
		&story.Content, &story.ImageURL, &story.VideoURL,
		&story.BackgroundColor, &story.TextColor,
		&story.CreatedAt, &story.ExpiresAt, &story.ViewCount,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find story: %w", err)
	}

	return story, nil
}

// Create はストーリーを作成する。
func (r *PostgresStoryRepo) Create(ctx context.Context, story *model.Story) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO stories (id, user_id, location, content, image_url, video_url, background_color, text_color, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		story.ID, story.UserID, story.Location,
		story.Content, story.ImageURL, story.VideoURL,
		story.BackgroundColor, story.TextColor,
		story.CreatedAt, story.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert story: %w", err)
	}
	return nil
}

// ListActiveByLocation は指定地域の有効なストーリーを新しい順に返す。
// usersとのLEFT JOINによりオーナー欠損行も返し、スキップ判定は呼び出し側に委ねる。
// 失効判定は渡されたnowで行い、保存済みフラグ等には依存しない。
func (r *PostgresStoryRepo) ListActiveByLocation(ctx context.Context, location, viewerID string, now time.Time) ([]StoryFeedRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+storyColumns+`,
		        u.id, u.name, u.avatar_url, u.is_verified,
		        (SELECT COUNT(*) FROM story_likes l WHERE l.story_id = s.id) AS like_count,
		        (SELECT COUNT(*) FROM story_comments c WHERE c.story_id = s.id) AS comment_count,
		        EXISTS(SELECT 1 FROM story_likes l WHERE l.story_id = s.id AND l.user_id = $3) AS viewer_has_liked,
		        EXISTS(SELECT 1 FROM story_views v WHERE v.story_id = s.id AND v.user_id = $3) AS viewer_has_viewed
		 FROM stories s
		 LEFT JOIN users u ON u.id = s.user_id
		 WHERE s.location = $1 AND s.expires_at > $2
		 ORDER BY s.created_at DESC`,
		location, now, viewerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list active stories: %w", err)
	}
	defer rows.Close()

	var results []StoryFeedRow
	for rows.Next() {
		var row StoryFeedRow
		var ownerID, ownerName, ownerAvatar sql.NullString
		var ownerVerified sql.NullBool

		if err := rows.Scan(
			&row.ID, &row.UserID, &row.Location,
			&row.Content, &row.ImageURL, &row.VideoURL,
			&row.BackgroundColor, &row.TextColor,
			&row.CreatedAt, &row.ExpiresAt, &row.ViewCount,
			&ownerID, &ownerName, &ownerAvatar, &ownerVerified,
			&row.LikeCount, &row.CommentCount,
			&row.ViewerHasLiked, &row.ViewerHasViewed,
		); err != nil {
			return nil, fmt.Errorf("failed to scan story row: %w", err)
		}

		row.HasOwner = ownerID.Valid
		row.OwnerName = ownerName.String
		row.OwnerAvatarURL = ownerAvatar.String
		row.OwnerVerified = ownerVerified.Bool

		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate story rows: %w", err)
	}

	return results, nil
}

// ListActiveByOwner は指定ユーザー自身の有効なストーリーを新しい順に返す。
func (r *PostgresStoryRepo) ListActiveByOwner(ctx context.Context, ownerID string, now time.Time) ([]*model.Story, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+storyColumns+`
		 FROM stories s
		 WHERE s.user_id = $1 AND s.expires_at > $2
		 ORDER BY s.created_at DESC`,
		ownerID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories by owner: %w", err)
	}
	defer rows.Close()

	var results []*model.Story
	for rows.Next() {
		story := &model.Story{}
		if err := rows.Scan(
			&story.ID, &story.UserID, &story.Location,
			&story.Content, &story.ImageURL, &story.VideoURL,
			&story.BackgroundColor, &story.TextColor,
			&story.CreatedAt, &story.ExpiresAt, &story.ViewCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		results = append(results, story)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stories: %w", err)
	}

	return results, nil
}

// DeleteByUserID は指定ユーザーの全ストーリーを削除する。
// story_views、story_likes、story_commentsはCASCADE削除される。
func (r *PostgresStoryRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM stories WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user stories: %w", err)
	}
	return nil
}

// compile-time interface check
var _ StoryRepository = (*PostgresStoryRepo)(nil)
