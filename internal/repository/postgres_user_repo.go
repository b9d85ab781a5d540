package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bivochat/stories/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx,
		`SELECT id, phone, name, location, avatar_url, is_verified, is_online, last_seen_at, created_at, updated_at
		 FROM users WHERE id = $1`,
		id,
	)
}

// FindByPhone は電話番号でユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	return r.findOne(ctx,
		`SELECT id, phone, name, location, avatar_url, is_verified, is_online, last_seen_at, created_at, updated_at
		 FROM users WHERE phone = $1`,
		phone,
	)
}

// findOne は単一ユーザーを取得する共通処理。
func (r *PostgresUserRepo) findOne(ctx context.Context, query string, arg any) (*model.User, error) {
	user := &model.User{}
	var lastSeenAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Phone, &user.Name, &user.Location,
		&user.AvatarURL, &user.IsVerified, &user.IsOnline,
		&lastSeenAt, &user.CreatedAt, &user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if lastSeenAt.Valid {
		user.LastSeenAt = &lastSeenAt.Time
	}

	return user, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, phone, name, location, avatar_url, is_verified, is_online, last_seen_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		user.ID, user.Phone, user.Name, user.Location,
		user.AvatarURL, user.IsVerified, user.IsOnline,
		user.LastSeenAt, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// UpdateLocation はユーザーの地域を更新する。
// storiesテーブルのlocationは投稿時に凍結されたコピーであり、ここでは変更しない。
func (r *PostgresUserRepo) UpdateLocation(ctx context.Context, id, location string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET location = $2, updated_at = now() WHERE id = $1`,
		id, location,
	)
	if err != nil {
		return fmt.Errorf("failed to update user location: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// DeleteByID は指定IDのユーザーを削除する。
// 関連するsessions、stories、story_views、story_likes、story_commentsは
// CASCADE削除される。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
