// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/bivochat/stories/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByPhone は電話番号でユーザーを検索する。見つからない場合はnilを返す。
	FindByPhone(ctx context.Context, phone string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// UpdateLocation はユーザーの地域を更新する。
	// 既存ストーリーのLocationは投稿時に凍結されているため影響を受けない。
	UpdateLocation(ctx context.Context, id, location string) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するsessions、stories、story_views、story_likes、story_commentsは
	// CASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// StoryRepository はストーリーデータの永続化インターフェース。
// 失効は保存時に計算済みのexpires_atと呼び出し時刻の比較で判定され、
// 削除イベントには依存しない。
type StoryRepository interface {
	// FindByID は指定IDのストーリーを取得する。見つからない場合はnilを返す。
	// ViewCountはstory_viewsのCOUNT(*)から導出される。
	// 失効済みストーリーもそのまま返す（失効判定は呼び出し側の責務）。
	FindByID(ctx context.Context, id string) (*model.Story, error)

	// Create はストーリーを作成する。
	Create(ctx context.Context, story *model.Story) error

	// ListActiveByLocation は指定地域の有効なストーリーを新しい順に返す。
	// オーナー情報・エンゲージメント数・閲覧者自身のリアクション/閲覧フラグを
	// 結合して取得する。expires_at > now のもののみ対象。
	ListActiveByLocation(ctx context.Context, location, viewerID string, now time.Time) ([]StoryFeedRow, error)

	// ListActiveByOwner は指定ユーザー自身の有効なストーリーを新しい順に返す。
	// オーナーは地域に関係なく自分のストーリーを閲覧できる。
	ListActiveByOwner(ctx context.Context, ownerID string, now time.Time) ([]*model.Story, error)

	// DeleteByUserID は指定ユーザーの全ストーリーを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// StoryViewRepository はストーリー閲覧記録の永続化インターフェース。
// (story_id, user_id) の一意制約により冪等性を保証する。
type StoryViewRepository interface {
	// Record は閲覧を冪等に記録する。
	// 新規に記録された場合はtrue、既に閲覧済みの場合はfalseを返す。
	// 挿入と重複判定は単一の原子的な操作で行い、read-then-writeはしない。
	Record(ctx context.Context, view *model.StoryView) (bool, error)

	// CountByStory は指定ストーリーの閲覧者数を返す。
	CountByStory(ctx context.Context, storyID string) (int, error)

	// ListViewerIDs は指定ストーリーの閲覧者IDを返す。順序は保証しない。
	ListViewerIDs(ctx context.Context, storyID string) ([]string, error)

	// DeleteByUserID は指定ユーザーの全閲覧記録を削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// StoryLikeRepository はストーリーリアクションの永続化インターフェース。
// (story_id, user_id) の組につき最大1行の不変条件を一意制約で強制する。
type StoryLikeRepository interface {
	// Upsert はリアクションを冪等にUPSERTする。
	// 既存行がある場合はreaction_typeのみ上書きする。
	Upsert(ctx context.Context, like *model.StoryLike) error

	// Delete は指定の組のリアクションを削除する。存在しない場合もエラーにしない。
	Delete(ctx context.Context, storyID, userID string) error

	// Exists は指定ユーザーがストーリーにリアクション済みかを返す。
	Exists(ctx context.Context, storyID, userID string) (bool, error)

	// ListByStory は指定ストーリーのリアクション一覧をユーザー情報付きで返す。
	ListByStory(ctx context.Context, storyID string) ([]StoryLikeWithUser, error)

	// DeleteByUserID は指定ユーザーの全リアクションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// StoryCommentRepository はストーリーコメントの永続化インターフェース。
type StoryCommentRepository interface {
	// Create はコメントを作成する。
	Create(ctx context.Context, comment *model.StoryComment) error

	// ListByStory は指定ストーリーのコメント一覧をユーザー情報付きで
	// created_at昇順（古い順）で返す。
	ListByStory(ctx context.Context, storyID string) ([]StoryCommentWithUser, error)

	// DeleteByUserID は指定ユーザーの全コメントを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// StoryFeedRow はストーリーとオーナー情報、エンゲージメント数を結合した構造体。
// HasOwnerがfalseの行はオーナーが欠損しており、一覧からスキップされる。
type StoryFeedRow struct {
	model.Story
	HasOwner        bool
	OwnerName       string
	OwnerAvatarURL  string
	OwnerVerified   bool
	LikeCount       int
	CommentCount    int
	ViewerHasLiked  bool
	ViewerHasViewed bool
}

// StoryLikeWithUser はリアクションとユーザー情報を結合した構造体。
type StoryLikeWithUser struct {
	model.StoryLike
	UserName      string
	UserAvatarURL string
}

// StoryCommentWithUser はコメントとユーザー情報を結合した構造体。
type StoryCommentWithUser struct {
	model.StoryComment
	UserName      string
	UserAvatarURL string
}
