package story

import (
	"log/slog"
	"time"

	"github.com/bivochat/stories/internal/repository"
)

// FeedStory はフィードに表示する1ストーリーの読み取りモデル。
// ストーリー本体、オーナー情報、エンゲージメント数、
// 閲覧ユーザー自身の既読・リアクション状態を1つにまとめる。
type FeedStory struct {
	ID              string
	UserID          string
	UserName        string
	UserAvatarURL   string
	UserVerified    bool
	Location        string
	Content         string
	ImageURL        string
	VideoURL        string
	BackgroundColor string
	TextColor       string
	CreatedAt       time.Time
	ExpiresAt       time.Time
	ViewCount       int
	LikeCount       int
	CommentCount    int
	HasViewed       bool
	HasLiked        bool
}

// ComposeFeed はストレージの行をフィードの読み取りモデルへ変換する。
// オーナーが存在しない行（退会後の残骸等）はスキップしてログに残す。
// 1件の不整合が一覧全体を失敗させることはない。
func ComposeFeed(rows []repository.StoryFeedRow) []FeedStory {
	feed := make([]FeedStory, 0, len(rows))
	for _, row := range rows {
		if !row.HasOwner {
			slog.Warn("オーナー不在のストーリーをスキップします",
				slog.String("story_id", row.ID),
				slog.String("user_id", row.UserID),
			)
			continue
		}

		feed = append(feed, FeedStory{
			ID:              row.ID,
			UserID:          row.UserID,
			UserName:        row.OwnerName,
			UserAvatarURL:   row.OwnerAvatarURL,
			UserVerified:    row.OwnerVerified,
			Location:        row.Location,
			Content:         row.Content,
			ImageURL:        row.ImageURL,
			VideoURL:        row.VideoURL,
			BackgroundColor: row.BackgroundColor,
			TextColor:       row.TextColor,
			CreatedAt:       row.CreatedAt,
			ExpiresAt:       row.ExpiresAt,
			ViewCount:       row.ViewCount,
			LikeCount:       row.LikeCount,
			CommentCount:    row.CommentCount,
			HasViewed:       row.ViewerHasViewed,
			HasLiked:        row.ViewerHasLiked,
		})
	}
	return feed
}
