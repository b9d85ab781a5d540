// Package model はドメインモデルを定義する。
package model

import "time"

// Story は24時間で失効するエフェメラル投稿を表す。
// Location は投稿時点のオーナーのLocationを凍結したもので、
// オーナーが後から移動しても過去のストーリーの可視範囲は変わらない。
type Story struct {
	ID              string
	UserID          string
	Location        string
	Content         string
	ImageURL        string
	VideoURL        string
	BackgroundColor string
	TextColor       string
	CreatedAt       time.Time
	ExpiresAt       time.Time

	// ViewCount はstory_viewsの行数から導出される閲覧者数。
	// 冗長に保持せず、常にCOUNT(*)で算出する。
	ViewCount int
}

// IsActive は指定時刻においてストーリーが有効かを返す。
// 失効は明示的な状態遷移ではなく、読み取りごとに評価される述語。
func (s *Story) IsActive(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// ReactionType はストーリーへのリアクション種別を表す。
type ReactionType string

const (
	// ReactionLike は「いいね」リアクション。
	ReactionLike ReactionType = "like"
	// ReactionLove は「ハート」リアクション。
	ReactionLove ReactionType = "love"
	// ReactionHaha は「笑い」リアクション。
	ReactionHaha ReactionType = "haha"
	// ReactionWow は「驚き」リアクション。
	ReactionWow ReactionType = "wow"
	// ReactionSad は「悲しみ」リアクション。
	ReactionSad ReactionType = "sad"
)

// ValidReactionTypes は許可されるリアクション種別のセット。
var ValidReactionTypes = map[ReactionType]bool{
	ReactionLike: true,
	ReactionLove: true,
	ReactionHaha: true,
	ReactionWow:  true,
	ReactionSad:  true,
}

// StoryView はユーザーによるストーリーの閲覧記録を表す。
// (StoryID, UserID) の組で一意であり、重複閲覧は記録されない。
type StoryView struct {
	ID       string
	StoryID  string
	UserID   string
	ViewedAt time.Time
}

// StoryLike はストーリーへのリアクションを表す。
// (StoryID, UserID) の組につき最大1行。再リアクションはReactionTypeを上書きする。
type StoryLike struct {
	ID           string
	StoryID      string
	UserID       string
	ReactionType ReactionType
	CreatedAt    time.Time
}

// StoryComment はストーリーへのコメントを表す。追記のみで編集されない。
type StoryComment struct {
	ID        string
	StoryID   string
	UserID    string
	Content   string
	CreatedAt time.Time
}
