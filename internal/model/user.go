// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// Location はストーリーの可視範囲を決める自由記述の地域文字列。
type User struct {
	ID         string
	Phone      string
	Name       string
	Location   string
	AvatarURL  string
	IsVerified bool
	IsOnline   bool
	LastSeenAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
