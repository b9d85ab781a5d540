// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, story, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUserNotFound     = "USER_NOT_FOUND"
	ErrCodeStoryNotFound    = "STORY_NOT_FOUND"
	ErrCodeEmptyStory       = "EMPTY_STORY"
	ErrCodeEmptyComment     = "EMPTY_COMMENT"
	ErrCodeInvalidReaction  = "INVALID_REACTION"
	ErrCodeInvalidMediaURL  = "INVALID_MEDIA_URL"
	ErrCodeMediaURLBlocked  = "MEDIA_URL_BLOCKED"
	ErrCodeStoryExpired     = "STORY_EXPIRED"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeInvalidLocation  = "INVALID_LOCATION"
	ErrCodeVerifyFailed     = "VERIFICATION_FAILED"
)

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewStoryNotFoundError はストーリー未検出エラーを生成する。
func NewStoryNotFoundError(storyID string) *APIError {
	return &APIError{
		Code:     ErrCodeStoryNotFound,
		Message:  fmt.Sprintf("指定されたストーリーが見つかりません: %s", storyID),
		Category: "story",
		Action:   "ストーリーIDを確認してください。",
	}
}

// NewEmptyStoryError はテキストもメディアもないストーリー作成エラーを生成する。
func NewEmptyStoryError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyStory,
		Message:  "ストーリーにはテキスト、画像、動画のいずれかが必要です。",
		Category: "validation",
		Action:   "内容を入力するかメディアを添付してください。",
	}
}

// NewEmptyCommentError は空コメントエラーを生成する。
func NewEmptyCommentError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyComment,
		Message:  "コメントが空です。",
		Category: "validation",
		Action:   "コメント本文を入力してください。",
	}
}

// NewInvalidReactionError は無効なリアクション種別エラーを生成する。
func NewInvalidReactionError(reaction string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidReaction,
		Message:  fmt.Sprintf("無効なリアクションです: %s", reaction),
		Category: "validation",
		Action:   "リアクションには like、love、haha、wow、sad のいずれかを指定してください。",
	}
}

// NewInvalidMediaURLError は無効なメディアURLエラーを生成する。
func NewInvalidMediaURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidMediaURL,
		Message:  fmt.Sprintf("無効なメディアURLです: %s", reason),
		Category: "validation",
		Action:   "正しいURL形式（https:// で始まるURL）を指定してください。",
	}
}

// NewMediaURLBlockedError はセキュリティポリシーによるメディアURLブロックエラーを生成する。
func NewMediaURLBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeMediaURLBlocked,
		Message:  "セキュリティポリシーにより、指定されたメディアURLへのアクセスがブロックされました。",
		Category: "validation",
		Action:   "公開されているメディアのURLを指定してください。ローカルネットワークやプライベートIPは許可されていません。",
	}
}

// NewStoryExpiredError は失効済みストーリーへの操作エラーを生成する。
func NewStoryExpiredError(storyID string) *APIError {
	return &APIError{
		Code:     ErrCodeStoryExpired,
		Message:  fmt.Sprintf("ストーリーは既に失効しています: %s", storyID),
		Category: "story",
		Action:   "有効期限内のストーリーを指定してください。",
	}
}

// NewConflictError は競合する同時更新が検出された場合のエラーを生成する。
// 呼び出し側で1回だけ内部リトライしてから表面化させる。
func NewConflictError(resource string) *APIError {
	return &APIError{
		Code:     ErrCodeConflict,
		Message:  fmt.Sprintf("同時更新の競合が検出されました: %s", resource),
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInvalidLocationError は無効な地域文字列エラーを生成する。
func NewInvalidLocationError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidLocation,
		Message:  "地域が空です。",
		Category: "validation",
		Action:   "地域を入力してください。",
	}
}

// NewVerifyFailedError は本人確認失敗エラーを生成する。
func NewVerifyFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeVerifyFailed,
		Message:  "認証コードの検証に失敗しました。",
		Category: "auth",
		Action:   "コードを確認して再度お試しください。",
	}
}
