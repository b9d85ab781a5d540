// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bivochat/stories/internal/model"
	"github.com/bivochat/stories/internal/repository"
)

// Service はユーザー管理のサービス層。
// プロフィール取得、地域更新、退会処理のビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	storyRepo   repository.StoryRepository
	viewRepo    repository.StoryViewRepository
	likeRepo    repository.StoryLikeRepository
	commentRepo repository.StoryCommentRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	storyRepo repository.StoryRepository,
	viewRepo repository.StoryViewRepository,
	likeRepo repository.StoryLikeRepository,
	commentRepo repository.StoryCommentRepository,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		storyRepo:   storyRepo,
		viewRepo:    viewRepo,
		likeRepo:    likeRepo,
		commentRepo: commentRepo,
	}
}

// GetUser は指定IDのユーザーを取得する。見つからない場合はUSER_NOT_FOUNDエラー。
func (s *Service) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateLocation はユーザーの現在地域を更新する。
// 既存ストーリーの地域は作成時に固定されており、この更新の影響を受けない。
// 以後に作成されるストーリーのみが新しい地域に属する。
func (s *Service) UpdateLocation(ctx context.Context, userID, location string) error {
	if location == "" {
		return model.NewInvalidLocationError()
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	if err := s.userRepo.UpdateLocation(ctx, userID, location); err != nil {
		return fmt.Errorf("地域の更新に失敗しました: %w", err)
	}

	slog.Info("地域を更新しました",
		slog.String("user_id", userID),
		slog.String("location", location),
	)

	return nil
}

// Withdraw はユーザーの退会処理を実行する。
// 削除順序: 閲覧記録 → リアクション → コメント → ストーリー → セッション → ユーザー
// 自分のストーリーに紐づく他ユーザーの閲覧・リアクション・コメントは
// ストーリー削除時にCASCADE削除される。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理を開始します", slog.String("user_id", userID))

	// 1. 他ユーザーのストーリーに残した閲覧記録を削除
	if err := s.viewRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("閲覧記録の削除に失敗しました: %w", err)
	}

	// 2. リアクションを削除
	if err := s.likeRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("リアクションの削除に失敗しました: %w", err)
	}

	// 3. コメントを削除
	if err := s.commentRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("コメントの削除に失敗しました: %w", err)
	}

	// 4. 自分のストーリーを削除（紐づく閲覧・リアクション・コメントはCASCADE削除）
	if err := s.storyRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("ストーリーの削除に失敗しました: %w", err)
	}

	// 5. セッションを削除
	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("セッションの削除に失敗しました: %w", err)
	}

	// 6. ユーザーを削除
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました", slog.String("user_id", userID))

	return nil
}
