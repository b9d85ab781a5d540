// Package story はストーリーのライフサイクルと可視性のドメインロジックを提供する。
//
// ストーリーは作成から一定時間（デフォルト24時間）で失効する。
// 失効は expires_at と現在時刻の比較のみで判定され、保存済みフラグや
// バックグラウンドジョブには依存しない。クリーンアップワーカーは
// ストレージ回収のためだけに存在し、正しさには寄与しない。
package story

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bivochat/stories/internal/metrics"
	"github.com/bivochat/stories/internal/model"
	"github.com/bivochat/stories/internal/repository"
	"github.com/bivochat/stories/internal/security"
)

// DefaultTTL はストーリーの有効期間のデフォルト値。
const DefaultTTL = 24 * time.Hour

// Policy はストーリーエンジンの動作ポリシー。設定から構築する。
type Policy struct {
	// TTL はストーリーの有効期間。
	TTL time.Duration
	// RejectEmpty がtrueの場合、テキストもメディアもないストーリーの作成を拒否する。
	RejectEmpty bool
	// AllowExpiredView がtrueの場合、失効済みストーリーの閲覧記録を許可する。
	// falseの場合はSTORY_EXPIREDエラーを返す。
	AllowExpiredView bool
}

// DefaultPolicy はデフォルトのポリシーを返す。
func DefaultPolicy() Policy {
	return Policy{
		TTL:              DefaultTTL,
		RejectEmpty:      true,
		AllowExpiredView: true,
	}
}

// Service はストーリーエンジンのサービス層。
type Service struct {
	userRepo    repository.UserRepository
	storyRepo   repository.StoryRepository
	viewRepo    repository.StoryViewRepository
	likeRepo    repository.StoryLikeRepository
	commentRepo repository.StoryCommentRepository
	sanitizer   security.ContentSanitizerService
	mediaGuard  security.MediaGuardService
	collector   metrics.MetricsCollector
	policy      Policy

	// nowFn は現在時刻の取得関数。テストで差し替える。
	nowFn func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// collectorはnilを許容する（テスト時）。
func NewService(
	userRepo repository.UserRepository,
	storyRepo repository.StoryRepository,
	viewRepo repository.StoryViewRepository,
	likeRepo repository.StoryLikeRepository,
	commentRepo repository.StoryCommentRepository,
	sanitizer security.ContentSanitizerService,
	mediaGuard security.MediaGuardService,
	collector metrics.MetricsCollector,
	policy Policy,
) *Service {
	if policy.TTL <= 0 {
		policy.TTL = DefaultTTL
	}
	return &Service{
		userRepo:    userRepo,
		storyRepo:   storyRepo,
		viewRepo:    viewRepo,
		likeRepo:    likeRepo,
		commentRepo: commentRepo,
		sanitizer:   sanitizer,
		mediaGuard:  mediaGuard,
		collector:   collector,
		policy:      policy,
		nowFn:       time.Now,
	}
}

// SetNowFunc は現在時刻の取得関数を差し替える。テスト専用。
func (s *Service) SetNowFunc(fn func() time.Time) {
	s.nowFn = fn
}

// CreateInput はストーリー作成の入力。
type CreateInput struct {
	Content         string
	ImageURL        string
	VideoURL        string
	BackgroundColor string
	TextColor       string
}

// Create はストーリーを作成する。
// 地域はオーナーの現在地域で作成時に固定され、以後オーナーが移動しても変わらない。
// 失効時刻は作成時刻 + TTL。
func (s *Service) Create(ctx context.Context, ownerID string, input CreateInput) (*model.Story, error) {
	owner, err := s.userRepo.FindByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, model.NewUserNotFoundError()
	}

	content := input.Content
	if s.sanitizer != nil {
		content = s.sanitizer.Sanitize(content)
	}

	if s.policy.RejectEmpty && content == "" && input.ImageURL == "" && input.VideoURL == "" {
		return nil, model.NewEmptyStoryError()
	}

	if err := s.validateMediaURL(input.ImageURL); err != nil {
		return nil, err
	}
	if err := s.validateMediaURL(input.VideoURL); err != nil {
		return nil, err
	}

	now := s.nowFn()
	story := &model.Story{
		ID:              uuid.New().String(),
		UserID:          owner.ID,
		Location:        owner.Location,
		Content:         content,
		ImageURL:        input.ImageURL,
		VideoURL:        input.VideoURL,
		BackgroundColor: input.BackgroundColor,
		TextColor:       input.TextColor,
		CreatedAt:       now,
		ExpiresAt:       now.Add(s.policy.TTL),
	}

	if err := s.withConflictRetry(func() error {
		return s.storyRepo.Create(ctx, story)
	}); err != nil {
		return nil, err
	}

	if s.collector != nil {
		s.collector.RecordStoryCreated(story.Location)
	}

	slog.Info("ストーリーを作成しました",
		slog.String("story_id", story.ID),
		slog.String("user_id", story.UserID),
		slog.String("location", story.Location),
	)

	return story, nil
}

// validateMediaURL はメディアURLを検証する。空URLは検証をスキップする。
func (s *Service) validateMediaURL(rawURL string) error {
	if rawURL == "" || s.mediaGuard == nil {
		return nil
	}
	if err := s.mediaGuard.ValidateMediaURL(rawURL); err != nil {
		if errors.Is(err, security.ErrBlockedDestination) {
			return model.NewMediaURLBlockedError()
		}
		return model.NewInvalidMediaURLError(err.Error())
	}
	return nil
}

// ListActive は呼び出しユーザーの地域の有効なストーリーを新しい順に返す。
// 失効済みおよび他地域のストーリーは含まれない。
// オーナーが存在しない等の不整合な行はスキップしてログに残し、一覧全体は失敗させない。
func (s *Service) ListActive(ctx context.Context, forUserID string) ([]FeedStory, error) {
	user, err := s.userRepo.FindByID(ctx, forUserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	rows, err := s.storyRepo.ListActiveByLocation(ctx, user.Location, forUserID, s.nowFn())
	if err != nil {
		return nil, err
	}

	return ComposeFeed(rows), nil
}

// ListForUser は指定ユーザー自身の有効なストーリーを地域に関係なく新しい順に返す。
func (s *Service) ListForUser(ctx context.Context, ownerID string) ([]*model.Story, error) {
	owner, err := s.userRepo.FindByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, model.NewUserNotFoundError()
	}

	return s.storyRepo.ListActiveByOwner(ctx, ownerID, s.nowFn())
}

// Get は指定IDのストーリーを返す。見つからない場合はSTORY_NOT_FOUNDエラー。
// 失効済みでもそのまま返す。失効判定は呼び出し側の責務。
func (s *Service) Get(ctx context.Context, storyID string) (*model.Story, error) {
	story, err := s.storyRepo.FindByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if story == nil {
		return nil, model.NewStoryNotFoundError(storyID)
	}
	return story, nil
}

// ViewResult はViewの戻り値。
type ViewResult struct {
	// Recorded は今回の呼び出しで新規に閲覧が記録された場合true。
	// 既に閲覧済みだった場合はfalse。
	Recorded bool
	// ViewCount は記録後の閲覧者数。閲覧者集合の要素数と常に一致する。
	ViewCount int
}

// View は閲覧を冪等に記録する。
// 同一ユーザーが何度閲覧しても閲覧者集合とカウントは1回分しか変化しない。
// 記録と重複判定はストレージの一意制約による単一の原子的操作で行われ、
// 並行呼び出しでも二重計上は発生しない。
func (s *Service) View(ctx context.Context, storyID, viewerID string) (*ViewResult, error) {
	story, err := s.Get(ctx, storyID)
	if err != nil {
		return nil, err
	}

	if !s.policy.AllowExpiredView && !story.IsActive(s.nowFn()) {
		return nil, model.NewStoryExpiredError(storyID)
	}

	viewer, err := s.userRepo.FindByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if viewer == nil {
		return nil, model.NewUserNotFoundError()
	}

	var recorded bool
	if err := s.withConflictRetry(func() error {
		var recErr error
		recorded, recErr = s.viewRepo.Record(ctx, &model.StoryView{
			ID:       uuid.New().String(),
			StoryID:  storyID,
			UserID:   viewerID,
			ViewedAt: s.nowFn(),
		})
		return recErr
	}); err != nil {
		return nil, err
	}

	if s.collector != nil {
		s.collector.RecordStoryView(!recorded)
	}

	count, err := s.viewRepo.CountByStory(ctx, storyID)
	if err != nil {
		return nil, err
	}

	return &ViewResult{Recorded: recorded, ViewCount: count}, nil
}

// Like はリアクションを記録する。
// 同一の(ストーリー, ユーザー)組には最大1件のみ保持し、
// 再度のLikeはリアクション種別の上書きとなる（行は増えない）。
func (s *Service) Like(ctx context.Context, storyID, userID, reactionType string) error {
	if reactionType == "" {
		reactionType = string(model.ReactionLike)
	}
	if !model.ValidReactionTypes[model.ReactionType(reactionType)] {
		return model.NewInvalidReactionError(reactionType)
	}

	if _, err := s.Get(ctx, storyID); err != nil {
		return err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	if err := s.withConflictRetry(func() error {
		return s.likeRepo.Upsert(ctx, &model.StoryLike{
			ID:           uuid.New().String(),
			StoryID:      storyID,
			UserID:       userID,
			ReactionType: model.ReactionType(reactionType),
			CreatedAt:    s.nowFn(),
		})
	}); err != nil {
		return err
	}

	if s.collector != nil {
		s.collector.RecordStoryLike(reactionType)
	}

	return nil
}

// Unlike はリアクションを取り消す。
// リアクションが存在しない場合も正常終了する（暗黙の無操作）。
func (s *Service) Unlike(ctx context.Context, storyID, userID string) error {
	if _, err := s.Get(ctx, storyID); err != nil {
		return err
	}

	if err := s.withConflictRetry(func() error {
		return s.likeRepo.Delete(ctx, storyID, userID)
	}); err != nil {
		return err
	}

	if s.collector != nil {
		s.collector.RecordStoryUnlike()
	}

	return nil
}

// LikesResult はGetLikesの戻り値。
type LikesResult struct {
	Likes        []repository.StoryLikeWithUser
	Count        int
	HasUserLiked bool
}

// GetLikes は指定ストーリーのリアクション一覧をユーザー情報付きで返す。
func (s *Service) GetLikes(ctx context.Context, storyID, userID string) (*LikesResult, error) {
	if _, err := s.Get(ctx, storyID); err != nil {
		return nil, err
	}

	likes, err := s.likeRepo.ListByStory(ctx, storyID)
	if err != nil {
		return nil, err
	}

	hasLiked, err := s.likeRepo.Exists(ctx, storyID, userID)
	if err != nil {
		return nil, err
	}

	return &LikesResult{
		Likes:        likes,
		Count:        len(likes),
		HasUserLiked: hasLiked,
	}, nil
}

// AddComment はコメントを追記する。
// コメントは追記専用であり、既存コメントが変更されることはない。
// トリム後に空となる本文は拒否する。
func (s *Service) AddComment(ctx context.Context, storyID, userID, content string) (*model.StoryComment, error) {
	if s.sanitizer != nil {
		content = s.sanitizer.Sanitize(content)
	}
	if content == "" {
		return nil, model.NewEmptyCommentError()
	}

	if _, err := s.Get(ctx, storyID); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	comment := &model.StoryComment{
		ID:        uuid.New().String(),
		StoryID:   storyID,
		UserID:    userID,
		Content:   content,
		CreatedAt: s.nowFn(),
	}

	if err := s.withConflictRetry(func() error {
		return s.commentRepo.Create(ctx, comment)
	}); err != nil {
		return nil, err
	}

	if s.collector != nil {
		s.collector.RecordStoryComment()
	}

	return comment, nil
}

// GetComments は指定ストーリーのコメント一覧を時系列順（古い順）で返す。
func (s *Service) GetComments(ctx context.Context, storyID string) ([]repository.StoryCommentWithUser, error) {
	if _, err := s.Get(ctx, storyID); err != nil {
		return nil, err
	}

	return s.commentRepo.ListByStory(ctx, storyID)
}

// withConflictRetry は同時更新の競合（CONFLICT）を1回だけ内部リトライする。
// 2回目も競合した場合はそのままエラーを返す。
func (s *Service) withConflictRetry(op func() error) error {
	err := op()
	if err == nil {
		return nil
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeConflict {
		slog.Warn("競合を検出したためリトライします", slog.String("code", apiErr.Code))
		return op()
	}

	return err
}
